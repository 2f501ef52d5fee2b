package classify_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"autosort/internal/classify"
	"autosort/internal/services"
	"autosort/internal/testsupport"
)

func defaultRules(base string) []classify.Rule {
	return []classify.Rule{
		{Tag: classify.TagImage, Extensions: []string{".jpg", ".jpeg", ".png"}, Destination: filepath.Join(base, "Images")},
		{Tag: classify.TagDocument, Extensions: []string{".pdf"}, Destination: filepath.Join(base, "PDFs")},
	}
}

func names(entries []classify.FileEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestClassifyRoutesByExtension(t *testing.T) {
	src := t.TempDir()
	testsupport.Touch(t, src, "b.PNG", "a.jpg", "report.pdf", "notes.txt", "archive.tar.gz")
	if err := os.Mkdir(filepath.Join(src, "nested.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}
	testsupport.Touch(t, filepath.Join(src, "sub"), "deep.png")

	got, err := classify.Classify(context.Background(), src, defaultRules(src))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(got.Batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(got.Batches))
	}
	images, docs := got.Batches[0], got.Batches[1]
	if images.Rule.Tag != classify.TagImage || !reflect.DeepEqual(names(images.Entries), []string{"a.jpg", "b.PNG"}) {
		t.Fatalf("unexpected image batch %+v", images)
	}
	if images.Entries[1].Ext != ".png" {
		t.Fatalf("expected lowercase extension, got %q", images.Entries[1].Ext)
	}
	if docs.Rule.Tag != classify.TagDocument || !reflect.DeepEqual(names(docs.Entries), []string{"report.pdf"}) {
		t.Fatalf("unexpected document batch %+v", docs)
	}
	if got.Total() != 3 {
		t.Fatalf("expected 3 files, got %d", got.Total())
	}
	for _, b := range got.Batches {
		if b.SetupErr != nil {
			t.Fatalf("unexpected setup error: %v", b.SetupErr)
		}
		if info, err := os.Stat(b.Rule.Destination); err != nil || !info.IsDir() {
			t.Fatalf("expected destination %s to exist", b.Rule.Destination)
		}
	}
}

func TestClassifyOnlyCreatesDestinationsWithWork(t *testing.T) {
	src := t.TempDir()
	testsupport.Touch(t, src, "only.pdf")

	got, err := classify.Classify(context.Background(), src, defaultRules(src))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(got.Batches) != 1 || got.Batches[0].Rule.Tag != classify.TagDocument {
		t.Fatalf("unexpected batches %+v", got.Batches)
	}
	if _, err := os.Stat(filepath.Join(src, "Images")); !os.IsNotExist(err) {
		t.Fatal("image destination should not be created without images")
	}
}

func TestClassifyEmptyDirectory(t *testing.T) {
	src := t.TempDir()
	got, err := classify.Classify(context.Background(), src, defaultRules(src))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(got.Batches) != 0 || got.Total() != 0 {
		t.Fatalf("expected empty classification, got %+v", got)
	}
	if entries := testsupport.ListNames(t, src); len(entries) != 0 {
		t.Fatalf("expected no filesystem changes, got %v", entries)
	}
}

func TestClassifyMissingSource(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "missing")
	_, err := classify.Classify(context.Background(), src, defaultRules(src))
	if !errors.Is(err, services.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
	if _, statErr := os.Stat(src); !os.IsNotExist(statErr) {
		t.Fatal("missing source must not be created")
	}
}

func TestClassifySourceIsFile(t *testing.T) {
	base := t.TempDir()
	testsupport.Touch(t, base, "file.pdf")
	_, err := classify.Classify(context.Background(), filepath.Join(base, "file.pdf"), nil)
	if !errors.Is(err, services.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestCheckSource(t *testing.T) {
	base := t.TempDir()
	testsupport.Touch(t, base, "file.pdf")

	if err := classify.CheckSource(base); err != nil {
		t.Fatalf("CheckSource(dir) = %v", err)
	}
	for _, path := range []string{filepath.Join(base, "missing"), filepath.Join(base, "file.pdf")} {
		if err := classify.CheckSource(path); !errors.Is(err, services.ErrSourceNotFound) {
			t.Fatalf("CheckSource(%s) = %v, want ErrSourceNotFound", path, err)
		}
	}
}

func TestClassifyRecordsDestinationFailure(t *testing.T) {
	src := t.TempDir()
	testsupport.Touch(t, src, "a.png", "b.pdf")
	// A regular file where the image directory should go blocks MkdirAll.
	blocker := filepath.Join(t.TempDir(), "Images")
	testsupport.WriteFile(t, blocker, 1)

	rules := defaultRules(src)
	rules[0].Destination = blocker

	got, err := classify.Classify(context.Background(), src, rules)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(got.Batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(got.Batches))
	}
	if !errors.Is(got.Batches[0].SetupErr, services.ErrDirectory) {
		t.Fatalf("expected directory error for images, got %v", got.Batches[0].SetupErr)
	}
	if got.Batches[1].SetupErr != nil {
		t.Fatalf("documents should be unaffected, got %v", got.Batches[1].SetupErr)
	}
}

func TestRulesFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	rules := classify.RulesFromConfig(cfg, "/data/inbox")
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Destination != "/data/inbox/Images" || rules[1].Destination != "/data/inbox/PDFs" {
		t.Fatalf("unexpected destinations %q %q", rules[0].Destination, rules[1].Destination)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithDestinationRoot("sorted"))
	cfg.Categories.Image.Enabled = false
	rules = classify.RulesFromConfig(cfg, "/data/inbox")
	if len(rules) != 1 || rules[0].Tag != classify.TagDocument {
		t.Fatalf("unexpected rules %+v", rules)
	}
	if want := filepath.Join(testsupport.BaseDir(cfg), "sorted", "PDFs"); rules[0].Destination != want {
		t.Fatalf("unexpected destination %q want %q", rules[0].Destination, want)
	}
}
