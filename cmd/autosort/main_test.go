package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"autosort/internal/config"
	"autosort/internal/services"
	"autosort/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	source     string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	cfg.Logging.Level = "error"
	if err := os.MkdirAll(cfg.Paths.SourceDir, 0o755); err != nil {
		t.Fatalf("mkdir source: %v", err)
	}

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, source: cfg.Paths.SourceDir}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := range 8 {
		for y := range 8 {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}

func captionServer(t *testing.T, caption string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, _ := json.Marshal(map[string]string{"caption": caption})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": string(content)}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestRunOrganizesImagesAndDocuments(t *testing.T) {
	srv := captionServer(t, "a red square")
	env := setupCLITestEnv(t, testsupport.WithLLMBaseURL(srv.URL))
	writePNG(t, filepath.Join(env.source, "IMG_0001.png"))
	testsupport.Touch(t, env.source, "scan.pdf", "notes.txt")

	out, _, err := runCLI(t, []string{"run", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var summary summaryJSON
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	if summary.Totals.Succeeded != 2 || summary.Totals.Failed != 0 || summary.Totals.Fallbacks != 1 {
		t.Fatalf("unexpected totals %+v", summary.Totals)
	}

	if got := testsupport.ListNames(t, filepath.Join(env.source, "Images")); !slices.Equal(got, []string{"a_red_square.png"}) {
		t.Fatalf("Images = %v", got)
	}
	// A file that is not a readable PDF falls back to a numbered label.
	if got := testsupport.ListNames(t, filepath.Join(env.source, "PDFs")); !slices.Equal(got, []string{"pdf_document_1.pdf"}) {
		t.Fatalf("PDFs = %v", got)
	}
	if _, err := os.Stat(filepath.Join(env.source, "notes.txt")); err != nil {
		t.Fatalf("unmatched file should stay put: %v", err)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, summary.RunID)

	out, _, err = runCLI(t, []string{"history", "--run", summary.RunID}, env.configPath)
	if err != nil {
		t.Fatalf("history --run: %v", err)
	}
	requireContains(t, out, "a_red_square.png")
}

func TestRunMissingSourceFails(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(t.TempDir(), "nope")

	_, _, err := runCLI(t, []string{"run", missing}, env.configPath)
	if !errors.Is(err, services.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
	if _, statErr := os.Stat(missing); !os.IsNotExist(statErr) {
		t.Fatal("run must not create the missing source")
	}
	for _, path := range []string{env.cfg.LockDir(), env.cfg.Journal.Path} {
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			t.Fatalf("missing source must not create %s", path)
		}
	}
}

func TestRunDryRunMovesNothing(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.Touch(t, env.source, "a.jpg", "b.JPEG", "c.pdf")

	out, _, err := runCLI(t, []string{"run", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	requireContains(t, out, "image")
	requireContains(t, out, "document")
	if got := testsupport.ListNames(t, env.source); !slices.Equal(got, []string{"a.jpg", "b.JPEG", "c.pdf"}) {
		t.Fatalf("dry run changed the source: %v", got)
	}
}

func TestRunWritesMetricsTextfile(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Categories.Image.Enabled = false
	env.cfg.Metrics.TextfilePath = filepath.Join(testsupport.BaseDir(env.cfg), "metrics", "autosort.prom")
	writeTestConfig(t, env.configPath, env.cfg)
	testsupport.Touch(t, env.source, "a.pdf")

	if _, _, err := runCLI(t, []string{"run"}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(env.cfg.Metrics.TextfilePath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	requireContains(t, string(data), `autosort_files_total{category="document",result="moved"} 1`)
}

func TestCheckReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Categories.Image.Enabled = false
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "Source directory")

	out, _, err = runCLI(t, []string{"check", filepath.Join(t.TempDir(), "missing")}, env.configPath)
	if err == nil {
		t.Fatal("expected check to fail for a missing source")
	}
	requireContains(t, out, "FAIL")
}

func TestHistoryRequiresJournal(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithJournalDisabled())
	if _, _, err := runCLI(t, []string{"history"}, env.configPath); err == nil {
		t.Fatal("expected history to fail with the journal disabled")
	}
}

func TestRunRequiresAPIKeyForImages(t *testing.T) {
	t.Setenv("AUTOSORT_LLM_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	env := setupCLITestEnv(t, testsupport.WithAPIKey(""))
	_, _, err := runCLI(t, []string{"run"}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
