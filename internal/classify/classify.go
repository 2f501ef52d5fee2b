package classify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sys/unix"

	"autosort/internal/config"
	"autosort/internal/services"
)

// Tag identifies a file category.
type Tag string

const (
	// TagImage marks raster images, labelled by the captioning describer.
	TagImage Tag = "image"
	// TagDocument marks PDFs, labelled by their first page of text.
	TagDocument Tag = "document"
)

// Rule binds a category tag to its extensions and destination directory.
type Rule struct {
	Tag         Tag
	Extensions  []string
	Destination string
}

// FileEntry is one file selected for processing.
type FileEntry struct {
	Path string
	Name string
	Ext  string
	Tag  Tag
}

// Batch holds the files routed to one category.
type Batch struct {
	Rule     Rule
	Entries  []FileEntry
	SetupErr error
}

// Classification is the result of scanning a source directory. Batches keep
// rule order and only include categories with at least one file.
type Classification struct {
	SourceDir string
	Batches   []Batch
}

// Total returns the number of classified files across all batches.
func (c Classification) Total() int {
	n := 0
	for _, b := range c.Batches {
		n += len(b.Entries)
	}
	return n
}

// RulesFromConfig builds the enabled category rules, placing destinations
// under the configured destination root or sourceDir.
func RulesFromConfig(cfg *config.Config, sourceDir string) []Rule {
	base := cfg.DestinationBase(sourceDir)
	var rules []Rule
	if c := cfg.Categories.Image; c.Enabled {
		rules = append(rules, Rule{Tag: TagImage, Extensions: c.Extensions, Destination: filepath.Join(base, c.Directory)})
	}
	if c := cfg.Categories.Document; c.Enabled {
		rules = append(rules, Rule{Tag: TagDocument, Extensions: c.Extensions, Destination: filepath.Join(base, c.Directory)})
	}
	return rules
}

// CheckSource reports services.ErrSourceNotFound unless sourceDir is an
// existing directory.
func CheckSource(sourceDir string) error {
	info, err := os.Stat(sourceDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrSourceNotFound, "classify", "stat", sourceDir, err)
		}
		return services.Wrap(services.ErrSourceNotFound, "classify", "stat", "source unreadable", err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrSourceNotFound, "classify", "stat", fmt.Sprintf("%s is not a directory", sourceDir), nil)
	}
	return nil
}

// Scan lists regular files directly inside sourceDir and routes them by
// case-insensitive extension. It never touches the filesystem beyond reading.
// A missing or unreadable source directory yields services.ErrSourceNotFound.
func Scan(ctx context.Context, sourceDir string, rules []Rule) (Classification, error) {
	sourceDir = filepath.Clean(sourceDir)
	result := Classification{SourceDir: sourceDir}

	if err := CheckSource(sourceDir); err != nil {
		return result, err
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return result, services.Wrap(services.ErrSourceNotFound, "classify", "list", sourceDir, err)
	}

	byExt := make(map[string]int)
	for i, rule := range rules {
		for _, ext := range rule.Extensions {
			ext = strings.ToLower(ext)
			if _, claimed := byExt[ext]; !claimed {
				byExt[ext] = i
			}
		}
	}

	grouped := make([][]FileEntry, len(rules))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		idx, ok := byExt[ext]
		if !ok {
			continue
		}
		grouped[idx] = append(grouped[idx], FileEntry{
			Path: filepath.Join(sourceDir, entry.Name()),
			Name: entry.Name(),
			Ext:  ext,
			Tag:  rules[idx].Tag,
		})
	}

	for i, files := range grouped {
		if len(files) == 0 {
			continue
		}
		sort.Slice(files, func(a, b int) bool { return files[a].Name < files[b].Name })
		result.Batches = append(result.Batches, Batch{Rule: rules[i], Entries: files})
	}
	return result, nil
}

// Classify scans sourceDir and prepares the destination directory of every
// non-empty batch. Setup failures are stored on the batch.
func Classify(ctx context.Context, sourceDir string, rules []Rule) (Classification, error) {
	result, err := Scan(ctx, sourceDir, rules)
	if err != nil {
		return result, err
	}
	for i := range result.Batches {
		result.Batches[i].SetupErr = EnsureDestination(result.Batches[i].Rule.Destination)
	}
	return result, nil
}

// EnsureDestination creates dir if needed and checks that files can be
// created inside it.
func EnsureDestination(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return services.Wrap(services.ErrDirectory, "classify", "destination", "empty destination path", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrDirectory, "classify", "mkdir", dir, err)
	}
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return services.Wrap(services.ErrDirectory, "classify", "access", dir+" is not writable", err)
	}
	return nil
}
