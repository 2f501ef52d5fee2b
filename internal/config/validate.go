package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateCategories(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.MaxWorkersPerCategory < 1 {
		return errors.New("pipeline.max_workers_per_category must be at least 1")
	}
	if c.Pipeline.DescribeTimeoutSeconds < 1 {
		return errors.New("pipeline.describe_timeout_seconds must be at least 1")
	}
	if c.Pipeline.MaxNameLength < 1 {
		return errors.New("pipeline.max_name_length must be at least 1")
	}
	if c.Pipeline.PDFTextChars < 1 {
		return errors.New("pipeline.pdf_text_chars must be at least 1")
	}
	return nil
}

func (c *Config) validateCategories() error {
	if !c.Categories.Image.Enabled && !c.Categories.Document.Enabled {
		return errors.New("categories: at least one of image or document must be enabled")
	}
	owners := make(map[string]string)
	for name, cat := range map[string]Category{"image": c.Categories.Image, "document": c.Categories.Document} {
		if !cat.Enabled {
			continue
		}
		if len(cat.Extensions) == 0 {
			return fmt.Errorf("categories.%s.extensions must not be empty", name)
		}
		if cat.Directory != filepath.Base(cat.Directory) || cat.Directory == "." || cat.Directory == ".." {
			return fmt.Errorf("categories.%s.directory must be a single directory name, got %q", name, cat.Directory)
		}
		for _, ext := range cat.Extensions {
			if other, taken := owners[ext]; taken {
				return fmt.Errorf("extension %q is claimed by both %s and %s", ext, other, name)
			}
			owners[ext] = name
		}
	}
	return nil
}

func (c *Config) validateLLM() error {
	if !c.Categories.Image.Enabled {
		return nil
	}
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("llm.api_key is required while the image category is enabled. Set OPENROUTER_API_KEY or edit %s (create with 'autosort config init')", defaultPath)
	}
	if !strings.HasPrefix(c.LLM.BaseURL, "http://") && !strings.HasPrefix(c.LLM.BaseURL, "https://") {
		return fmt.Errorf("llm.base_url must be an http(s) URL, got %q", c.LLM.BaseURL)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
