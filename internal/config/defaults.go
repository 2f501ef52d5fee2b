package config

const (
	defaultConfigPath             = "~/.config/autosort/config.toml"
	defaultSourceDir              = "~/Downloads"
	defaultStateDir               = "~/.local/share/autosort"
	defaultLogDir                 = "~/.local/share/autosort/logs"
	defaultJournalFile            = "journal.db"
	defaultMaxWorkersPerCategory  = 2
	defaultDescribeTimeoutSeconds = 120
	defaultMaxNameLength          = 50
	defaultPDFTextChars           = 100
	defaultImageDirectory         = "Images"
	defaultDocumentDirectory      = "PDFs"
	defaultLLMBaseURL             = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel               = "google/gemini-2.5-flash"
	defaultLLMReferer             = "https://github.com/autosort/autosort"
	defaultLLMTitle               = "autosort"
	defaultLLMTimeoutSeconds      = 60
	defaultMaxImageDimension      = 768
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// DefaultImageExtensions lists the extensions routed to the image category.
func DefaultImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp"}
}

// DefaultDocumentExtensions lists the extensions routed to the document category.
func DefaultDocumentExtensions() []string {
	return []string{".pdf"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDir: defaultSourceDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
		},
		Pipeline: Pipeline{
			MaxWorkersPerCategory:  defaultMaxWorkersPerCategory,
			DescribeTimeoutSeconds: defaultDescribeTimeoutSeconds,
			MaxNameLength:          defaultMaxNameLength,
			PDFTextChars:           defaultPDFTextChars,
		},
		Categories: Categories{
			Image: Category{
				Enabled:    true,
				Extensions: DefaultImageExtensions(),
				Directory:  defaultImageDirectory,
			},
			Document: Category{
				Enabled:    true,
				Extensions: DefaultDocumentExtensions(),
				Directory:  defaultDocumentDirectory,
			},
		},
		LLM: LLM{
			BaseURL:           defaultLLMBaseURL,
			Model:             defaultLLMModel,
			Referer:           defaultLLMReferer,
			Title:             defaultLLMTitle,
			TimeoutSeconds:    defaultLLMTimeoutSeconds,
			MaxImageDimension: defaultMaxImageDimension,
		},
		Journal: Journal{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
