package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the formatter service.
type Profile struct {
	// Scenario analyzer LLM (OpenAI-compatible protocol, or anthropic)
	LLMProvider string // deepseek, openai, siliconflow, dashscope, openrouter, ollama, anthropic
	LLMAPIKey   string
	LLMBaseURL  string // optional, has default per provider
	LLMModel    string
	LLMTimeout  int // seconds

	// Outbound analyzer budget; zero RPS disables throttling
	AnalyzerRPS   float64
	AnalyzerBurst int

	// Formatter behavior
	LabelsFile      string // YAML label overrides
	EligibilityRule string // CEL expression replacing the keyword check
	HighlightStyle  string // chroma style for fenced code; empty disables highlighting

	Mode    string
	Addr    string
	Port    int
	Data    string
	Driver  string
	DSN     string
	Version string
}

// Provider default configurations for the analyzer LLM.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"dashscope": {
		BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
		Model:   "qwen-max-latest",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "deepseek/deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
	"anthropic": {
		BaseURL: "",
		Model:   "claude-3-5-haiku-latest",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAnalyzerConfigured reports whether an analyzer API key is present.
func (p *Profile) IsAnalyzerConfigured() bool {
	return strings.TrimSpace(p.LLMAPIKey) != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// FromEnv loads analyzer and formatter configuration from environment variables.
// Values already set on the profile (for example from flags) win.
func (p *Profile) FromEnv() {
	p.LLMProvider = firstNonEmpty(p.LLMProvider, getEnvOrDefault("SBOTCHAT_LLM_PROVIDER", "deepseek"))
	p.LLMAPIKey = firstNonEmpty(p.LLMAPIKey, getEnvOrDefault("SBOTCHAT_LLM_API_KEY", ""))
	p.LLMBaseURL = firstNonEmpty(p.LLMBaseURL, getEnvOrDefault("SBOTCHAT_LLM_BASE_URL", ""))
	p.LLMModel = firstNonEmpty(p.LLMModel, getEnvOrDefault("SBOTCHAT_LLM_MODEL", ""))
	if p.LLMTimeout <= 0 {
		p.LLMTimeout = getEnvOrDefaultInt("SBOTCHAT_LLM_TIMEOUT_SECONDS", 60)
	}
	if p.AnalyzerRPS <= 0 {
		p.AnalyzerRPS = getEnvOrDefaultFloat("SBOTCHAT_ANALYZER_RPS", 2)
	}
	if p.AnalyzerBurst <= 0 {
		p.AnalyzerBurst = getEnvOrDefaultInt("SBOTCHAT_ANALYZER_BURST", 4)
	}

	p.LabelsFile = firstNonEmpty(p.LabelsFile, getEnvOrDefault("SBOTCHAT_LABELS_FILE", ""))
	p.EligibilityRule = firstNonEmpty(p.EligibilityRule, getEnvOrDefault("SBOTCHAT_ELIGIBILITY_RULE", ""))
	p.HighlightStyle = firstNonEmpty(p.HighlightStyle, getEnvOrDefault("SBOTCHAT_HIGHLIGHT_STYLE", ""))

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("Unknown LLM provider, using default: deepseek", "provider", p.LLMProvider)
		p.LLMProvider = "deepseek"
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// Validate normalizes the mode, resolves the data directory and fills the
// default SQLite DSN.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q", p.Driver)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn required for postgres driver")
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "sbotchat")
		} else {
			p.Data = "/var/opt/sbotchat"
		}
		if _, err := os.Stat(p.Data); os.IsNotExist(err) {
			if err := os.MkdirAll(p.Data, 0o770); err != nil {
				slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
				return err
			}
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("sbotchat_%s.db", p.Mode))
	}
	return nil
}
