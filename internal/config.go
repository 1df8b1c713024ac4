package internal

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration, loaded from an optional YAML file
// with environment overrides. Secrets come only from the environment.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	AssistantBaseURL string `yaml:"assistant_base_url"`
	AssistantID      string `yaml:"assistant_id"`
	AssistantAPIKey  string `yaml:"-"`

	SentinelPhrase string `yaml:"sentinel_phrase"`

	// StoreBackend selects "file" or "sqlite"
	StoreBackend string `yaml:"store_backend"`
	StoreDir     string `yaml:"store_dir"`
	StorePath    string `yaml:"store_path"`

	SummaryWebhookURL string `yaml:"summary_webhook_url"`

	SpeechBaseURL string `yaml:"speech_base_url"`
	SpeechModel   string `yaml:"speech_model"`

	GateInterval time.Duration `yaml:"gate_interval"`
	GateBudget   time.Duration `yaml:"gate_budget"`
}

// UnmarshalYAML decodes the config, accepting Go duration strings (e.g.
// "500ms", "15s") for the gate timing fields.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type rawConfig struct {
		ListenAddr        string `yaml:"listen_addr"`
		AssistantBaseURL  string `yaml:"assistant_base_url"`
		AssistantID       string `yaml:"assistant_id"`
		SentinelPhrase    string `yaml:"sentinel_phrase"`
		StoreBackend      string `yaml:"store_backend"`
		StoreDir          string `yaml:"store_dir"`
		StorePath         string `yaml:"store_path"`
		SummaryWebhookURL string `yaml:"summary_webhook_url"`
		SpeechBaseURL     string `yaml:"speech_base_url"`
		SpeechModel       string `yaml:"speech_model"`
		GateInterval      string `yaml:"gate_interval"`
		GateBudget        string `yaml:"gate_budget"`
	}

	var raw rawConfig
	if err := value.Decode(&raw); err != nil {
		return err
	}

	setIfNonEmpty := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setIfNonEmpty(&c.ListenAddr, raw.ListenAddr)
	setIfNonEmpty(&c.AssistantBaseURL, raw.AssistantBaseURL)
	setIfNonEmpty(&c.AssistantID, raw.AssistantID)
	setIfNonEmpty(&c.SentinelPhrase, raw.SentinelPhrase)
	setIfNonEmpty(&c.StoreBackend, raw.StoreBackend)
	setIfNonEmpty(&c.StoreDir, raw.StoreDir)
	setIfNonEmpty(&c.StorePath, raw.StorePath)
	setIfNonEmpty(&c.SummaryWebhookURL, raw.SummaryWebhookURL)
	setIfNonEmpty(&c.SpeechBaseURL, raw.SpeechBaseURL)
	setIfNonEmpty(&c.SpeechModel, raw.SpeechModel)

	if raw.GateInterval != "" {
		d, err := time.ParseDuration(raw.GateInterval)
		if err != nil {
			return fmt.Errorf("invalid gate_interval %q: %w", raw.GateInterval, err)
		}
		c.GateInterval = d
	}
	if raw.GateBudget != "" {
		d, err := time.ParseDuration(raw.GateBudget)
		if err != nil {
			return fmt.Errorf("invalid gate_budget %q: %w", raw.GateBudget, err)
		}
		c.GateBudget = d
	}
	return nil
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		ListenAddr:   ":8080",
		StoreBackend: "file",
		StoreDir:     "transcripts",
		StorePath:    "transcripts.db",
		SpeechModel:  "whisper-1",
		GateInterval: DefaultGateInterval,
		GateBudget:   DefaultGateBudget,
	}
}

// LoadConfig reads the YAML file at path (optional) and applies environment
// overrides on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.StoreBackend != "file" && cfg.StoreBackend != "sqlite" {
		return cfg, fmt.Errorf("unknown store backend %q (supported: file, sqlite)", cfg.StoreBackend)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setIfEnv(&c.ListenAddr, "CHAT_LISTEN_ADDR")
	setIfEnv(&c.AssistantBaseURL, "ASSISTANT_BASE_URL")
	setIfEnv(&c.AssistantID, "ASSISTANT_ID")
	setIfEnv(&c.AssistantAPIKey, "OPENAI_API_KEY")
	setIfEnv(&c.SentinelPhrase, "CHAT_SENTINEL")
	setIfEnv(&c.StoreBackend, "CHAT_STORE_BACKEND")
	setIfEnv(&c.StoreDir, "CHAT_STORE_DIR")
	setIfEnv(&c.StorePath, "CHAT_STORE_PATH")
	setIfEnv(&c.SummaryWebhookURL, "CHAT_SUMMARY_WEBHOOK")
	setIfEnv(&c.SpeechBaseURL, "SPEECH_BASE_URL")
	setIfEnv(&c.SpeechModel, "SPEECH_MODEL")
}

func setIfEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// OpenStore opens the configured blob store backend
func (c *Config) OpenStore() (BlobStore, error) {
	if c.StoreBackend == "sqlite" {
		return OpenSQLiteStore(c.StorePath)
	}
	return NewFileStore(c.StoreDir)
}
