package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	Workers     WorkersConfig   `toml:"workers"`
	Pipelines   PipelinesConfig `toml:"pipelines"`
	Index       IndexConfig     `toml:"index"`
	Snapshot    SnapshotConfig  `toml:"snapshot"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output []string `toml:"output"` // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// WorkersConfig controls the worker protocol core.
type WorkersConfig struct {
	QueueDepth         int     `toml:"queue_depth" validate:"gte=1"`         // Buffered requests per worker (queuing during model load)
	DetectionThreshold float64 `toml:"detection_threshold" validate:"gte=0"` // Fixed confidence cutoff for object detection
	WindowSeconds      int     `toml:"window_seconds" validate:"gte=1"`      // Transcription window length
	StrideSeconds      int     `toml:"stride_seconds" validate:"gte=0"`      // Transcription window overlap
}

// PipelinesConfig selects and configures the model runtimes.
type PipelinesConfig struct {
	Mode        string       `toml:"mode" validate:"oneof=local cloud mock"`
	CatalogPath string       `toml:"catalog_path"` // YAML model catalog (task kind -> model id)
	Llama       LlamaConfig  `toml:"llama"`
	Whisper     LocalServer  `toml:"whisper"`
	Gemini      GeminiConfig `toml:"gemini"`
	Claude      ClaudeConfig `toml:"claude"`
	LLM         LLMConfig    `toml:"llm"`
}

// LlamaConfig configures the local llama-server runtime (embeddings + completions).
type LlamaConfig struct {
	BinaryDir   string `toml:"binary_dir"`  // Directory containing llama-server
	ModelDir    string `toml:"model_dir"`   // Directory containing .gguf models
	EmbedModel  string `toml:"embed_model"` // Embedding model filename
	ChatModel   string `toml:"chat_model"`  // Completion model filename
	ContextSize int    `toml:"context_size"`
	ThreadCount int    `toml:"thread_count"`
	GPULayers   int    `toml:"gpu_layers"`
	EmbedPort   int    `toml:"embed_port"`
	ChatPort    int    `toml:"chat_port"`
}

// LocalServer configures a localhost inference server (whisper-server).
type LocalServer struct {
	BinaryDir string `toml:"binary_dir"`
	ModelPath string `toml:"model_path"`
	Port      int    `toml:"port"`
}

type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	VisionModel string  `toml:"vision_model"`
	Temperature float32 `toml:"temperature"`
}

type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

// LLMConfig holds provider-neutral generation settings.
type LLMConfig struct {
	DefaultProvider string  `toml:"default_provider" validate:"oneof=gemini claude"`
	RequestsPerMin  int     `toml:"requests_per_min" validate:"gte=1"` // Rate limit per cloud provider
	MaxNewTokens    int     `toml:"max_new_tokens" validate:"gte=1"`
	Temperature     float32 `toml:"temperature"`
}

// IndexConfig controls semantic index chunking and retrieval. Thresholds are
// deliberately configuration, not per-call-site constants: freshly-added
// content and pre-seeded reference works use distinct minimums.
type IndexConfig struct {
	MinChunkChars          int `toml:"min_chunk_chars" validate:"gte=1"`
	ReferenceMinChunkChars int `toml:"reference_min_chunk_chars" validate:"gte=1"`
	TopK                   int `toml:"top_k" validate:"gte=1"`
}

// SnapshotConfig controls the optional scheduled index snapshots. Disabled
// by default: the canonical behavior is a fresh empty index per worker
// instance.
type SnapshotConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format
	ID       string `toml:"id"`       // Snapshot identifier
}

// NewDefaultConfig returns a Config populated with defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/cogito",
				ResetOnStartup: false,
			},
		},
		Workers: WorkersConfig{
			QueueDepth:         32,
			DetectionThreshold: 0.5,
			WindowSeconds:      30,
			StrideSeconds:      5,
		},
		Pipelines: PipelinesConfig{
			Mode:        "mock",
			CatalogPath: "models.yaml",
			Llama: LlamaConfig{
				ModelDir:    "./models",
				EmbedModel:  "all-minilm-l6-v2.gguf",
				ChatModel:   "gpt2.gguf",
				ContextSize: 2048,
				ThreadCount: 4,
				EmbedPort:   8086,
				ChatPort:    8087,
			},
			Whisper: LocalServer{
				ModelPath: "./models/whisper-tiny.en.bin",
				Port:      8088,
			},
			Gemini: GeminiConfig{
				Model:       "gemini-2.0-flash",
				VisionModel: "gemini-2.0-flash",
				Temperature: 0.2,
			},
			Claude: ClaudeConfig{
				Model:       "claude-haiku-4-5",
				MaxTokens:   512,
				Temperature: 0.8,
			},
			LLM: LLMConfig{
				DefaultProvider: "gemini",
				RequestsPerMin:  30,
				MaxNewTokens:    16,
				Temperature:     0.8,
			},
		},
		Index: IndexConfig{
			MinChunkChars:          30,
			ReferenceMinChunkChars: 30,
			TopK:                   5,
		},
		Snapshot: SnapshotConfig{
			Enabled:  false,
			Schedule: "@every 10m",
			ID:       "default",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyFlagOverrides applies command-line flag overrides, the highest
// priority configuration source.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the configuration against struct-tag constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("COGITO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("COGITO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("COGITO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if level := os.Getenv("COGITO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if mode := os.Getenv("COGITO_PIPELINES_MODE"); mode != "" {
		config.Pipelines.Mode = mode
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Pipelines.Gemini.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Pipelines.Claude.APIKey = key
	}

	if path := os.Getenv("COGITO_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
}
