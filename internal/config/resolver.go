// Package config resolves akadex settings from, in increasing precedence,
// built-in defaults, the YAML config file, environment variables, and CLI
// flags. Each resolved value remembers where it came from so `akadex
// config` style debugging stays possible.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

type ResolveOptions struct {
	ConfigPath string
	CLILLM     string
	CLIModel   string
	CLIDBPath  string
}

// ResolvedConfig carries every tunable the pipelines read.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath      ResolvedValue `json:"db_path"`
	LLMProvider ResolvedValue `json:"llm_provider"`
	LLMModel    ResolvedValue `json:"llm_model"`

	BackupModels   []string `json:"backup_models,omitempty"`
	TimeoutSeconds int      `json:"timeout_seconds"`
	RetrySleepMS   int      `json:"retry_sleep_ms"`

	CapabilitySchedule   bool    `json:"capability_schedule"`
	CapabilityTranscript bool    `json:"capability_transcript"`
	HybridRepair         bool    `json:"hybrid_repair"`
	RepairThreshold      float64 `json:"repair_threshold"`
	RepairMaxRows        int     `json:"repair_max_rows"`
	RepairBatchSize      int     `json:"repair_batch_size"`

	MaxScheduleRows int  `json:"max_schedule_rows"`
	ChunkSize       int  `json:"chunk_size"`
	ChunkOverlap    int  `json:"chunk_overlap"`
	ChunkProfile    bool `json:"chunk_profile"`

	LowGrades    ResolvedValue `json:"low_grades"`
	Timezone     ResolvedValue `json:"timezone"`
	MaxCitations int           `json:"max_citations"`

	LLMKeys map[string]ResolvedValue `json:"llm_keys,omitempty"`
}

type fileConfig struct {
	DBPath string `yaml:"db_path"`
	LLM    struct {
		Provider       string   `yaml:"provider"`
		APIKey         string   `yaml:"api_key"`
		Model          string   `yaml:"model"`
		BackupModels   []string `yaml:"backup_models"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		RetrySleepMS   int      `yaml:"retry_sleep_ms"`
	} `yaml:"llm"`
	Capability struct {
		Schedule        *bool   `yaml:"schedule"`
		Transcript      *bool   `yaml:"transcript"`
		HybridRepair    *bool   `yaml:"hybrid_repair"`
		RepairThreshold float64 `yaml:"repair_threshold"`
		RepairMaxRows   int     `yaml:"repair_max_rows"`
		RepairBatchSize int     `yaml:"repair_batch_size"`
	} `yaml:"capability"`
	Ingest struct {
		MaxScheduleRows int  `yaml:"max_schedule_rows"`
		ChunkSize       int  `yaml:"chunk_size"`
		ChunkOverlap    int  `yaml:"chunk_overlap"`
		ChunkProfile    bool `yaml:"chunk_profile"`
	} `yaml:"ingest"`
	Query struct {
		LowGrades    string `yaml:"low_grades"`
		Timezone     string `yaml:"timezone"`
		MaxCitations int    `yaml:"max_citations"`
	} `yaml:"query"`
}

// Built-in defaults.
const (
	DefaultTimeoutSeconds  = 60
	DefaultRetrySleepMS    = 1200
	DefaultMaxScheduleRows = 2500
	DefaultLowGrades       = "C,D,E,CD,D+,D-"
	DefaultTimezone        = "Asia/Jakarta"
	DefaultMaxCitations    = 8
)

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".akadex", "config.yaml")
}

func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath:           path,
		LLMKeys:              map[string]ResolvedValue{},
		TimeoutSeconds:       DefaultTimeoutSeconds,
		RetrySleepMS:         DefaultRetrySleepMS,
		CapabilitySchedule:   true,
		CapabilityTranscript: true,
		HybridRepair:         true,
		MaxScheduleRows:      DefaultMaxScheduleRows,
		MaxCitations:         DefaultMaxCitations,
		LowGrades:            ResolvedValue{Value: DefaultLowGrades, Source: SourceDefault},
		Timezone:             ResolvedValue{Value: DefaultTimezone, Source: SourceDefault},
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.LLMProvider, cfg.LLM.Provider, SourceConfig, path)
		apply(&out.LLMModel, cfg.LLM.Model, SourceConfig, path)
		out.BackupModels = cfg.LLM.BackupModels
		if cfg.LLM.TimeoutSeconds > 0 {
			out.TimeoutSeconds = cfg.LLM.TimeoutSeconds
		}
		if cfg.LLM.RetrySleepMS > 0 {
			out.RetrySleepMS = cfg.LLM.RetrySleepMS
		}

		if cfg.Capability.Schedule != nil {
			out.CapabilitySchedule = *cfg.Capability.Schedule
		}
		if cfg.Capability.Transcript != nil {
			out.CapabilityTranscript = *cfg.Capability.Transcript
		}
		if cfg.Capability.HybridRepair != nil {
			out.HybridRepair = *cfg.Capability.HybridRepair
		}
		out.RepairThreshold = cfg.Capability.RepairThreshold
		out.RepairMaxRows = cfg.Capability.RepairMaxRows
		out.RepairBatchSize = cfg.Capability.RepairBatchSize

		if cfg.Ingest.MaxScheduleRows > 0 {
			out.MaxScheduleRows = cfg.Ingest.MaxScheduleRows
		}
		out.ChunkSize = cfg.Ingest.ChunkSize
		out.ChunkOverlap = cfg.Ingest.ChunkOverlap
		out.ChunkProfile = cfg.Ingest.ChunkProfile

		apply(&out.LowGrades, cfg.Query.LowGrades, SourceConfig, path)
		apply(&out.Timezone, cfg.Query.Timezone, SourceConfig, path)
		if cfg.Query.MaxCitations > 0 {
			out.MaxCitations = cfg.Query.MaxCitations
		}

		if key := strings.TrimSpace(cfg.LLM.APIKey); key != "" {
			provider := providerOf(firstNonEmpty(cfg.LLM.Provider, cfg.LLM.Model))
			if provider == "" {
				provider = "default"
			}
			out.LLMKeys[provider] = ResolvedValue{Value: key, Source: SourceConfig, From: path}
		}
	}

	applyEnv(&out.DBPath, "AKADEX_DB")
	applyEnv(&out.DBPath, "AKADEX_DB_PATH")
	applyEnv(&out.LLMProvider, "AKADEX_LLM")
	applyEnv(&out.LLMModel, "AKADEX_LLM_MODEL")
	applyEnv(&out.LowGrades, "AKADEX_LOW_GRADES")
	applyEnv(&out.Timezone, "AKADEX_TIMEZONE")

	for env, provider := range map[string]string{
		"OPENROUTER_API_KEY": "openrouter",
		"GEMINI_API_KEY":     "google",
		"GOOGLE_API_KEY":     "google",
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			out.LLMKeys[provider] = ResolvedValue{Value: v, Source: SourceEnv, From: env}
		}
	}

	apply(&out.LLMProvider, opts.CLILLM, SourceCLI, "--llm")
	apply(&out.LLMModel, opts.CLIModel, SourceCLI, "--model")
	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")

	if out.DBPath.Value != "" {
		out.DBPath.Value = expandUserPath(out.DBPath.Value)
	}
	return out, nil
}

// LowGradeSet parses the configured low-grade list into a lookup set.
func (r ResolvedConfig) LowGradeSet() map[string]bool {
	out := map[string]bool{}
	for _, g := range strings.Split(r.LowGrades.Value, ",") {
		if g = strings.ToUpper(strings.TrimSpace(g)); g != "" {
			out[g] = true
		}
	}
	return out
}

// APIKeyForProvider returns the configured key for a provider or model
// reference like "openrouter" or "google/gemini-2.5-flash".
func (r ResolvedConfig) APIKeyForProvider(providerOrModel string) ResolvedValue {
	provider := providerOf(providerOrModel)
	if provider == "" {
		return ResolvedValue{}
	}
	if v, ok := r.LLMKeys[provider]; ok && strings.TrimSpace(v.Value) != "" {
		return v
	}
	if v, ok := r.LLMKeys["default"]; ok && strings.TrimSpace(v.Value) != "" {
		return v
	}
	return ResolvedValue{}
}

func providerOf(providerOrModel string) string {
	v := strings.ToLower(strings.TrimSpace(providerOrModel))
	if v == "" {
		return ""
	}
	if idx := strings.Index(v, "/"); idx > 0 {
		return v[:idx]
	}
	return v
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
