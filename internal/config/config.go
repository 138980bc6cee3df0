// Package config provides configuration loading and validation for the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/cache"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/claims"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/gate"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/llm"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/matching"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/scoring"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/verify"
)

// EnvPrefix prefixes every environment override, e.g. FITSCORE_MATCHING_HIGH_THRESHOLD
const EnvPrefix = "FITSCORE"

// APIKeyEnv is honoured when llm.api_key is not set
const APIKeyEnv = "GEMINI_API_KEY"

// Config is the full engine configuration. Every field has a default.
type Config struct {
	LLM        LLMConfig        `mapstructure:"llm"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Ontology   PathConfig       `mapstructure:"ontology"`
	IDF        PathConfig       `mapstructure:"idf"`
	Matching   MatchingConfig   `mapstructure:"matching"`
	Verifier   VerifierConfig   `mapstructure:"verifier"`
	Gate       gate.Config      `mapstructure:"gate"`
	Scoring    scoring.Weights  `mapstructure:"scoring"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// LLMConfig selects the provider and models
type LLMConfig struct {
	Provider       string        `mapstructure:"provider" validate:"oneof=gemini"`
	APIKey         string        `mapstructure:"api_key"`
	LiteModel      string        `mapstructure:"lite_model" validate:"required"`
	StandardModel  string        `mapstructure:"standard_model" validate:"required"`
	AdvancedModel  string        `mapstructure:"advanced_model"`
	EmbeddingModel string        `mapstructure:"embedding_model" validate:"required"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	Backoff        time.Duration `mapstructure:"backoff" validate:"gte=0"`
}

// ModelConfig converts to the llm package's configuration
func (c LLMConfig) ModelConfig() *llm.Config {
	models := map[llm.ModelTier]string{
		llm.TierLite:     c.LiteModel,
		llm.TierStandard: c.StandardModel,
	}
	if c.AdvancedModel != "" {
		models[llm.TierAdvanced] = c.AdvancedModel
	}
	return &llm.Config{
		Provider:       llm.Provider(c.Provider),
		Models:         models,
		EmbeddingModel: c.EmbeddingModel,
		Timeout:        c.Timeout,
		MaxRetries:     c.MaxRetries,
		Backoff:        c.Backoff,
	}
}

// ExtractionConfig bounds extractor input
type ExtractionConfig struct {
	MaxInputChars int `mapstructure:"max_input_chars" validate:"gt=0"`
}

// PathConfig points at a precomputed artifact; empty disables it
type PathConfig struct {
	Path string `mapstructure:"path"`
}

// MatchingConfig holds the similarity thresholds
type MatchingConfig struct {
	HighThreshold   float64 `mapstructure:"high_threshold" validate:"gte=0,lte=1"`
	MediumThreshold float64 `mapstructure:"medium_threshold" validate:"gte=0,lte=1"`
}

// Thresholds converts to matcher thresholds
func (c MatchingConfig) Thresholds() matching.Thresholds {
	return matching.Thresholds{High: c.HighThreshold, Medium: c.MediumThreshold}
}

// VerifierConfig controls the language model verifier
type VerifierConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxConcurrent int  `mapstructure:"max_concurrent" validate:"gt=0"`
}

// CacheConfig configures the persistent extraction cache tiers; empty
// addresses disable a tier.
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" validate:"gte=0"`
	TTL           time.Duration `mapstructure:"ttl" validate:"gte=0"`
	DatabaseURL   string        `mapstructure:"database_url"`
}

// RedisConfig converts to the cache package's Redis settings
func (c CacheConfig) RedisConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:  c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		TTL:      c.TTL,
	}
}

// LogConfig selects the log encoding
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// MetricsConfig optionally exposes Prometheus metrics over HTTP
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	models := llm.DefaultGeminiConfig()
	v.SetDefault("llm.provider", string(models.Provider))
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.lite_model", models.GetModel(llm.TierLite))
	v.SetDefault("llm.standard_model", models.GetModel(llm.TierStandard))
	v.SetDefault("llm.advanced_model", models.GetModel(llm.TierAdvanced))
	v.SetDefault("llm.embedding_model", models.EmbeddingModel)
	v.SetDefault("llm.timeout", models.Timeout)
	v.SetDefault("llm.max_retries", models.MaxRetries)
	v.SetDefault("llm.backoff", models.Backoff)

	v.SetDefault("extraction.max_input_chars", claims.DefaultMaxInputChars)
	v.SetDefault("ontology.path", "")
	v.SetDefault("idf.path", "")

	thresholds := matching.DefaultThresholds()
	v.SetDefault("matching.high_threshold", thresholds.High)
	v.SetDefault("matching.medium_threshold", thresholds.Medium)

	v.SetDefault("verifier.enabled", true)
	v.SetDefault("verifier.max_concurrent", verify.DefaultMaxConcurrent)

	caps := gate.DefaultConfig()
	v.SetDefault("gate.adjacent_cap", caps.AdjacentCap)
	v.SetDefault("gate.unrelated_cap", caps.UnrelatedCap)
	v.SetDefault("gate.must_have_cap", caps.MustHaveCap)
	v.SetDefault("gate.must_have_severe_cap", caps.MustHaveSevereCap)
	v.SetDefault("gate.coverage_floor", caps.CoverageFloor)
	v.SetDefault("gate.medium_credit", caps.MediumCredit)

	weights := scoring.DefaultWeights()
	v.SetDefault("scoring.requirement_weight", weights.Requirement)
	v.SetDefault("scoring.skill_overlap_weight", weights.SkillOverlap)
	v.SetDefault("scoring.must_have_weight", weights.MustHave)
	v.SetDefault("scoring.preferred_weight", weights.Preferred)

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", 30*24*time.Hour)
	v.SetDefault("cache.database_url", "")

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
	v.SetDefault("metrics.addr", "")
}

// Load builds the configuration from defaults, the optional file at path
// (YAML, TOML, or JSON by extension), a .env file in the working
// directory, and FITSCORE_* environment variables, in increasing priority.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(APIKeyEnv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var structValidator = validator.New()

// Validate checks field ranges and the cross-field orderings.
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := c.Matching.Thresholds().Validate(); err != nil {
		return fmt.Errorf("config error: matching: %w", err)
	}
	if err := c.Gate.Validate(); err != nil {
		return fmt.Errorf("config error: gate: %w", err)
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("config error: scoring: %w", err)
	}
	return nil
}

// RequireAPIKey fails when no language model key is configured
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return fmt.Errorf("config error: no API key; set %s or %s_LLM_API_KEY", APIKeyEnv, EnvPrefix)
	}
	return nil
}
