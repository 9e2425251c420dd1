package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var configValidate = validator.New()

// Config is the complete runtime configuration
type Config struct {
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Retrieval    RetrievalConfig    `yaml:"retrieval" mapstructure:"retrieval"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Gates        GateConfig         `yaml:"gates" mapstructure:"gates"`
	Grounding    GroundingConfig    `yaml:"grounding" mapstructure:"grounding"`
	Decision     DecisionConfig     `yaml:"decision" mapstructure:"decision"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Audit        AuditConfig        `yaml:"audit" mapstructure:"audit"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// LLMConfig selects the drafting and judgment provider
type LLMConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider" validate:"oneof=openai anthropic claude ollama"`
	Model      string `yaml:"model" mapstructure:"model"`
	JudgeModel string `yaml:"judge_model,omitempty" mapstructure:"judge_model"` // Defaults to Model
	APIKey     string `yaml:"-" mapstructure:"-"`                               // Never written to disk
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds" validate:"gte=0"`
	MaxTokens  int    `yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// RetrievalConfig configures the retrieval collaborator
type RetrievalConfig struct {
	Backend      string `yaml:"backend" mapstructure:"backend" validate:"oneof=local weaviate"`
	DataDir      string `yaml:"data_dir" mapstructure:"data_dir"`
	TopK         int    `yaml:"top_k" mapstructure:"top_k" validate:"gte=1,lte=50"`
	ChunkSize    int    `yaml:"chunk_size" mapstructure:"chunk_size" validate:"gte=100"`
	ChunkOverlap int    `yaml:"chunk_overlap" mapstructure:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`

	WeaviateHost   string `yaml:"weaviate_host,omitempty" mapstructure:"weaviate_host"`
	WeaviateScheme string `yaml:"weaviate_scheme,omitempty" mapstructure:"weaviate_scheme"`
	WeaviateClass  string `yaml:"weaviate_class,omitempty" mapstructure:"weaviate_class"`
	EmbedModel     string `yaml:"embed_model" mapstructure:"embed_model"`
}

// CacheConfig configures the query-embedding cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// GateConfig holds the hard gate heuristics
type GateConfig struct {
	DenseNumberThreshold int      `yaml:"dense_number_threshold" mapstructure:"dense_number_threshold" validate:"gte=1"`
	MissingListCap       int      `yaml:"missing_list_cap" mapstructure:"missing_list_cap" validate:"gte=1"`
	AnchorPhrases        []string `yaml:"anchor_phrases" mapstructure:"anchor_phrases"`
	BreadthMarkers       []string `yaml:"breadth_markers" mapstructure:"breadth_markers"`
	BreadthLimit         int      `yaml:"breadth_limit" mapstructure:"breadth_limit" validate:"gte=1"`
}

// GroundingConfig holds the advisory keyword overlap heuristic
type GroundingConfig struct {
	MinOverlap int `yaml:"min_overlap" mapstructure:"min_overlap" validate:"gte=1"`
}

// DecisionConfig holds the evaluator thresholds
type DecisionConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold" validate:"gte=0,lte=1"`
	ReviewConfidence    float64 `yaml:"review_confidence" mapstructure:"review_confidence" validate:"gte=0,lte=1"`
}

// ConcurrencyConfig controls worker pools
type ConcurrencyConfig struct {
	Workers     int `yaml:"workers" mapstructure:"workers" validate:"gte=1"`
	GateWorkers int `yaml:"gate_workers" mapstructure:"gate_workers" validate:"gte=1"`
}

// RateLimitingConfig limits calls per provider endpoint
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gt=0"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size" validate:"gte=1"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0,lte=10"`
}

// AuditConfig controls the decision provenance log
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	DBPath  string `yaml:"db_path" mapstructure:"db_path"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultAnchorPhrases are claim phrases that must be traceable to the cited text
var DefaultAnchorPhrases = []string{
	"prorated",
	"appendix a", "vacation schedule",
	"calendar year", "january 1", "december 31",
}

// DefaultBreadthMarkers are conjunctions that bundle several rules into one claim
var DefaultBreadthMarkers = []string{" and ", " including ", " as well as "}

// DefaultConfig returns the configuration used when nothing else is set
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			Timeout:   60,
			MaxTokens: 1500,
		},
		Retrieval: RetrievalConfig{
			Backend:        "local",
			DataDir:        "data/policies",
			TopK:           5,
			ChunkSize:      1400,
			ChunkOverlap:   80,
			WeaviateScheme: "http",
			WeaviateClass:  "PolicyChunk",
			EmbedModel:     "text-embedding-3-small",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".policygate/cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Gates: GateConfig{
			DenseNumberThreshold: 3,
			MissingListCap:       8,
			AnchorPhrases:        append([]string{}, DefaultAnchorPhrases...),
			BreadthMarkers:       append([]string{}, DefaultBreadthMarkers...),
			BreadthLimit:         2,
		},
		Grounding: GroundingConfig{
			MinOverlap: 2,
		},
		Decision: DecisionConfig{
			ConfidenceThreshold: 0.5,
			ReviewConfidence:    0.8,
		},
		Concurrency: ConcurrencyConfig{
			Workers:     4,
			GateWorkers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
			MaxRetries:        3,
		},
		Audit: AuditConfig{
			Enabled: false,
			DBPath:  ".policygate/audit.db",
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}

// Validate checks field ranges and cross-field requirements
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Retrieval.Backend == "weaviate" && c.Retrieval.WeaviateHost == "" {
		return fmt.Errorf("invalid config: retrieval.weaviate_host is required for the weaviate backend")
	}
	if c.Retrieval.Backend == "local" && c.Retrieval.DataDir == "" {
		return fmt.Errorf("invalid config: retrieval.data_dir is required for the local backend")
	}
	return nil
}
