// Package config loads the suite configuration from YAML or JSON5 files with
// environment-variable overrides. Configuration is an explicitly constructed
// object injected into the flow; nothing here is cached at package level, and
// re-reading is an explicit Reload call by the owner.
package config

// Config is the root configuration for a suite run.
type Config struct {
	LLM            LLMConfig            `yaml:"llm"`
	Target         TargetConfig         `yaml:"target"`
	RAG            RAGConfig            `yaml:"rag"`
	Evaluation     EvaluationConfig     `yaml:"evaluation"`
	TestGeneration TestGenerationConfig `yaml:"test_generation"`
	Logging        LoggingConfig        `yaml:"logging"`
	Tracing        TracingConfig        `yaml:"tracing"`
}

// LLMConfig selects the model used by the generation collaborators.
type LLMConfig struct {
	// Provider is "openai" or "anthropic".
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	// APIKeyEnv names the environment variable holding the key. Credentials
	// stay out of config files.
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
}

// TargetConfig describes the agent under test.
type TargetConfig struct {
	// Mode is "api" (remote kickoff/poll) or "local" (subprocess).
	Mode                   string `yaml:"mode"`
	APIURL                 string `yaml:"api_url"`
	APITokenEnv            string `yaml:"api_token_env"`
	APITimeoutSeconds      int    `yaml:"api_timeout_seconds"`
	APIPollIntervalSeconds int    `yaml:"api_poll_interval_seconds"`
	CrewPath               string `yaml:"crew_path"`
	// CrewEntrypoint is the command run inside CrewPath for local mode.
	CrewEntrypoint string `yaml:"crew_entrypoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RAGConfig selects and configures the knowledge backend to probe.
type RAGConfig struct {
	// Backend is "ragengine" or "qdrant".
	Backend   string          `yaml:"backend"`
	RAGEngine RAGEngineConfig `yaml:"ragengine"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
}

// RAGEngineConfig configures the MCP-over-SSE backend variant.
type RAGEngineConfig struct {
	MCPURL     string `yaml:"mcp_url"`
	TokenEnv   string `yaml:"token_env"`
	Corpus     string `yaml:"corpus"`
	MaxResults int    `yaml:"max_results"`
}

// QdrantConfig configures the vector-search HTTP backend variant.
type QdrantConfig struct {
	URL            string `yaml:"url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	Collection     string `yaml:"collection"`
	EmbeddingModel string `yaml:"embedding_model"`
	MaxResults     int    `yaml:"max_results"`
}

// EvaluationConfig configures the LLM-as-judge scorer.
type EvaluationConfig struct {
	JudgeModel    string  `yaml:"judge_model"`
	PassThreshold float64 `yaml:"pass_threshold"`
	Temperature   float32 `yaml:"temperature"`
}

// TestGenerationConfig configures the test-generation phase.
type TestGenerationConfig struct {
	NumTests   int      `yaml:"num_tests"`
	Categories []string `yaml:"categories"`
	MaxRetries int      `yaml:"max_retries"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig configures OTLP trace export. Empty endpoint disables tracing.
type TracingConfig struct {
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
	Insecure     bool    `yaml:"insecure"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.APIKeyEnv == "" {
		switch c.LLM.Provider {
		case "anthropic":
			c.LLM.APIKeyEnv = "ANTHROPIC_API_KEY"
		default:
			c.LLM.APIKeyEnv = "OPENAI_API_KEY"
		}
	}
	if c.Target.Mode == "" {
		c.Target.Mode = "api"
	}
	if c.Target.APITokenEnv == "" {
		c.Target.APITokenEnv = "TARGET_API_TOKEN"
	}
	if c.Target.APITimeoutSeconds <= 0 {
		c.Target.APITimeoutSeconds = 300
	}
	if c.Target.APIPollIntervalSeconds <= 0 {
		c.Target.APIPollIntervalSeconds = 5
	}
	if c.Target.TimeoutSeconds <= 0 {
		c.Target.TimeoutSeconds = 180
	}
	if c.RAG.Backend == "" {
		c.RAG.Backend = "ragengine"
	}
	if c.RAG.RAGEngine.TokenEnv == "" {
		c.RAG.RAGEngine.TokenEnv = "PG_RAG_TOKEN"
	}
	if c.RAG.RAGEngine.MaxResults <= 0 {
		c.RAG.RAGEngine.MaxResults = 10
	}
	if c.RAG.Qdrant.APIKeyEnv == "" {
		c.RAG.Qdrant.APIKeyEnv = "QDRANT_API_KEY"
	}
	if c.RAG.Qdrant.EmbeddingModel == "" {
		c.RAG.Qdrant.EmbeddingModel = "text-embedding-3-small"
	}
	if c.RAG.Qdrant.MaxResults <= 0 {
		c.RAG.Qdrant.MaxResults = 10
	}
	if c.Evaluation.PassThreshold <= 0 {
		c.Evaluation.PassThreshold = 0.7
	}
	if c.Evaluation.Temperature <= 0 {
		c.Evaluation.Temperature = 0.1
	}
	if c.TestGeneration.NumTests <= 0 {
		c.TestGeneration.NumTests = 20
	}
	if len(c.TestGeneration.Categories) == 0 {
		c.TestGeneration.Categories = []string{"factual", "reasoning", "edge_case", "out_of_scope", "ambiguous"}
	}
	if c.TestGeneration.MaxRetries <= 0 {
		c.TestGeneration.MaxRetries = 2
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Tracing.SamplingRate <= 0 {
		c.Tracing.SamplingRate = 1.0
	}
}
