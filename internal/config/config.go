package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	SPAPI     SPAPIConfig     `yaml:"spapi" mapstructure:"spapi"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SPAPIConfig holds Selling Partner API credentials and endpoints.
type SPAPIConfig struct {
	RefreshToken  string `yaml:"refresh_token" mapstructure:"refresh_token"`
	ClientID      string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret  string `yaml:"client_secret" mapstructure:"client_secret"`
	TokenURL      string `yaml:"token_url" mapstructure:"token_url"`
	Endpoint      string `yaml:"endpoint" mapstructure:"endpoint"`
	MarketplaceID string `yaml:"marketplace_id" mapstructure:"marketplace_id"`
}

// LLMConfig selects the language model provider: "openai" or "anthropic".
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SearchConfig configures catalog searching and input columns.
type SearchConfig struct {
	CallsPerSecond float64 `yaml:"calls_per_second" mapstructure:"calls_per_second"`
	MaxCandidates  int     `yaml:"max_candidates" mapstructure:"max_candidates"`
	ProductColumn  string  `yaml:"product_column" mapstructure:"product_column"`
	CostColumn     string  `yaml:"cost_column" mapstructure:"cost_column"`
	CodeColumn     string  `yaml:"code_column" mapstructure:"code_column"`
}

// OutputConfig says where result tables are written.
type OutputConfig struct {
	Dir              string `yaml:"dir" mapstructure:"dir"`
	IntermediateFile string `yaml:"intermediate_file" mapstructure:"intermediate_file"`
	FinalFile        string `yaml:"final_file" mapstructure:"final_file"`
}

// ServerConfig configures the upload server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ASINMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default to empty so AutomaticEnv can see them.
	v.SetDefault("spapi.refresh_token", "")
	v.SetDefault("spapi.client_id", "")
	v.SetDefault("spapi.client_secret", "")
	v.SetDefault("spapi.token_url", "https://api.amazon.com/auth/o2/token")
	v.SetDefault("spapi.endpoint", "https://sellingpartnerapi-na.amazon.com")
	v.SetDefault("spapi.marketplace_id", "ATVPDKIKX0DER")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("openai.key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4-turbo-preview")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 256)
	v.SetDefault("search.calls_per_second", 1.0)
	v.SetDefault("search.max_candidates", 3)
	v.SetDefault("search.product_column", "product")
	v.SetDefault("search.cost_column", "cost")
	v.SetDefault("search.code_column", "UPC/EAN")
	v.SetDefault("output.dir", "data")
	v.SetDefault("output.intermediate_file", "products_with_amazon_searches.csv")
	v.SetDefault("output.final_file", "products_matched.csv")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings a command needs are present. Mode is
// "run" or "serve"; both need catalog and model credentials, and serve also
// needs a usable port.
func (c *Config) Validate(mode string) error {
	var errs []string
	need := func(val, key string) {
		if val == "" {
			errs = append(errs, fmt.Sprintf("%s is required", key))
		}
	}

	need(c.SPAPI.RefreshToken, "spapi.refresh_token")
	need(c.SPAPI.ClientID, "spapi.client_id")
	need(c.SPAPI.ClientSecret, "spapi.client_secret")

	switch c.LLM.Provider {
	case "openai", "":
		need(c.OpenAI.Key, "openai.key")
	case "anthropic":
		need(c.Anthropic.Key, "anthropic.key")
	default:
		errs = append(errs, fmt.Sprintf("llm.provider %q is not supported (openai, anthropic)", c.LLM.Provider))
	}

	if c.Search.MaxCandidates < 1 {
		errs = append(errs, "search.max_candidates must be at least 1")
	}
	if c.Search.CallsPerSecond < 0 {
		errs = append(errs, "search.calls_per_second must not be negative")
	}

	if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
