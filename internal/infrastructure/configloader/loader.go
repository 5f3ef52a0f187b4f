package configloader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string `yaml:"port"`
	ReadTimeoutSeconds int    `yaml:"readTimeoutSeconds"`
	WriteTimeoutSecond int    `yaml:"writeTimeoutSeconds"`
	IdleTimeoutSeconds int    `yaml:"idleTimeoutSeconds"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// PortfolioAPIConfig holds settings for the portfolio-data collaborator.
type PortfolioAPIConfig struct {
	BaseURL               string `yaml:"baseURL"`
	RequestTimeoutMillis  int    `yaml:"requestTimeoutMillis"`
	CacheTTLSeconds       int    `yaml:"cacheTTLSeconds"`
	PriceBatchSize        int    `yaml:"priceBatchSize"`
	MaxConcurrentRequests int    `yaml:"maxConcurrentRequests"`
}

// QuoteAPIConfig holds settings for the swap routing/quoting collaborator.
type QuoteAPIConfig struct {
	BaseURL              string  `yaml:"baseURL"`
	RequestTimeoutMillis int     `yaml:"requestTimeoutMillis"`
	SlippagePercent      float64 `yaml:"slippagePercent"`
	RequestsPerSecond    float64 `yaml:"requestsPerSecond"`
}

// ChainConfig holds the chain and wallet-transport endpoints.
type ChainConfig struct {
	ChainID              uint64 `yaml:"chainId"`
	RPCURL               string `yaml:"rpcUrl"`
	RouterAddress        string `yaml:"routerAddress"`
	BundlerRPCURL        string `yaml:"bundlerRpcUrl"`
	WalletRPCURL         string `yaml:"walletRpcUrl"`
	RequestTimeoutMillis int    `yaml:"requestTimeoutMillis"`
}

// SubmissionConfig holds batch submission behavior settings.
type SubmissionConfig struct {
	PollIntervalMillis int `yaml:"pollIntervalMillis"`
	WaitTimeoutSeconds int `yaml:"waitTimeoutSeconds"`
}

// Config is the root application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Logging      LoggingConfig      `yaml:"logging"`
	PortfolioAPI PortfolioAPIConfig `yaml:"portfolioApi"`
	QuoteAPI     QuoteAPIConfig     `yaml:"quoteApi"`
	Chain        ChainConfig        `yaml:"chain"`
	Submission   SubmissionConfig   `yaml:"submission"`
}

// Load reads and validates the YAML configuration at the given path,
// applying defaults for optional settings.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSecond == 0 {
		cfg.Server.WriteTimeoutSecond = 30
	}
	if cfg.Server.IdleTimeoutSeconds == 0 {
		cfg.Server.IdleTimeoutSeconds = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.PortfolioAPI.RequestTimeoutMillis == 0 {
		cfg.PortfolioAPI.RequestTimeoutMillis = 10000
	}
	if cfg.PortfolioAPI.CacheTTLSeconds == 0 {
		cfg.PortfolioAPI.CacheTTLSeconds = 30
	}
	if cfg.PortfolioAPI.PriceBatchSize == 0 {
		cfg.PortfolioAPI.PriceBatchSize = 30
	}
	if cfg.PortfolioAPI.MaxConcurrentRequests == 0 {
		cfg.PortfolioAPI.MaxConcurrentRequests = 4
	}
	if cfg.QuoteAPI.RequestTimeoutMillis == 0 {
		cfg.QuoteAPI.RequestTimeoutMillis = 15000
	}
	if cfg.Chain.RequestTimeoutMillis == 0 {
		cfg.Chain.RequestTimeoutMillis = 10000
	}
	if cfg.QuoteAPI.SlippagePercent == 0 {
		cfg.QuoteAPI.SlippagePercent = 1.0
	}
	if cfg.QuoteAPI.RequestsPerSecond == 0 {
		cfg.QuoteAPI.RequestsPerSecond = 5
	}
	if cfg.Submission.PollIntervalMillis == 0 {
		cfg.Submission.PollIntervalMillis = 2000
	}
	if cfg.Submission.WaitTimeoutSeconds == 0 {
		cfg.Submission.WaitTimeoutSeconds = 180
	}
}

func validate(cfg *Config) error {
	if cfg.PortfolioAPI.BaseURL == "" {
		return fmt.Errorf("portfolioApi.baseURL is required")
	}
	if cfg.QuoteAPI.BaseURL == "" {
		return fmt.Errorf("quoteApi.baseURL is required")
	}
	if cfg.Chain.ChainID == 0 {
		return fmt.Errorf("chain.chainId is required")
	}
	if cfg.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpcUrl is required")
	}
	if cfg.Chain.RouterAddress == "" {
		return fmt.Errorf("chain.routerAddress is required")
	}
	if cfg.QuoteAPI.SlippagePercent < 0 || cfg.QuoteAPI.SlippagePercent > 50 {
		return fmt.Errorf("quoteApi.slippagePercent must be within [0, 50], got %v", cfg.QuoteAPI.SlippagePercent)
	}
	return nil
}
