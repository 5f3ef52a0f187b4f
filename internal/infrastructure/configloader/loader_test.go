package configloader

import (
	"os"
	"path/filepath"
	"testing"
)

const validConfig = `
server:
  port: "9090"
logging:
  level: debug
portfolioApi:
  baseURL: https://portfolio.example.com
quoteApi:
  baseURL: https://quotes.example.com
  slippagePercent: 0.5
chain:
  chainId: 8453
  rpcUrl: https://rpc.example.com
  routerAddress: "0x2222222222222222222222222222222222222222"
  bundlerRpcUrl: https://bundler.example.com
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
	}
	if cfg.QuoteAPI.SlippagePercent != 0.5 {
		t.Errorf("SlippagePercent = %v, want 0.5", cfg.QuoteAPI.SlippagePercent)
	}
	if cfg.Chain.ChainID != 8453 {
		t.Errorf("ChainID = %d, want 8453", cfg.Chain.ChainID)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.PortfolioAPI.CacheTTLSeconds != 30 {
		t.Errorf("CacheTTLSeconds = %d, want default 30", cfg.PortfolioAPI.CacheTTLSeconds)
	}
	if cfg.Submission.PollIntervalMillis != 2000 {
		t.Errorf("PollIntervalMillis = %d, want default 2000", cfg.Submission.PollIntervalMillis)
	}
	if cfg.QuoteAPI.RequestsPerSecond != 5 {
		t.Errorf("RequestsPerSecond = %v, want default 5", cfg.QuoteAPI.RequestsPerSecond)
	}
	if cfg.Chain.RequestTimeoutMillis != 10000 {
		t.Errorf("Chain.RequestTimeoutMillis = %d, want default 10000", cfg.Chain.RequestTimeoutMillis)
	}
}

func TestLoadMissingRequiredFields(t *testing.T) {
	if _, err := Load(writeConfig(t, "server:\n  port: \"9090\"\n")); err == nil {
		t.Error("expected error for config missing required fields, got nil")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected error for missing config file, got nil")
	}
}
