package portfolioapi

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"portfolio_rebalancer/internal/app/port"
	"portfolio_rebalancer/internal/domain/entity"
	"portfolio_rebalancer/internal/pkg/metrics"

	jsoniter "github.com/json-iterator/go"
	gocache "github.com/patrickmn/go-cache"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// balancesResponse mirrors the portfolio indexer's wallet balances payload.
type balancesResponse struct {
	Tokens []struct {
		Name     string  `json:"name"`
		Address  string  `json:"address"`
		Symbol   string  `json:"symbol"`
		Decimals uint8   `json:"decimals"`
		Amount   float64 `json:"amount"`
		LogoURL  string  `json:"logoUrl"`
	} `json:"tokens"`
}

// pricesResponse mirrors the indexer's batch price payload: lowercase token
// address to USD price.
type pricesResponse struct {
	Prices map[string]float64 `json:"prices"`
}

// Client implements port.PortfolioDataProvider against the portfolio indexer
// HTTP API. Balance and price lookups are separate endpoints; prices are
// fetched in address batches with bounded concurrency, and assembled
// snapshots are cached with a short TTL.
type Client struct {
	client         *fasthttp.Client
	baseURL        string
	timeout        time.Duration
	logger         *zap.Logger
	cache          *gocache.Cache
	priceBatchSize int
	maxConcurrent  int
}

// NewClient creates a portfolio API client.
func NewClient(
	baseURL string,
	timeout time.Duration,
	cacheTTL time.Duration,
	priceBatchSize int,
	maxConcurrent int,
	logger *zap.Logger,
) port.PortfolioDataProvider {
	if priceBatchSize <= 0 {
		priceBatchSize = 30
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Client{
		client:         &fasthttp.Client{},
		baseURL:        strings.TrimRight(baseURL, "/"),
		timeout:        timeout,
		logger:         logger.Named("PortfolioAPIClient"),
		cache:          gocache.New(cacheTTL, 2*cacheTTL),
		priceBatchSize: priceBatchSize,
		maxConcurrent:  maxConcurrent,
	}
}

// GetPortfolioTokens implements port.PortfolioDataProvider.
func (c *Client) GetPortfolioTokens(ctx context.Context, walletAddress string) ([]entity.PortfolioToken, error) {
	cacheKey := strings.ToLower(walletAddress)
	if cached, found := c.cache.Get(cacheKey); found {
		tokens := cached.([]entity.PortfolioToken)
		c.logger.Debug("Returning cached portfolio snapshot",
			zap.String("wallet", walletAddress), zap.Int("tokenCount", len(tokens)))
		out := make([]entity.PortfolioToken, len(tokens))
		copy(out, tokens)
		return out, nil
	}

	requestURL := fmt.Sprintf("%s/v1/wallets/%s/balances", c.baseURL, walletAddress)
	body, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var balances balancesResponse
	if err := json.Unmarshal(body, &balances); err != nil {
		c.logger.Error("Failed to unmarshal balances response",
			zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal balances response from %s: %w", requestURL, err)
	}

	addresses := make([]string, 0, len(balances.Tokens))
	for _, t := range balances.Tokens {
		addresses = append(addresses, strings.ToLower(t.Address))
	}

	prices, err := c.fetchPrices(ctx, addresses)
	if err != nil {
		return nil, err
	}

	tokens := make([]entity.PortfolioToken, 0, len(balances.Tokens))
	for _, t := range balances.Tokens {
		price, found := prices[strings.ToLower(t.Address)]
		if !found {
			c.logger.Warn("No price for token, valuing holding at zero",
				zap.String("symbol", t.Symbol), zap.String("address", t.Address))
		}
		tokens = append(tokens, entity.PortfolioToken{
			Name:     t.Name,
			Address:  t.Address,
			Symbol:   t.Symbol,
			Decimals: t.Decimals,
			Amount:   t.Amount,
			ValueUSD: t.Amount * price,
			LogoURL:  t.LogoURL,
		})
	}

	c.cache.Set(cacheKey, tokens, gocache.DefaultExpiration)
	c.logger.Debug("Fetched portfolio snapshot",
		zap.String("wallet", walletAddress), zap.Int("tokenCount", len(tokens)))

	out := make([]entity.PortfolioToken, len(tokens))
	copy(out, tokens)
	return out, nil
}

// fetchPrices retrieves USD prices for the given addresses in batches, with
// bounded concurrent fan-out against the indexer.
func (c *Client) fetchPrices(ctx context.Context, addresses []string) (map[string]float64, error) {
	prices := make(map[string]float64, len(addresses))
	if len(addresses) == 0 {
		return prices, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)

	for start := 0; start < len(addresses); start += c.priceBatchSize {
		end := start + c.priceBatchSize
		if end > len(addresses) {
			end = len(addresses)
		}
		batch := addresses[start:end]

		g.Go(func() error {
			requestURL := fmt.Sprintf("%s/v1/tokens/prices?addresses=%s", c.baseURL, strings.Join(batch, ","))
			body, err := c.get(gctx, requestURL)
			if err != nil {
				return err
			}
			var resp pricesResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to unmarshal prices response from %s: %w", requestURL, err)
			}
			mu.Lock()
			for addr, price := range resp.Prices {
				prices[strings.ToLower(addr)] = price
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return prices, nil
}

func (c *Client) get(ctx context.Context, requestURL string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentType("application/json")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			metrics.CollaboratorErrors.WithLabelValues("portfolio").Inc()
			c.logger.Error("Portfolio API request failed", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			metrics.CollaboratorErrors.WithLabelValues("portfolio").Inc()
			c.logger.Error("Portfolio API request failed", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		metrics.CollaboratorErrors.WithLabelValues("portfolio").Inc()
		c.logger.Error("Portfolio API returned non-OK status",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", resp.Body()))
		return nil, fmt.Errorf("portfolio API request to %s failed with status %d", requestURL, resp.StatusCode())
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
