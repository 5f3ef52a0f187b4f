package quoteapi

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"portfolio_rebalancer/internal/app/port"
	"portfolio_rebalancer/internal/domain/entity"
	"portfolio_rebalancer/internal/pkg/metrics"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// quoteResponse mirrors the swap aggregator's quote payload.
type quoteResponse struct {
	To        string `json:"to"`
	Data      string `json:"data"`
	Value     string `json:"value"`
	BuyAmount string `json:"buyAmount"`
}

// Client implements port.SwapQuoteProvider against the swap aggregator HTTP
// API. Requests are rate limited to stay inside the collaborator's quota;
// partial fills are always disabled, so a quoted swap either fully executes
// or the instruction fails on chain.
type Client struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
	limiter *rate.Limiter
}

// NewClient creates a swap quote client.
func NewClient(baseURL string, timeout time.Duration, requestsPerSecond float64, logger *zap.Logger) port.SwapQuoteProvider {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &Client{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("SwapQuoteClient"),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// GetSwapTransaction implements port.SwapQuoteProvider.
func (c *Client) GetSwapTransaction(ctx context.Context, req entity.SwapQuoteRequest) (*entity.Transaction, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait aborted: %w", err)
	}

	query := url.Values{}
	query.Set("sellToken", req.FromToken)
	query.Set("buyToken", req.ToToken)
	query.Set("sellAmount", req.AmountInWei)
	query.Set("takerAddress", req.WalletAddress)
	query.Set("slippagePercentage", fmt.Sprintf("%g", req.SlippagePercent/100))
	query.Set("disablePartialFill", "true")
	requestURL := fmt.Sprintf("%s/swap/v1/quote?%s", c.baseURL, query.Encode())

	c.logger.Debug("Requesting swap quote",
		zap.String("sellToken", req.FromToken),
		zap.String("buyToken", req.ToToken),
		zap.String("sellAmount", req.AmountInWei))

	httpReq := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(httpReq)
	httpReq.SetRequestURI(requestURL)
	httpReq.Header.SetMethod(fasthttp.MethodGet)
	httpReq.Header.SetContentType("application/json")

	httpResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(httpResp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(httpReq, httpResp, deadline); err != nil {
			metrics.CollaboratorErrors.WithLabelValues("quote").Inc()
			c.logger.Error("Swap quote request failed", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute quote request: %w", err)
		}
	} else {
		if err := c.client.DoTimeout(httpReq, httpResp, c.timeout); err != nil {
			metrics.CollaboratorErrors.WithLabelValues("quote").Inc()
			c.logger.Error("Swap quote request failed", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute quote request: %w", err)
		}
	}

	if httpResp.StatusCode() != fasthttp.StatusOK {
		metrics.CollaboratorErrors.WithLabelValues("quote").Inc()
		c.logger.Error("Swap quote API returned non-OK status",
			zap.Int("statusCode", httpResp.StatusCode()),
			zap.ByteString("responseBody", httpResp.Body()))
		return nil, fmt.Errorf("quote request failed with status %d: %s", httpResp.StatusCode(), httpResp.Body())
	}

	var quote quoteResponse
	if err := json.Unmarshal(httpResp.Body(), &quote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote response: %w", err)
	}
	if quote.To == "" || quote.Data == "" {
		return nil, fmt.Errorf("quote response missing router target or call data")
	}

	value := big.NewInt(0)
	if quote.Value != "" {
		parsed, ok := new(big.Int).SetString(quote.Value, 10)
		if !ok {
			return nil, fmt.Errorf("quote response carries malformed value %q", quote.Value)
		}
		value = parsed
	}

	return &entity.Transaction{
		To:          quote.To,
		Data:        quote.Data,
		Value:       value,
		Kind:        entity.TxKindSwap,
		ExpectedOut: quote.BuyAmount,
	}, nil
}
