package restapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"portfolio_rebalancer/internal/app/port"
	"portfolio_rebalancer/internal/app/service"
	"portfolio_rebalancer/internal/domain/entity"
	"portfolio_rebalancer/internal/infrastructure/configloader"

	"github.com/gin-gonic/gin"
)

// TargetAllocationRequest is one desired portfolio weight in a request body.
type TargetAllocationRequest struct {
	Address string  `json:"address" binding:"required"`
	Percent float64 `json:"percent"`
}

// PreviewRequest is the body of POST /api/v1/rebalance/preview.
type PreviewRequest struct {
	WalletAddress string                    `json:"walletAddress" binding:"required"`
	Targets       []TargetAllocationRequest `json:"targets" binding:"required"`
}

// ExecuteRequest is the body of POST /api/v1/rebalance/execute. Connection
// names the wallet-connection context the caller is operating under and
// decides which submission backend handles the batch.
type ExecuteRequest struct {
	WalletAddress string                    `json:"walletAddress" binding:"required"`
	Targets       []TargetAllocationRequest `json:"targets" binding:"required"`
	Connection    string                    `json:"connection" binding:"required"`
}

// APIPreviewResponse wraps a computed rebalance plan for the preview endpoint.
type APIPreviewResponse struct {
	Data struct {
		Plan entity.RebalancePlan `json:"plan"`
	} `json:"data"`
	ServiceErrors []entity.RebalanceError `json:"service_errors,omitempty"`
	StatusMessage string                  `json:"status_message"`
}

// APIExecuteResponse wraps a submission result for the execute endpoint.
type APIExecuteResponse struct {
	Data struct {
		Result entity.RebalanceResult `json:"result"`
	} `json:"data"`
	StatusMessage string `json:"status_message"`
}

// APIErrorResponse is the body returned when a request cannot be served.
type APIErrorResponse struct {
	Error string `json:"error"`
}

// RebalanceHandler handles the rebalancing HTTP endpoints.
type RebalanceHandler struct {
	portfolioProvider port.PortfolioDataProvider
	deltaCalculator   *service.DeltaCalculator
	rebalanceService  port.RebalanceService
	clientFactory     port.TransactionClientFactory
	cfg               *configloader.Config
	logger            port.Logger
}

// NewRebalanceHandler creates a new RebalanceHandler.
func NewRebalanceHandler(
	portfolioProvider port.PortfolioDataProvider,
	deltaCalculator *service.DeltaCalculator,
	rebalanceService port.RebalanceService,
	clientFactory port.TransactionClientFactory,
	cfg *configloader.Config,
	logger port.Logger,
) *RebalanceHandler {
	return &RebalanceHandler{
		portfolioProvider: portfolioProvider,
		deltaCalculator:   deltaCalculator,
		rebalanceService:  rebalanceService,
		clientFactory:     clientFactory,
		cfg:               cfg,
		logger:            logger,
	}
}

// PreviewRebalanceHandler handles POST /api/v1/rebalance/preview. It fetches
// the wallet's current holdings, applies the requested target weights and
// returns the resulting plan without touching the chain.
func (h *RebalanceHandler) PreviewRebalanceHandler(c *gin.Context) {
	ctx := c.Request.Context()

	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	tokens, err := h.tokensWithTargets(ctx, req.WalletAddress, req.Targets)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}

	plan, serviceErrors := h.rebalanceService.PreviewRebalance(tokens)

	response := APIPreviewResponse{ServiceErrors: serviceErrors}
	response.Data.Plan = plan

	switch {
	case len(plan.Instructions) == 0 && len(serviceErrors) == 0:
		response.StatusMessage = "Portfolio already matches the target allocation."
	case len(serviceErrors) > 0:
		response.StatusMessage = "Plan computed. Some tokens could not be processed."
	default:
		response.StatusMessage = "Plan computed successfully."
	}

	c.JSON(http.StatusOK, response)
}

// ExecuteRebalanceHandler handles POST /api/v1/rebalance/execute. The full
// pipeline runs and the generated batch is submitted through the backend
// matching the declared wallet connection; every submission failure is
// reported inside the result rather than as a transport error.
func (h *RebalanceHandler) ExecuteRebalanceHandler(c *gin.Context) {
	ctx := c.Request.Context()

	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	client, err := h.clientFactory.ClientFor(port.ConnectionKind(req.Connection), req.WalletAddress)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: err.Error()})
		return
	}

	tokens, err := h.tokensWithTargets(ctx, req.WalletAddress, req.Targets)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}

	result := h.rebalanceService.ExecuteRebalance(ctx, tokens, req.WalletAddress, client)

	response := APIExecuteResponse{}
	response.Data.Result = result
	switch {
	case result.Success && result.TxCount == 0:
		response.StatusMessage = "Portfolio already matches the target allocation. Nothing was submitted."
	case result.Success:
		response.StatusMessage = "Rebalance batch submitted successfully."
	default:
		response.StatusMessage = "Rebalance failed. See result for details."
	}

	c.JSON(http.StatusOK, response)
}

// tokensWithTargets fetches the wallet's holdings and attaches the requested
// target values. An allocationError marks failures caused by the request
// rather than by the upstream data source.
func (h *RebalanceHandler) tokensWithTargets(
	ctx context.Context,
	walletAddress string,
	targets []TargetAllocationRequest,
) ([]entity.PortfolioTokenWithTarget, error) {
	holdings, err := h.portfolioProvider.GetPortfolioTokens(ctx, walletAddress)
	if err != nil {
		h.logger.Error("Failed to fetch portfolio for rebalance request",
			"wallet", walletAddress, "error", err)
		return nil, fmt.Errorf("failed to fetch portfolio: %w", err)
	}

	allocations := make([]entity.TargetAllocation, 0, len(targets))
	for _, t := range targets {
		allocations = append(allocations, entity.TargetAllocation{Address: t.Address, Percent: t.Percent})
	}

	tokens, err := h.deltaCalculator.ApplyTargetAllocations(holdings, allocations)
	if err != nil {
		return nil, &allocationError{err: err}
	}
	return tokens, nil
}

type allocationError struct {
	err error
}

func (e *allocationError) Error() string { return e.err.Error() }
func (e *allocationError) Unwrap() error { return e.err }

func (h *RebalanceHandler) respondPipelineError(c *gin.Context, err error) {
	var allocErr *allocationError
	if errors.As(err, &allocErr) {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusBadGateway, APIErrorResponse{Error: err.Error()})
}
