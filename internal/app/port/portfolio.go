package port

import (
	"context"

	"portfolio_rebalancer/internal/domain/entity"
)

// PortfolioDataProvider defines the interface for fetching a wallet's
// current token holdings with their USD valuations. Staleness and refresh
// policy are the caller's concern; implementations may cache snapshots.
type PortfolioDataProvider interface {
	GetPortfolioTokens(ctx context.Context, walletAddress string) ([]entity.PortfolioToken, error)
}
