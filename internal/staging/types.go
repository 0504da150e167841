package staging

import (
	"context"

	"github.com/google/uuid"
)

// StockRow is one product's stock at one branch, as last fetched from the backend.
type StockRow struct {
	ID          uuid.UUID `json:"id"`
	BranchID    uuid.UUID `json:"branch_id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Category    string    `json:"category"`
	Image       string    `json:"image"`
	Price       int64     `json:"price"`
	Quantity    int       `json:"quantity"`
}

// StockUpdate is the payload of a single persistence request.
// Quantity is the absolute target; Delta is informational for the movement log.
type StockUpdate struct {
	ID       uuid.UUID `json:"-"`
	Quantity int       `json:"quantity"`
	Delta    int       `json:"delta"`
}

// Change is one line of the review projection.
type Change struct {
	Row         StockRow
	Delta       int
	NewQuantity int
}

// Backend is the persistence collaborator of a Session.
type Backend interface {
	FetchStocks(ctx context.Context, branchID uuid.UUID) ([]StockRow, error)
	UpdateStock(ctx context.Context, u StockUpdate) error
}
