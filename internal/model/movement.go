package model

import "github.com/google/uuid"

type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// StockMovement logs one applied change of a branch stock row.
type StockMovement struct {
	BaseModel
	BranchStockID  uuid.UUID    `gorm:"type:uuid;not null;index" json:"branch_stock_id"`
	BranchID       uuid.UUID    `gorm:"type:uuid;not null;index" json:"branch_id"`
	ProductID      uuid.UUID    `gorm:"type:uuid;not null" json:"product_id"`
	Product        Product      `json:"product"`
	Type           MovementType `gorm:"type:varchar(10);not null" json:"type"`
	Quantity       int          `gorm:"not null" json:"quantity"` // always > 0
	QuantityBefore int          `gorm:"not null" json:"quantity_before"`
	QuantityAfter  int          `gorm:"not null" json:"quantity_after"`
	RequestedDelta int          `json:"requested_delta"`
	Note           string       `json:"note"`
}
