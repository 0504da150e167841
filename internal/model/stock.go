package model

import "github.com/google/uuid"

// BranchStock is the quantity on hand of one product at one branch.
type BranchStock struct {
	BaseModel
	BranchID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_branch_product" json:"branch_id"`
	Branch    *Branch   `json:"branch,omitempty"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_branch_product" json:"product_id"`
	Product   Product   `json:"product"`
	Quantity  int       `gorm:"not null;default:0" json:"quantity"`
}

// StockRowResponse is the flat shape returned by the stock list endpoint.
type StockRowResponse struct {
	ID          uuid.UUID `json:"id"`
	BranchID    uuid.UUID `json:"branch_id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	SKU         string    `json:"sku"`
	Category    string    `json:"category"`
	Image       string    `json:"image"`
	Unit        string    `json:"unit"`
	Price       int64     `json:"price"`
	Quantity    int       `json:"quantity"`
}

// ToResponse expects Product to be preloaded.
func (s *BranchStock) ToResponse() StockRowResponse {
	return StockRowResponse{
		ID:          s.ID,
		BranchID:    s.BranchID,
		ProductID:   s.ProductID,
		ProductName: s.Product.Name,
		SKU:         s.Product.SKU,
		Category:    s.Product.Category,
		Image:       s.Product.Image,
		Unit:        s.Product.Unit,
		Price:       s.Product.Price,
		Quantity:    s.Quantity,
	}
}

// UpdateStockRequest sets an absolute quantity, so re-sending it is harmless.
// Delta is what the client staged; it is logged with the movement, never applied.
type UpdateStockRequest struct {
	Quantity *int   `json:"quantity" validate:"required,gte=0"`
	Delta    int    `json:"delta"`
	Note     string `json:"note" validate:"max=255"`
}

// AssignStockRequest puts a product on a branch's stock list.
type AssignStockRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"gte=0"`
}
