package repository

import (
	"time"

	"gochicken/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementRepository interface {
	Create(tx *gorm.DB, movement *model.StockMovement) error
	FindByBranch(branchID uuid.UUID, startDate, endDate time.Time) ([]model.StockMovement, error)
	GetStockMovement(branchID uuid.UUID, startDate, endDate time.Time) ([]StockMovementData, error)
	GetBranchStats(branchID uuid.UUID, lowStockThreshold int) (*BranchStats, error)
}

// StockMovementData untuk chart data
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// BranchStats untuk overview stats per cabang
type BranchStats struct {
	StockRows      int64 `json:"stock_rows"`
	LowStockCount  int64 `json:"low_stock_count"`
	TotalQuantity  int64 `json:"total_quantity"`
	TotalValuation int64 `json:"total_valuation"`
}

type movementRepo struct {
	db *gorm.DB
}

func NewMovementRepo(db *gorm.DB) MovementRepository {
	return &movementRepo{db}
}

func (r *movementRepo) Create(tx *gorm.DB, movement *model.StockMovement) error {
	return tx.Create(movement).Error
}

func (r *movementRepo) FindByBranch(branchID uuid.UUID, startDate, endDate time.Time) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := r.db.Preload("Product").
		Where("branch_id = ? AND created_at BETWEEN ? AND ?", branchID, startDate, endDate).
		Order("created_at DESC").
		Find(&movements).Error
	return movements, err
}

// GetStockMovement aggregates per day in Go so the same code serves postgres and sqlite.
func (r *movementRepo) GetStockMovement(branchID uuid.UUID, startDate, endDate time.Time) ([]StockMovementData, error) {
	var movements []model.StockMovement
	err := r.db.Select("type", "quantity", "created_at").
		Where("branch_id = ? AND created_at BETWEEN ? AND ?", branchID, startDate, endDate).
		Order("created_at ASC").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}

	results := []StockMovementData{}
	for _, m := range movements {
		date := m.CreatedAt.Format("2006-01-02")
		if len(results) == 0 || results[len(results)-1].Date != date {
			results = append(results, StockMovementData{Date: date})
		}
		day := &results[len(results)-1]
		switch m.Type {
		case model.MovementIn:
			day.Inbound += m.Quantity
		case model.MovementOut:
			day.Outbound += m.Quantity
		}
	}
	return results, nil
}

func (r *movementRepo) GetBranchStats(branchID uuid.UUID, lowStockThreshold int) (*BranchStats, error) {
	var stats BranchStats

	stocks := func() *gorm.DB {
		return r.db.Model(&model.BranchStock{}).Where("branch_id = ?", branchID)
	}

	if err := stocks().Count(&stats.StockRows).Error; err != nil {
		return nil, err
	}
	if err := stocks().Where("quantity < ?", lowStockThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := stocks().Select("COALESCE(SUM(quantity), 0)").Scan(&stats.TotalQuantity).Error; err != nil {
		return nil, err
	}

	// Total Valuation (SUM of quantity * price)
	err := r.db.Table("branch_stocks").
		Joins("JOIN products ON products.id = branch_stocks.product_id").
		Where("branch_stocks.branch_id = ? AND branch_stocks.deleted_at IS NULL", branchID).
		Select("COALESCE(SUM(branch_stocks.quantity * products.price), 0)").
		Scan(&stats.TotalValuation).Error
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
