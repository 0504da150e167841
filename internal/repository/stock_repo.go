package repository

import (
	"gochicken/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRepository interface {
	Create(stock *model.BranchStock) error
	FindByBranch(branchID uuid.UUID) ([]model.BranchStock, error)
	FindByID(id uuid.UUID) (*model.BranchStock, error)
	FindByBranchAndProduct(branchID, productID uuid.UUID) (*model.BranchStock, error)
	FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.BranchStock, error)
	UpdateQuantity(tx *gorm.DB, id uuid.UUID, quantity int, updatedBy string) error
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) Create(stock *model.BranchStock) error {
	return r.db.Create(stock).Error
}

// FindByBranch returns the branch list ordered by product name, then row id, so
// repeated fetches come back in the same order.
func (r *stockRepo) FindByBranch(branchID uuid.UUID) ([]model.BranchStock, error) {
	var stocks []model.BranchStock
	err := r.db.Joins("Product").
		Where("branch_stocks.branch_id = ?", branchID).
		Order(clause.OrderByColumn{Column: clause.Column{Table: "Product", Name: "name"}}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: "branch_stocks", Name: "id"}}).
		Find(&stocks).Error
	return stocks, err
}

func (r *stockRepo) FindByID(id uuid.UUID) (*model.BranchStock, error) {
	var stock model.BranchStock
	if err := r.db.Joins("Product").First(&stock, "branch_stocks.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepo) FindByBranchAndProduct(branchID, productID uuid.UUID) (*model.BranchStock, error) {
	var stock model.BranchStock
	err := r.db.Where("branch_id = ? AND product_id = ?", branchID, productID).First(&stock).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

// FindForUpdate locks the row (SELECT ... FOR UPDATE) inside tx.
func (r *stockRepo) FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.BranchStock, error) {
	var stock model.BranchStock
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Product").
		First(&stock, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

// UpdateQuantity menerima *gorm.DB (tx) agar bisa berjalan dalam transaksi
func (r *stockRepo) UpdateQuantity(tx *gorm.DB, id uuid.UUID, quantity int, updatedBy string) error {
	return tx.Model(&model.BranchStock{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_by": updatedBy,
		}).Error
}
