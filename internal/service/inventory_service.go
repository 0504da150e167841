package service

import (
	"errors"
	"fmt"
	"time"

	"gochicken/internal/model"
	"gochicken/internal/repository"
	"gochicken/internal/ws"
	"gochicken/pkg/validator"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrBranchNotFound  = errors.New("branch not found")
	ErrProductNotFound = errors.New("product not found")
	ErrStockNotFound   = errors.New("stock not found")
	ErrDuplicateSKU    = errors.New("SKU already exists")
	ErrDuplicateBranch = errors.New("branch code already exists")
	ErrDuplicateStock  = errors.New("product is already on the branch stock list")
)

type InventoryService interface {
	CreateBranch(req *model.Branch, operator string) error
	GetAllBranches() ([]model.Branch, error)
	CreateProduct(req *model.Product, operator string) error
	GetAllProducts() ([]model.Product, error)
	AssignStock(branchID uuid.UUID, req *model.AssignStockRequest, operator string) (*model.StockRowResponse, error)
	GetBranchStocks(branchID uuid.UUID) ([]model.StockRowResponse, error)
	UpdateStock(id uuid.UUID, req *model.UpdateStockRequest, operator string) (*model.StockRowResponse, error)
	GetMovements(branchID uuid.UUID, days int) ([]model.StockMovement, error)
}

type inventoryService struct {
	branchRepo   repository.BranchRepository
	productRepo  repository.ProductRepository
	stockRepo    repository.StockRepository
	movementRepo repository.MovementRepository
	db           *gorm.DB
	wsHub        *ws.Hub
	log          zerolog.Logger
}

func NewInventoryService(
	bRepo repository.BranchRepository,
	pRepo repository.ProductRepository,
	sRepo repository.StockRepository,
	mRepo repository.MovementRepository,
	db *gorm.DB,
	hub *ws.Hub,
	log zerolog.Logger,
) InventoryService {
	return &inventoryService{
		branchRepo:   bRepo,
		productRepo:  pRepo,
		stockRepo:    sRepo,
		movementRepo: mRepo,
		db:           db,
		wsHub:        hub,
		log:          log.With().Str("component", "inventory").Logger(),
	}
}

func (s *inventoryService) CreateBranch(req *model.Branch, operator string) error {
	if err := validator.Check(req); err != nil {
		return err
	}
	if _, err := s.branchRepo.FindByCode(req.Code); err == nil {
		return ErrDuplicateBranch
	}

	req.CreatedBy = operator
	req.UpdatedBy = operator
	return s.branchRepo.Create(req)
}

func (s *inventoryService) GetAllBranches() ([]model.Branch, error) {
	return s.branchRepo.FindAll()
}

func (s *inventoryService) CreateProduct(req *model.Product, operator string) error {
	if err := validator.Check(req); err != nil {
		return err
	}

	// Cek Duplikasi SKU
	if _, err := s.productRepo.FindBySKU(req.SKU); err == nil {
		return ErrDuplicateSKU
	}

	req.CreatedBy = operator
	req.UpdatedBy = operator
	return s.productRepo.Create(req)
}

func (s *inventoryService) GetAllProducts() ([]model.Product, error) {
	return s.productRepo.FindAll()
}

func (s *inventoryService) AssignStock(branchID uuid.UUID, req *model.AssignStockRequest, operator string) (*model.StockRowResponse, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	if _, err := s.branchRepo.FindByID(branchID); err != nil {
		return nil, notFound(err, ErrBranchNotFound)
	}
	product, err := s.productRepo.FindByID(req.ProductID)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	if _, err := s.stockRepo.FindByBranchAndProduct(branchID, req.ProductID); err == nil {
		return nil, ErrDuplicateStock
	}

	stock := &model.BranchStock{
		BranchID:  branchID,
		ProductID: product.ID,
		Quantity:  req.Quantity,
	}
	stock.CreatedBy = operator
	stock.UpdatedBy = operator
	if err := s.stockRepo.Create(stock); err != nil {
		return nil, err
	}
	stock.Product = *product

	resp := stock.ToResponse()
	return &resp, nil
}

func (s *inventoryService) GetBranchStocks(branchID uuid.UUID) ([]model.StockRowResponse, error) {
	if _, err := s.branchRepo.FindByID(branchID); err != nil {
		return nil, notFound(err, ErrBranchNotFound)
	}
	stocks, err := s.stockRepo.FindByBranch(branchID)
	if err != nil {
		return nil, err
	}

	rows := make([]model.StockRowResponse, len(stocks))
	for i := range stocks {
		rows[i] = stocks[i].ToResponse()
	}
	return rows, nil
}

// UpdateStock applies the absolute quantity under a row lock and logs the movement.
// Sending the same quantity twice leaves the row and the movement log unchanged.
func (s *inventoryService) UpdateStock(id uuid.UUID, req *model.UpdateStockRequest, operator string) (*model.StockRowResponse, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	var (
		updated  *model.BranchStock
		movement *model.StockMovement
	)

	// Gunakan Transaction Block dengan Locking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.stockRepo.FindForUpdate(tx, id)
		if err != nil {
			return notFound(err, ErrStockNotFound)
		}
		updated = existing

		oldQty := existing.Quantity
		newQty := *req.Quantity
		if oldQty == newQty {
			return nil
		}

		if err := s.stockRepo.UpdateQuantity(tx, existing.ID, newQty, operator); err != nil {
			return fmt.Errorf("update quantity: %w", err)
		}

		mv := &model.StockMovement{
			BranchStockID:  existing.ID,
			BranchID:       existing.BranchID,
			ProductID:      existing.ProductID,
			Type:           model.MovementIn,
			Quantity:       newQty - oldQty,
			QuantityBefore: oldQty,
			QuantityAfter:  newQty,
			RequestedDelta: req.Delta,
			Note:           req.Note,
		}
		if newQty < oldQty {
			mv.Type = model.MovementOut
			mv.Quantity = oldQty - newQty
		}
		mv.CreatedBy = operator
		mv.UpdatedBy = operator
		if err := s.movementRepo.Create(tx, mv); err != nil {
			return fmt.Errorf("record movement: %w", err)
		}

		existing.Quantity = newQty
		existing.UpdatedBy = operator
		movement = mv
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := updated.ToResponse()
	if movement != nil {
		s.log.Info().
			Str("stock_id", resp.ID.String()).
			Str("product", resp.ProductName).
			Int("old_quantity", movement.QuantityBefore).
			Int("new_quantity", movement.QuantityAfter).
			Str("operator", operator).
			Msg("stock updated")

		// Broadcast setelah commit supaya rollback tidak ikut terkirim
		s.wsHub.Publish(ws.Event{
			Type:   "stock_update",
			Action: "stock_updated",
			Data: map[string]interface{}{
				"stock":     resp,
				"old_stock": movement.QuantityBefore,
				"new_stock": movement.QuantityAfter,
				"movement":  movement.Type,
			},
			Message: fmt.Sprintf("%s set '%s' to %d", operator, resp.ProductName, resp.Quantity),
		})
	}
	return &resp, nil
}

func (s *inventoryService) GetMovements(branchID uuid.UUID, days int) ([]model.StockMovement, error) {
	if _, err := s.branchRepo.FindByID(branchID); err != nil {
		return nil, notFound(err, ErrBranchNotFound)
	}
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)
	return s.movementRepo.FindByBranch(branchID, startDate, endDate)
}

// notFound maps gorm's missing-record error to the domain error, passing others through.
func notFound(err, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}
