package service

import (
	"time"

	"gochicken/internal/model"
	"gochicken/internal/repository"
	"gochicken/pkg/rupiah"

	"github.com/google/uuid"
)

// BranchReport is the stock overview of one branch.
type BranchReport struct {
	Branch            model.Branch `json:"branch"`
	LowStockThreshold int          `json:"low_stock_threshold"`
	ValuationText     string       `json:"valuation_text"`
	repository.BranchStats
}

type DashboardService interface {
	GetStockMovement(branchID uuid.UUID, days int) ([]repository.StockMovementData, error)
	GetBranchReport(branchID uuid.UUID) (*BranchReport, error)
}

type dashboardService struct {
	branchRepo        repository.BranchRepository
	movementRepo      repository.MovementRepository
	lowStockThreshold int
}

func NewDashboardService(bRepo repository.BranchRepository, mRepo repository.MovementRepository, lowStockThreshold int) DashboardService {
	return &dashboardService{
		branchRepo:        bRepo,
		movementRepo:      mRepo,
		lowStockThreshold: lowStockThreshold,
	}
}

func (s *dashboardService) GetStockMovement(branchID uuid.UUID, days int) ([]repository.StockMovementData, error) {
	if _, err := s.branchRepo.FindByID(branchID); err != nil {
		return nil, notFound(err, ErrBranchNotFound)
	}
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.movementRepo.GetStockMovement(branchID, startDate, endDate)
}

func (s *dashboardService) GetBranchReport(branchID uuid.UUID) (*BranchReport, error) {
	branch, err := s.branchRepo.FindByID(branchID)
	if err != nil {
		return nil, notFound(err, ErrBranchNotFound)
	}
	stats, err := s.movementRepo.GetBranchStats(branchID, s.lowStockThreshold)
	if err != nil {
		return nil, err
	}

	return &BranchReport{
		Branch:            *branch,
		LowStockThreshold: s.lowStockThreshold,
		ValuationText:     rupiah.Format(stats.TotalValuation),
		BranchStats:       *stats,
	}, nil
}
