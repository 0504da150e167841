package app

import (
	"errors"

	"gochicken/internal/model"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var demoProducts = []model.Product{
	{SKU: "AYM-DADA", Name: "Ayam Goreng Dada", Category: "Ayam", Unit: "pcs", Price: 18000},
	{SKU: "AYM-PAHA", Name: "Ayam Goreng Paha", Category: "Ayam", Unit: "pcs", Price: 16000},
	{SKU: "NSI-PTH", Name: "Nasi Putih", Category: "Nasi", Unit: "porsi", Price: 6000},
	{SKU: "MNM-TEH", Name: "Es Teh Manis", Category: "Minuman", Unit: "gelas", Price: 5000},
}

// SeedDemo creates one branch stocked with the demo menu when no branch exists yet.
func SeedDemo(db *gorm.DB, log zerolog.Logger) error {
	var existing model.Branch
	err := db.First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		branch := model.Branch{Code: "JKT-01", Name: "GoChicken Kemang", Address: "Jl. Kemang Raya No. 1, Jakarta"}
		branch.CreatedBy = "seed"
		if err := tx.Create(&branch).Error; err != nil {
			return err
		}
		for _, p := range demoProducts {
			p.CreatedBy = "seed"
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			stock := model.BranchStock{BranchID: branch.ID, ProductID: p.ID, Quantity: 20}
			stock.CreatedBy = "seed"
			if err := tx.Create(&stock).Error; err != nil {
				return err
			}
		}
		log.Info().Str("branch_id", branch.ID.String()).Msg("demo branch seeded")
		return nil
	})
}
