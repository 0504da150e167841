package model

// Product is a menu item of the chain catalog. Price is in whole rupiah.
type Product struct {
	BaseModel
	SKU      string `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku" validate:"required"`
	Name     string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Category string `gorm:"type:varchar(100)" json:"category"`
	Image    string `gorm:"type:text" json:"image"`
	Unit     string `gorm:"type:varchar(20)" json:"unit"`
	Price    int64  `gorm:"default:0" json:"price" validate:"gte=0"`
}
