package models

import (
	"time"

	"github.com/shopspring/decimal"

	"abcretail/internal/storage"
)

// ProductPartition is the fixed partition key for all product records.
const ProductPartition = "Product"

// Product represents a catalog item. The row key is its identifier and is
// immutable after creation; the embedded ETag guards concurrent edits.
type Product struct {
	storage.EntityModel
	Name        string          `json:"name" validate:"required,min=2,max=100"`
	Description string          `json:"description" validate:"omitempty,max=500"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2)"`
	Stock       int             `json:"stock" validate:"gte=0"`
	ImageURL    string          `json:"image_url" gorm:"type:varchar(512)"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewProduct returns an empty product in the product partition.
func NewProduct() *Product {
	return &Product{
		EntityModel: storage.EntityModel{PartitionKey: ProductPartition},
	}
}
