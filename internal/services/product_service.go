package services

import (
	"context"
	"log"

	"github.com/shopspring/decimal"

	"abcretail/internal/forms"
	"abcretail/internal/models"
)

// ValidationError reports a bad input field. Handlers map it to a form-level
// message instead of a transport failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ProductInput is the decoded create/edit form. RawPrice is the untouched
// form value; the service re-parses it itself rather than trusting any
// binding layer.
type ProductInput struct {
	RowKey      string             `validate:"-"`
	Name        string             `validate:"required,min=2,max=100"`
	Description string             `validate:"omitempty,max=500"`
	RawPrice    string             `validate:"required"`
	Stock       int                `validate:"gte=0"`
	Image       *models.FileUpload `validate:"-"`
}

// ProductService orchestrates the catalog workflows against the storage
// facade.
type ProductService struct {
	storage *StorageService
	prices  forms.PriceFormat
}

// NewProductService creates a new ProductService.
func NewProductService(storage *StorageService, prices forms.PriceFormat) *ProductService {
	return &ProductService{
		storage: storage,
		prices:  prices,
	}
}

// List retrieves all products.
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	return s.storage.Products().GetAll(ctx)
}

// Get retrieves a product by its row key.
func (s *ProductService) Get(ctx context.Context, rowKey string) (*models.Product, error) {
	return s.storage.Products().Get(ctx, models.ProductPartition, rowKey)
}

// Create validates the input, uploads the optional image, and adds a new
// product record. When the add fails after a successful image upload, the
// orphaned blob is deleted again so no partial state survives the request.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	price, err := s.parsePrice(in.RawPrice)
	if err != nil {
		return nil, err
	}

	product := models.NewProduct()
	product.Name = in.Name
	product.Description = in.Description
	product.Price = price
	product.Stock = in.Stock

	if !in.Image.Empty() {
		url, err := s.storage.UploadImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		product.ImageURL = url
	}

	if err := s.storage.Products().Add(ctx, product); err != nil {
		if product.ImageURL != "" {
			if delErr := s.storage.DeleteImageByURL(ctx, product.ImageURL); delErr != nil {
				log.Printf("Compensating image delete failed for %s: %v", product.ImageURL, delErr)
			}
		}
		return nil, err
	}
	return product, nil
}

// Update re-fetches the product by row key and merges the editable fields
// onto the fetched record, so the update carries the ETag from that read.
// The row key never changes and the image URL is kept unless a new file was
// submitted; a replaced image is not deleted.
func (s *ProductService) Update(ctx context.Context, in ProductInput) (*models.Product, error) {
	price, err := s.parsePrice(in.RawPrice)
	if err != nil {
		return nil, err
	}

	original, err := s.Get(ctx, in.RowKey)
	if err != nil {
		return nil, err
	}

	original.Name = in.Name
	original.Description = in.Description
	original.Price = price
	original.Stock = in.Stock

	if !in.Image.Empty() {
		url, err := s.storage.UploadImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		original.ImageURL = url
	}

	if err := s.storage.Products().Update(ctx, original); err != nil {
		return nil, err
	}
	return original, nil
}

// Delete removes a product. Deleting a missing product succeeds; callers
// treat any remaining error as best-effort and redirect regardless.
func (s *ProductService) Delete(ctx context.Context, rowKey string) error {
	return s.storage.Products().Delete(ctx, models.ProductPartition, rowKey)
}

// parsePrice runs the workflow's own pass over the raw form price and
// enforces the strictly-positive invariant.
func (s *ProductService) parsePrice(raw string) (decimal.Decimal, error) {
	parsed, err := s.prices.Parse(raw)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "Price", Message: err.Error()}
	}
	if !parsed.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "Price", Message: "price must be greater than 0.00"}
	}
	return parsed, nil
}
