package services

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"abcretail/internal/models"
	"abcretail/internal/storage"
)

// StorageConfig names the blob containers and the file share the facade
// writes to.
type StorageConfig struct {
	ProductImageContainer string
	PaymentProofContainer string
	ContractsShare        string
	PaymentsDirectory     string
}

// DefaultStorageConfig returns the container and share names the app ships
// with.
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		ProductImageContainer: "product-images",
		PaymentProofContainer: "payment-proofs",
		ContractsShare:        "contracts",
		PaymentsDirectory:     "payments",
	}
}

// StorageService is the single entry point to the three stores. It owns
// object name generation; container and share provisioning happens inside
// the stores on write, and their errors pass through unchanged.
type StorageService struct {
	products storage.EntityStore[models.Product, *models.Product]
	blobs    storage.BlobStore
	shares   storage.FileShareStore
	cfg      StorageConfig
}

// NewStorageService wires the facade over the given stores.
func NewStorageService(
	products storage.EntityStore[models.Product, *models.Product],
	blobs storage.BlobStore,
	shares storage.FileShareStore,
	cfg StorageConfig,
) *StorageService {
	return &StorageService{
		products: products,
		blobs:    blobs,
		shares:   shares,
		cfg:      cfg,
	}
}

// Products exposes the product table.
func (s *StorageService) Products() storage.EntityStore[models.Product, *models.Product] {
	return s.products
}

// objectName builds a collision-resistant object name: a fresh uuid prefix
// on the sanitized original file name.
func objectName(fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "file"
	}
	return uuid.New().String() + "_" + base
}

// UploadImage stores a product image and returns its URL.
func (s *StorageService) UploadImage(ctx context.Context, file *models.FileUpload) (string, error) {
	return s.blobs.Upload(ctx, s.cfg.ProductImageContainer, objectName(file.FileName), file.Content)
}

// DeleteImageByURL removes a previously uploaded product image, addressed by
// the URL UploadImage returned.
func (s *StorageService) DeleteImageByURL(ctx context.Context, url string) error {
	name := url[strings.LastIndex(url, "/")+1:]
	return s.blobs.Delete(ctx, s.cfg.ProductImageContainer, name)
}

// UploadPaymentProof stores a proof-of-payment blob and returns the generated
// object name together with its URL.
func (s *StorageService) UploadPaymentProof(ctx context.Context, file *models.FileUpload) (name, url string, err error) {
	name = objectName(file.FileName)
	url, err = s.blobs.Upload(ctx, s.cfg.PaymentProofContainer, name, file.Content)
	if err != nil {
		return "", "", err
	}
	return name, url, nil
}

// DeletePaymentProof removes a proof-of-payment blob by its stored name.
func (s *StorageService) DeletePaymentProof(ctx context.Context, name string) error {
	return s.blobs.Delete(ctx, s.cfg.PaymentProofContainer, name)
}

// UploadToFileShare writes a copy of the payload into the contracts share
// under the payments directory and returns the stored path.
func (s *StorageService) UploadToFileShare(ctx context.Context, name string, data []byte) (string, error) {
	return s.shares.Upload(ctx, s.cfg.ContractsShare, s.cfg.PaymentsDirectory, name, data)
}
