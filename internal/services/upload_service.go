package services

import (
	"context"
	"log"

	"abcretail/internal/models"
)

// UploadResult describes where a proof-of-payment ended up.
type UploadResult struct {
	FileName  string `json:"file_name"`
	BlobURL   string `json:"blob_url"`
	SharePath string `json:"share_path"`
}

// UploadService orchestrates the proof-of-payment dual write.
type UploadService struct {
	storage *StorageService
}

// NewUploadService creates a new UploadService.
func NewUploadService(storage *StorageService) *UploadService {
	return &UploadService{
		storage: storage,
	}
}

// UploadProof writes the file to the payment-proof container first, then a
// copy under the same generated name to the contracts share. The two writes
// share no transaction: when the share write fails, the already persisted
// blob is deleted again and one failure is reported, so the caller never
// observes a silent partial success.
func (s *UploadService) UploadProof(ctx context.Context, file *models.FileUpload) (*UploadResult, error) {
	if file.Empty() {
		return nil, &ValidationError{Field: "ProofOfPayment", Message: "please select a file to upload"}
	}

	name, url, err := s.storage.UploadPaymentProof(ctx, file)
	if err != nil {
		return nil, err
	}

	path, err := s.storage.UploadToFileShare(ctx, name, file.Content)
	if err != nil {
		if delErr := s.storage.DeletePaymentProof(ctx, name); delErr != nil {
			log.Printf("Compensating proof delete failed for %s: %v", name, delErr)
		}
		return nil, err
	}

	return &UploadResult{
		FileName:  name,
		BlobURL:   url,
		SharePath: path,
	}, nil
}
