package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"abcretail/internal/models"
	"abcretail/internal/services"
	"abcretail/internal/storage"
)

// MockFileShareStore is a mock implementation of the file-share store.
type MockFileShareStore struct {
	mock.Mock
}

func (m *MockFileShareStore) Upload(ctx context.Context, share, directory, name string, data []byte) (string, error) {
	args := m.Called(share, directory, name, data)
	return args.String(0), args.Error(1)
}

func TestUploadService_DualWriteSameBytes(t *testing.T) {
	blobs := storage.NewMemoryBlobStore()
	shares := storage.NewMemoryFileShareStore()
	facade := services.NewStorageService(
		storage.NewMemoryEntityStore[models.Product, *models.Product](),
		blobs, shares, services.DefaultStorageConfig(),
	)
	service := services.NewUploadService(facade)

	payload := []byte("proof-of-payment-bytes")
	result, err := service.UploadProof(context.Background(), &models.FileUpload{
		FileName: "proof.pdf",
		Content:  payload,
	})

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.FileName, "_proof.pdf"))
	assert.Equal(t, "memory://payment-proofs/"+result.FileName, result.BlobURL)
	assert.Equal(t, "contracts/payments/"+result.FileName, result.SharePath)

	blobContent, ok := blobs.Content("payment-proofs", result.FileName)
	require.True(t, ok)
	shareContent, ok := shares.Content("contracts", "payments", result.FileName)
	require.True(t, ok)
	assert.Equal(t, payload, blobContent)
	assert.Equal(t, payload, shareContent, "both targets must hold identical bytes")
}

func TestUploadService_NoFileNoWrite(t *testing.T) {
	blobs := storage.NewMemoryBlobStore()
	shares := storage.NewMemoryFileShareStore()
	facade := services.NewStorageService(
		storage.NewMemoryEntityStore[models.Product, *models.Product](),
		blobs, shares, services.DefaultStorageConfig(),
	)
	service := services.NewUploadService(facade)

	for _, file := range []*models.FileUpload{
		nil,
		{FileName: "proof.pdf"},
		{FileName: "proof.pdf", Content: []byte{}},
	} {
		_, err := service.UploadProof(context.Background(), file)
		var vErr *services.ValidationError
		assert.ErrorAs(t, err, &vErr)
		assert.Equal(t, "ProofOfPayment", vErr.Field)
	}

	assert.Equal(t, 0, blobs.Len("payment-proofs"))
	assert.Equal(t, 0, shares.Len("contracts"))
}

func TestUploadService_ShareFailureCompensatesBlob(t *testing.T) {
	blobs := storage.NewMemoryBlobStore()
	shares := new(MockFileShareStore)
	facade := services.NewStorageService(
		storage.NewMemoryEntityStore[models.Product, *models.Product](),
		blobs, shares, services.DefaultStorageConfig(),
	)
	service := services.NewUploadService(facade)

	shares.On("Upload", "contracts", "payments", mock.Anything, mock.Anything).
		Return("", errors.New("share unavailable")).Once()

	_, err := service.UploadProof(context.Background(), &models.FileUpload{
		FileName: "proof.pdf",
		Content:  []byte("proof-bytes"),
	})

	assert.Error(t, err)
	assert.Equal(t, 0, blobs.Len("payment-proofs"), "blob must be deleted again when the share write fails")
	shares.AssertExpectations(t)
}
