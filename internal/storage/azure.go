package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/service"
)

// AzureConfig holds shared-key connectivity for the Azure storage account.
// Endpoints default to the public cloud and are overridable for Azurite.
type AzureConfig struct {
	Account      string
	AccountKey   string
	BlobEndpoint string
	FileEndpoint string
}

// AzureBlobStore implements BlobStore on Azure Blob Storage.
type AzureBlobStore struct {
	client *azblob.Client
}

// NewAzureBlobStore connects to the blob endpoint with shared-key credentials.
func NewAzureBlobStore(cfg AzureConfig) (*AzureBlobStore, error) {
	if cfg.Account == "" || cfg.AccountKey == "" {
		return nil, fmt.Errorf("azure blob: account and account key are required")
	}
	endpoint := cfg.BlobEndpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net", cfg.Account)
	}
	cred, err := azblob.NewSharedKeyCredential(cfg.Account, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("azure blob: build credentials: %w", err)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(endpoint, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azure blob: create client: %w", err)
	}
	return &AzureBlobStore{client: client}, nil
}

// Upload writes data under container/name and returns the blob URL. The
// container is created when absent; an existing one is tolerated.
func (s *AzureBlobStore) Upload(ctx context.Context, container, name string, data []byte) (string, error) {
	if _, err := s.client.CreateContainer(ctx, container, nil); err != nil && !hasStatus(err, http.StatusConflict) {
		return "", unavailable("create container "+container, err)
	}
	if _, err := s.client.UploadStream(ctx, container, name, bytes.NewReader(data), nil); err != nil {
		return "", unavailable(fmt.Sprintf("upload blob %s/%s", container, name), err)
	}
	return s.client.ServiceClient().NewContainerClient(container).NewBlobClient(name).URL(), nil
}

// Delete removes a blob. A missing blob is a success.
func (s *AzureBlobStore) Delete(ctx context.Context, container, name string) error {
	if _, err := s.client.DeleteBlob(ctx, container, name, nil); err != nil && !hasStatus(err, http.StatusNotFound) {
		return unavailable(fmt.Sprintf("delete blob %s/%s", container, name), err)
	}
	return nil
}

// AzureFileShareStore implements FileShareStore on Azure Files.
type AzureFileShareStore struct {
	client *service.Client
}

// NewAzureFileShareStore connects to the file endpoint with shared-key
// credentials.
func NewAzureFileShareStore(cfg AzureConfig) (*AzureFileShareStore, error) {
	if cfg.Account == "" || cfg.AccountKey == "" {
		return nil, fmt.Errorf("azure files: account and account key are required")
	}
	endpoint := cfg.FileEndpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.file.core.windows.net", cfg.Account)
	}
	cred, err := service.NewSharedKeyCredential(cfg.Account, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("azure files: build credentials: %w", err)
	}
	client, err := service.NewClientWithSharedKeyCredential(endpoint, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azure files: create client: %w", err)
	}
	return &AzureFileShareStore{client: client}, nil
}

// Upload writes data to share/directory/name, creating the share and the
// directory when absent, and returns the stored path.
func (s *AzureFileShareStore) Upload(ctx context.Context, share, directory, name string, data []byte) (string, error) {
	shareClient := s.client.NewShareClient(share)
	if _, err := shareClient.Create(ctx, nil); err != nil && !hasStatus(err, http.StatusConflict) {
		return "", unavailable("create share "+share, err)
	}
	dirClient := shareClient.NewRootDirectoryClient().NewSubdirectoryClient(directory)
	if _, err := dirClient.Create(ctx, nil); err != nil && !hasStatus(err, http.StatusConflict) {
		return "", unavailable(fmt.Sprintf("create directory %s/%s", share, directory), err)
	}
	fileClient := dirClient.NewFileClient(name)
	storedPath := path.Join(share, directory, name)
	if _, err := fileClient.Create(ctx, int64(len(data)), nil); err != nil {
		return "", unavailable("create file "+storedPath, err)
	}
	if len(data) > 0 {
		if _, err := fileClient.UploadRange(ctx, 0, streaming.NopCloser(bytes.NewReader(data)), nil); err != nil {
			return "", unavailable("write file "+storedPath, err)
		}
	}
	return storedPath, nil
}

// hasStatus reports whether err is an Azure response error with the given
// HTTP status. 409 on create-if-absent calls means the namespace is already
// provisioned.
func hasStatus(err error, status int) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == status
	}
	return false
}
