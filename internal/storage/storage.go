package storage

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for the storage layer. Callers match with errors.Is.
var (
	// ErrNotFound signals absence of an entity. Absence is an expected
	// outcome, not a transport failure; callers usually map it to a 404.
	ErrNotFound = errors.New("entity not found")
	// ErrConflict is returned by Add when the partition/row key pair is
	// already taken.
	ErrConflict = errors.New("entity already exists")
	// ErrConcurrency is returned by Update when the carried ETag no longer
	// matches the stored one (another writer got there first).
	ErrConcurrency = errors.New("etag mismatch")
	// ErrUnavailable wraps transport-level failures from a backend.
	ErrUnavailable = errors.New("storage unavailable")
)

// unavailable tags a backend error as a transport failure.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// Entity is implemented by table records, normally by embedding EntityModel.
type Entity interface {
	EntityKeys() (partitionKey, rowKey string)
	SetRowKey(rowKey string)
	ETag() string
	SetETag(etag string)
}

// EntityModel is the embeddable base for table records. It carries the
// partition/row key pair and the optimistic-concurrency token assigned by
// the store on every successful write.
type EntityModel struct {
	PartitionKey string `json:"partition_key" gorm:"primaryKey;type:varchar(64)"`
	RowKey       string `json:"row_key" gorm:"primaryKey;type:varchar(36)"`
	Etag         string `json:"etag" gorm:"column:etag;type:varchar(36)"`
}

// EntityKeys returns the partition and row key of the record.
func (m *EntityModel) EntityKeys() (string, string) { return m.PartitionKey, m.RowKey }

// SetRowKey assigns the row key. Stores call this once, when adding a record
// that does not carry one yet; the key never changes afterwards.
func (m *EntityModel) SetRowKey(rowKey string) { m.RowKey = rowKey }

// ETag returns the concurrency token from the last read or write.
func (m *EntityModel) ETag() string { return m.Etag }

// SetETag assigns a new concurrency token.
func (m *EntityModel) SetETag(etag string) { m.Etag = etag }

// EntityStore is the table contract for records of type T.
//
// Add rejects duplicate keys with ErrConflict and assigns a fresh ETag (and
// a row key, when the record carries none). Update requires the ETag from a
// prior read and fails with ErrConcurrency when it is stale; on success a
// new ETag is assigned. Delete of a missing row is an explicit success --
// the record being gone is the requested outcome.
type EntityStore[T any, PT interface {
	*T
	Entity
}] interface {
	GetAll(ctx context.Context) ([]T, error)
	Get(ctx context.Context, partitionKey, rowKey string) (*T, error)
	Add(ctx context.Context, entity PT) error
	Update(ctx context.Context, entity PT) error
	Delete(ctx context.Context, partitionKey, rowKey string) error
}

// BlobStore stores file content under container + object name and hands back
// a retrievable URL. Upload creates the container when it is absent.
type BlobStore interface {
	Upload(ctx context.Context, container, name string, data []byte) (url string, err error)
	// Delete removes a blob. Deleting a missing blob is a success.
	Delete(ctx context.Context, container, name string) error
}

// FileShareStore is the secondary file store, organized by share and
// directory. Upload creates both when absent and returns the stored path.
type FileShareStore interface {
	Upload(ctx context.Context, share, directory, name string, data []byte) (path string, err error)
}
