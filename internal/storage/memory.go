package storage

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/google/uuid"
)

// MemoryEntityStore is an in-memory EntityStore, used for tests and as the
// default backend when no database is configured.
type MemoryEntityStore[T any, PT interface {
	*T
	Entity
}] struct {
	mu       sync.RWMutex
	entities map[string]T
}

// NewMemoryEntityStore creates an empty in-memory entity store.
func NewMemoryEntityStore[T any, PT interface {
	*T
	Entity
}]() *MemoryEntityStore[T, PT] {
	return &MemoryEntityStore[T, PT]{
		entities: make(map[string]T),
	}
}

func entityKey(partitionKey, rowKey string) string {
	return partitionKey + "/" + rowKey
}

// GetAll returns a copy of every stored record. Ordering is unspecified.
func (s *MemoryEntityStore[T, PT]) GetAll(ctx context.Context) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e)
	}
	return out, nil
}

// Get returns the record for the key pair, or ErrNotFound.
func (s *MemoryEntityStore[T, PT]) Get(ctx context.Context, partitionKey, rowKey string) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[entityKey(partitionKey, rowKey)]
	if !ok {
		return nil, fmt.Errorf("get %s/%s: %w", partitionKey, rowKey, ErrNotFound)
	}
	return &e, nil
}

// Add inserts a new record, assigning a row key when absent and a fresh ETag.
func (s *MemoryEntityStore[T, PT]) Add(ctx context.Context, entity PT) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partitionKey, rowKey := entity.EntityKeys()
	if rowKey == "" {
		rowKey = uuid.New().String()
		entity.SetRowKey(rowKey)
	}
	key := entityKey(partitionKey, rowKey)
	if _, exists := s.entities[key]; exists {
		return fmt.Errorf("add %s/%s: %w", partitionKey, rowKey, ErrConflict)
	}
	entity.SetETag(uuid.New().String())
	s.entities[key] = *entity
	return nil
}

// Update replaces a record when the carried ETag matches the stored one.
func (s *MemoryEntityStore[T, PT]) Update(ctx context.Context, entity PT) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partitionKey, rowKey := entity.EntityKeys()
	key := entityKey(partitionKey, rowKey)
	current, ok := s.entities[key]
	if !ok {
		return fmt.Errorf("update %s/%s: %w", partitionKey, rowKey, ErrNotFound)
	}
	if PT(&current).ETag() != entity.ETag() {
		return fmt.Errorf("update %s/%s: %w", partitionKey, rowKey, ErrConcurrency)
	}
	entity.SetETag(uuid.New().String())
	s.entities[key] = *entity
	return nil
}

// Delete removes a record. A missing row is a success, not an error.
func (s *MemoryEntityStore[T, PT]) Delete(ctx context.Context, partitionKey, rowKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entities, entityKey(partitionKey, rowKey))
	return nil
}

// MemoryBlobStore is an in-memory BlobStore. URLs use the memory:// scheme.
type MemoryBlobStore struct {
	mu         sync.RWMutex
	containers map[string]map[string][]byte
}

// NewMemoryBlobStore creates an empty in-memory blob store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		containers: make(map[string]map[string][]byte),
	}
}

// Upload stores a copy of data under container/name, creating the container
// when absent, and returns a memory:// URL.
func (s *MemoryBlobStore) Upload(ctx context.Context, container, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blobs, ok := s.containers[container]
	if !ok {
		blobs = make(map[string][]byte)
		s.containers[container] = blobs
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	blobs[name] = buf
	return fmt.Sprintf("memory://%s/%s", container, name), nil
}

// Delete removes a blob. Deleting a missing blob is a success.
func (s *MemoryBlobStore) Delete(ctx context.Context, container, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if blobs, ok := s.containers[container]; ok {
		delete(blobs, name)
	}
	return nil
}

// Content returns the stored bytes for container/name. Used by tests.
func (s *MemoryBlobStore) Content(container, name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blobs, ok := s.containers[container]
	if !ok {
		return nil, false
	}
	data, ok := blobs[name]
	return data, ok
}

// Len returns the number of blobs in a container. Used by tests.
func (s *MemoryBlobStore) Len(container string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.containers[container])
}

// MemoryFileShareStore is an in-memory FileShareStore.
type MemoryFileShareStore struct {
	mu     sync.RWMutex
	shares map[string]map[string][]byte
}

// NewMemoryFileShareStore creates an empty in-memory file-share store.
func NewMemoryFileShareStore() *MemoryFileShareStore {
	return &MemoryFileShareStore{
		shares: make(map[string]map[string][]byte),
	}
}

// Upload stores a copy of data under share, keyed by directory/name, creating
// the share when absent, and returns the stored path.
func (s *MemoryFileShareStore) Upload(ctx context.Context, share, directory, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, ok := s.shares[share]
	if !ok {
		files = make(map[string][]byte)
		s.shares[share] = files
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	files[path.Join(directory, name)] = buf
	return path.Join(share, directory, name), nil
}

// Content returns the stored bytes for share + directory/name. Used by tests.
func (s *MemoryFileShareStore) Content(share, directory, name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, ok := s.shares[share]
	if !ok {
		return nil, false
	}
	data, ok := files[path.Join(directory, name)]
	return data, ok
}

// Len returns the number of files in a share. Used by tests.
func (s *MemoryFileShareStore) Len(share string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.shares[share])
}
