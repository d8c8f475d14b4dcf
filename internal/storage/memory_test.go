package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"abcretail/internal/storage"
)

// testRecord is a minimal table entity for exercising the stores.
type testRecord struct {
	storage.EntityModel
	Body string
}

func newMemoryStore() *storage.MemoryEntityStore[testRecord, *testRecord] {
	return storage.NewMemoryEntityStore[testRecord, *testRecord]()
}

func newRecord(partitionKey, rowKey, body string) *testRecord {
	return &testRecord{
		EntityModel: storage.EntityModel{PartitionKey: partitionKey, RowKey: rowKey},
		Body:        body,
	}
}

func TestMemoryEntityStore_AddAssignsKeyAndETag(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	record := newRecord("Record", "", "hello")
	err := store.Add(ctx, record)

	assert.NoError(t, err)
	assert.NotEmpty(t, record.RowKey)
	assert.NotEmpty(t, record.Etag)

	got, err := store.Get(ctx, "Record", record.RowKey)
	assert.NoError(t, err)
	assert.Equal(t, "hello", got.Body)
	assert.Equal(t, record.Etag, got.Etag)
}

func TestMemoryEntityStore_AddDuplicateKey(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	assert.NoError(t, store.Add(ctx, newRecord("Record", "r1", "one")))

	err := store.Add(ctx, newRecord("Record", "r1", "two"))
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestMemoryEntityStore_GetAbsent(t *testing.T) {
	store := newMemoryStore()

	got, err := store.Get(context.Background(), "Record", "missing")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryEntityStore_GetAll(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	assert.NoError(t, store.Add(ctx, newRecord("Record", "r1", "one")))
	assert.NoError(t, store.Add(ctx, newRecord("Record", "r2", "two")))

	all, err := store.GetAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryEntityStore_UpdateRotatesETag(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	record := newRecord("Record", "r1", "one")
	assert.NoError(t, store.Add(ctx, record))
	firstEtag := record.Etag

	fetched, err := store.Get(ctx, "Record", "r1")
	assert.NoError(t, err)
	fetched.Body = "two"
	assert.NoError(t, store.Update(ctx, fetched))
	assert.NotEqual(t, firstEtag, fetched.Etag)

	got, err := store.Get(ctx, "Record", "r1")
	assert.NoError(t, err)
	assert.Equal(t, "two", got.Body)
}

func TestMemoryEntityStore_UpdateStaleETag(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	assert.NoError(t, store.Add(ctx, newRecord("Record", "r1", "one")))

	// Two readers fetch the same version.
	first, err := store.Get(ctx, "Record", "r1")
	assert.NoError(t, err)
	second, err := store.Get(ctx, "Record", "r1")
	assert.NoError(t, err)

	first.Body = "first writer"
	assert.NoError(t, store.Update(ctx, first))

	second.Body = "second writer"
	err = store.Update(ctx, second)
	assert.ErrorIs(t, err, storage.ErrConcurrency)

	got, err := store.Get(ctx, "Record", "r1")
	assert.NoError(t, err)
	assert.Equal(t, "first writer", got.Body)
}

func TestMemoryEntityStore_UpdateMissing(t *testing.T) {
	store := newMemoryStore()

	record := newRecord("Record", "ghost", "boo")
	record.Etag = "some-etag"
	err := store.Update(context.Background(), record)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryEntityStore_DeleteMissingIsSuccess(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	assert.NoError(t, store.Delete(ctx, "Record", "never-existed"))

	assert.NoError(t, store.Add(ctx, newRecord("Record", "r1", "one")))
	assert.NoError(t, store.Delete(ctx, "Record", "r1"))
	_, err := store.Get(ctx, "Record", "r1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting again is still a success.
	assert.NoError(t, store.Delete(ctx, "Record", "r1"))
}

func TestMemoryBlobStore_UploadAndDelete(t *testing.T) {
	store := storage.NewMemoryBlobStore()
	ctx := context.Background()

	url, err := store.Upload(ctx, "payment-proofs", "proof.pdf", []byte("pdf-bytes"))
	assert.NoError(t, err)
	assert.Equal(t, "memory://payment-proofs/proof.pdf", url)

	content, ok := store.Content("payment-proofs", "proof.pdf")
	assert.True(t, ok)
	assert.Equal(t, []byte("pdf-bytes"), content)

	assert.NoError(t, store.Delete(ctx, "payment-proofs", "proof.pdf"))
	_, ok = store.Content("payment-proofs", "proof.pdf")
	assert.False(t, ok)

	// Deleting a missing blob is a success.
	assert.NoError(t, store.Delete(ctx, "payment-proofs", "proof.pdf"))
	assert.NoError(t, store.Delete(ctx, "no-such-container", "proof.pdf"))
}

func TestMemoryBlobStore_UploadCopiesData(t *testing.T) {
	store := storage.NewMemoryBlobStore()

	payload := []byte("original")
	_, err := store.Upload(context.Background(), "c", "b", payload)
	assert.NoError(t, err)

	payload[0] = 'X'
	content, ok := store.Content("c", "b")
	assert.True(t, ok)
	assert.Equal(t, []byte("original"), content)
}

func TestMemoryFileShareStore_Upload(t *testing.T) {
	store := storage.NewMemoryFileShareStore()

	path, err := store.Upload(context.Background(), "contracts", "payments", "proof.pdf", []byte("pdf-bytes"))
	assert.NoError(t, err)
	assert.Equal(t, "contracts/payments/proof.pdf", path)

	content, ok := store.Content("contracts", "payments", "proof.pdf")
	assert.True(t, ok)
	assert.Equal(t, []byte("pdf-bytes"), content)
	assert.Equal(t, 1, store.Len("contracts"))
}
