package storage_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"abcretail/internal/storage"
)

// newGormStore opens a private in-memory SQLite database per test.
func newGormStore(t *testing.T) *storage.GormEntityStore[testRecord, *testRecord] {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&testRecord{}))

	return storage.NewGormEntityStore[testRecord, *testRecord](db)
}

func TestGormEntityStore_AddAndGet(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()

	record := newRecord("Record", "", "hello")
	assert.NoError(t, store.Add(ctx, record))
	assert.NotEmpty(t, record.RowKey)
	assert.NotEmpty(t, record.Etag)

	got, err := store.Get(ctx, "Record", record.RowKey)
	assert.NoError(t, err)
	assert.Equal(t, "hello", got.Body)
	assert.Equal(t, record.Etag, got.Etag)

	_, err = store.Get(ctx, "Record", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGormEntityStore_AddDuplicateKey(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Add(ctx, newRecord("Record", "r1", "one")))

	err := store.Add(ctx, newRecord("Record", "r1", "two"))
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestGormEntityStore_GetAll(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Add(ctx, newRecord("Record", "r1", "one")))
	assert.NoError(t, store.Add(ctx, newRecord("Record", "r2", "two")))

	all, err := store.GetAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGormEntityStore_UpdateRotatesETag(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Add(ctx, newRecord("Record", "r1", "one")))

	fetched, err := store.Get(ctx, "Record", "r1")
	require.NoError(t, err)
	firstEtag := fetched.Etag

	fetched.Body = "two"
	assert.NoError(t, store.Update(ctx, fetched))
	assert.NotEqual(t, firstEtag, fetched.Etag)

	got, err := store.Get(ctx, "Record", "r1")
	assert.NoError(t, err)
	assert.Equal(t, "two", got.Body)
	assert.Equal(t, fetched.Etag, got.Etag)
}

func TestGormEntityStore_UpdateStaleETag(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Add(ctx, newRecord("Record", "r1", "one")))

	first, err := store.Get(ctx, "Record", "r1")
	require.NoError(t, err)
	second, err := store.Get(ctx, "Record", "r1")
	require.NoError(t, err)

	first.Body = "first writer"
	assert.NoError(t, store.Update(ctx, first))

	second.Body = "second writer"
	err = store.Update(ctx, second)
	assert.ErrorIs(t, err, storage.ErrConcurrency)

	got, err := store.Get(ctx, "Record", "r1")
	assert.NoError(t, err)
	assert.Equal(t, "first writer", got.Body)
}

func TestGormEntityStore_UpdateMissing(t *testing.T) {
	store := newGormStore(t)

	record := newRecord("Record", "ghost", "boo")
	record.Etag = "some-etag"
	err := store.Update(context.Background(), record)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGormEntityStore_UpdateWithoutETag(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Add(ctx, newRecord("Record", "r1", "one")))

	// An update that skipped the prior read carries no token.
	stale := newRecord("Record", "r1", "two")
	err := store.Update(ctx, stale)
	assert.ErrorIs(t, err, storage.ErrConcurrency)
}

func TestGormEntityStore_DeleteMissingIsSuccess(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Delete(ctx, "Record", "never-existed"))

	assert.NoError(t, store.Add(ctx, newRecord("Record", "r1", "one")))
	assert.NoError(t, store.Delete(ctx, "Record", "r1"))
	_, err := store.Get(ctx, "Record", "r1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
