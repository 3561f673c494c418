package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewStore(DefaultConfig(filepath.Join(t.TempDir(), "history_index.db")))
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRecord(session, platform, sender, name, text string, ts int64) Record {
	return Record{
		SessionID:      session,
		PlatformID:     platform,
		SenderID:       sender,
		SenderName:     name,
		MessageText:    text,
		MessageOutline: text,
		CreatedAt:      time.Unix(ts, 0).UTC(),
	}
}

func TestNewStoreRequiresPath(t *testing.T) {
	_, err := NewStore(Config{})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestStoreInitIdempotent(t *testing.T) {
	store := newTestStore(t)

	// Safe to call on every process start.
	require.NoError(t, store.Init(context.Background()))
	require.FileExists(t, store.config.Path)
}

func TestStoreInitCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "plugins", "history_index.db")
	store, err := NewStore(DefaultConfig(path))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Init(context.Background()))
	require.FileExists(t, path)
}

func TestStoreInitUnavailable(t *testing.T) {
	// A regular file where the data directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	store, err := NewStore(DefaultConfig(filepath.Join(blocker, "sub", "history_index.db")))
	require.NoError(t, err)

	err = store.Init(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestStoreInsertAndScanAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	records := []Record{
		testRecord("s1", "qq", "u1", "Alice", "first", 1000),
		testRecord("s1", "qq", "u2", "Bob", "second", 2000),
		testRecord("s2", "discord", "u3", "Carol", "third", 3000),
	}
	for _, rec := range records {
		require.NoError(t, store.Insert(ctx, rec))
	}

	got, err := store.Scan(ctx, ScanFilter{}, 0)
	require.NoError(t, err)
	require.Len(t, got, len(records))

	// Recency descending, fields round-tripped, timestamps in UTC seconds.
	assert.Equal(t, records[2], got[0])
	assert.Equal(t, records[1], got[1])
	assert.Equal(t, records[0], got[2])
}

func TestStoreScanScopeFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testRecord("s1", "qq", "u1", "Alice", "alpha", 1000)))
	require.NoError(t, store.Insert(ctx, testRecord("s1", "discord", "u2", "Bob", "beta", 2000)))
	require.NoError(t, store.Insert(ctx, testRecord("s2", "telegram", "u1", "Alice", "gamma", 3000)))

	// Membership on one dimension.
	got, err := store.Scan(ctx, ScanFilter{Platforms: []string{"qq", "discord"}}, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Conjunction across dimensions.
	got, err = store.Scan(ctx, ScanFilter{Sessions: []string{"s1"}, Senders: []string{"u1"}}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alpha", got[0].MessageText)

	got, err = store.Scan(ctx, ScanFilter{Sessions: []string{"missing"}}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStoreScanTextLike(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	withOutline := testRecord("s1", "qq", "u1", "Alice", "[image]", 1000)
	withOutline.MessageOutline = "a hat photo"
	require.NoError(t, store.Insert(ctx, withOutline))
	require.NoError(t, store.Insert(ctx, testRecord("s1", "qq", "u2", "Bob", "xyz", 2000)))

	got, err := store.Scan(ctx, ScanFilter{TextLike: "%h%"}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "[image]", got[0].MessageText)

	// TextOnly ignores the outline column.
	got, err = store.Scan(ctx, ScanFilter{TextLike: "%h%", TextOnly: true}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStoreScanLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, store.Insert(ctx, testRecord("s1", "qq", "u1", "Alice", "msg", 1000*i)))
	}

	got, err := store.Scan(ctx, ScanFilter{}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, time.Unix(5000, 0).UTC(), got[0].CreatedAt)
}

func TestStoreStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	st, err := store.Stats(ctx, 3)
	require.NoError(t, err)
	assert.True(t, st.Exists)
	assert.Zero(t, st.Total)
	assert.True(t, st.Latest.IsZero())
	assert.Empty(t, st.Samples)

	anon := testRecord("s1", "qq", "u1", "", "no name here", 1000)
	require.NoError(t, store.Insert(ctx, anon))
	withOutline := testRecord("s1", "qq", "u2", "Bob", "[video]", 2000)
	withOutline.MessageOutline = "cat video"
	require.NoError(t, store.Insert(ctx, withOutline))

	st, err = store.Stats(ctx, 3)
	require.NoError(t, err)
	assert.True(t, st.Exists)
	assert.Equal(t, int64(2), st.Total)
	assert.Equal(t, time.Unix(2000, 0).UTC(), st.Latest)
	require.Len(t, st.Samples, 2)
	assert.Equal(t, "cat video", st.Samples[0].Snippet) // outline preferred
	assert.Equal(t, "Unknown", st.Samples[1].SenderName)
}

func TestStoreClosed(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close()) // idempotent

	err := store.Insert(context.Background(), testRecord("s1", "qq", "u1", "Alice", "late", 1000))
	require.ErrorIs(t, err, ErrWriteFailed)
	require.ErrorIs(t, err, ErrStoreClosed)

	_, err = store.Scan(context.Background(), ScanFilter{}, 0)
	require.ErrorIs(t, err, ErrReadFailed)

	_, err = store.Stats(context.Background(), 3)
	require.ErrorIs(t, err, ErrReadFailed)
}
