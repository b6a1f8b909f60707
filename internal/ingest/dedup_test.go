package ingest

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHasherStable(t *testing.T) {
	var h ContentHasher
	payload := []byte("the same bytes every time")

	first, n, err := h.Digest(bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, uint64(len(payload)), n)

	second, _, err := h.Digest(bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, first, h.DigestBytes(payload))
	assert.Len(t, first, 64) // hex sha256

	flipped := append([]byte{}, payload...)
	flipped[0] ^= 1
	other, _, err := h.Digest(bytes.NewReader(flipped))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestMemoryIndexRecordOnce(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	entry, err := idx.Lookup(ctx, "digest-a")
	require.NoError(t, err)
	assert.Nil(t, entry)

	created1, ok, err := idx.Record(ctx, "digest-a", "folder/a.pdf", "/files/folder/a.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "folder/a.pdf", created1.Path)

	// Second Record with a different object loses: the first entry wins.
	created2, ok, err := idx.Record(ctx, "digest-a", "folder/b.pdf", "/files/folder/b.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "folder/a.pdf", created2.Path)
	assert.Equal(t, "/files/folder/a.pdf", created2.Reference)

	found, err := idx.Lookup(ctx, "digest-a")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "folder/a.pdf", found.Path)
	assert.Equal(t, 1, idx.Len())
}

func TestMemoryIndexConcurrentRecord(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, created, err := idx.Record(ctx, "shared", "p", "r")
			require.NoError(t, err)
			if created {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, idx.Len())
}
