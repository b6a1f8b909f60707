package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmnex/internal/storage"
)

// fakeStore is an in-memory storage.Adapter for orchestrator tests.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	failPut bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Put(_ context.Context, path string, r io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut {
		return "", errors.New("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.objects[path] = data
	f.puts++
	return "/files/" + path, nil
}

func (f *fakeStore) Get(_ context.Context, path string) (io.ReadCloser, *storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[path]
	if !ok {
		return nil, nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), &storage.ObjectInfo{Key: path, Size: int64(len(data))}, nil
}

func (f *fakeStore) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, path)
	return nil
}

func (f *fakeStore) SignedURL(_ context.Context, path string, ttl time.Duration) (storage.SignedLink, error) {
	return storage.SignedLink{URL: "/files/" + path + "?token=test", ExpiresAt: time.Now().Add(ttl)}, nil
}

func (f *fakeStore) List(_ context.Context, prefix string, _ int) ([]storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var infos []storage.ObjectInfo
	for k, v := range f.objects {
		if strings.HasPrefix(k, prefix) {
			infos = append(infos, storage.ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return infos, nil
}

// failingIndex simulates a dedup index outage.
type failingIndex struct{ failLookup bool }

func (f *failingIndex) Lookup(context.Context, string) (*DedupEntry, error) {
	if f.failLookup {
		return nil, errors.New("index down")
	}
	return nil, nil
}

func (f *failingIndex) Record(context.Context, string, string, string) (*DedupEntry, bool, error) {
	return nil, false, errors.New("index down")
}

func testOrchestrator(store storage.Adapter, index DedupIndex) *Orchestrator {
	return NewOrchestrator(testPipeline(), store, index, "training-materials")
}

func mustSubmission(t *testing.T, name, mimeType string, data []byte) *FileSubmission {
	t.Helper()
	sub, err := NewBytesSubmission(name, mimeType, data)
	require.NoError(t, err)
	return sub
}

func TestRunBatchMixedOutcomes(t *testing.T) {
	store := newFakeStore()
	o := testOrchestrator(store, nil)

	subs := []*FileSubmission{
		mustSubmission(t, "guide.pdf", "application/pdf", []byte("pdf bytes")),
		mustSubmission(t, "model.stl", "application/x-stl", []byte("solid")),
		mustSubmission(t, "notes.txt", "text/plain", []byte("plain notes")),
	}

	result, err := o.RunBatch(context.Background(), subs, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Records, 3)

	assert.Nil(t, result.Records[0].Err)
	assert.Equal(t, "/files/training-materials/stored-guide.pdf", result.Records[0].StorageReference)
	assert.Equal(t, "training-materials/stored-guide.pdf", result.Records[0].StoragePath)

	require.NotNil(t, result.Records[1].Err)
	assert.Equal(t, CodeInvalidType, result.Records[1].Err.Code)
	assert.Empty(t, result.Records[1].StorageReference)

	assert.Nil(t, result.Records[2].Err)
	assert.Equal(t, 2, store.puts)
}

func TestRunBatchProgressMonotonic(t *testing.T) {
	store := newFakeStore()
	o := testOrchestrator(store, nil)

	subs := []*FileSubmission{
		mustSubmission(t, "a.txt", "text/plain", []byte("a")),
		mustSubmission(t, "b.bad", "application/unknown", []byte("b")),
		mustSubmission(t, "c.txt", "text/plain", []byte("c")),
	}

	var snapshots []BatchProgress
	_, err := o.RunBatch(context.Background(), subs, func(p BatchProgress) {
		snapshots = append(snapshots, p)
	})
	require.NoError(t, err)
	require.NotEmpty(t, snapshots)

	last := -1.0
	for _, s := range snapshots {
		assert.GreaterOrEqual(t, s.PercentComplete, last)
		assert.LessOrEqual(t, s.PercentComplete, 100.0)
		assert.Equal(t, 3, s.Total)
		last = s.PercentComplete
	}
	final := snapshots[len(snapshots)-1]
	assert.Equal(t, 100.0, final.PercentComplete)
	assert.Equal(t, 3, final.Completed)
}

func TestRunBatchDeduplicatesIdenticalContent(t *testing.T) {
	store := newFakeStore()
	o := testOrchestrator(store, nil)

	payload := []byte("shared handbook content")
	subs := []*FileSubmission{
		mustSubmission(t, "handbook-v1.pdf", "application/pdf", payload),
		mustSubmission(t, "handbook-copy.pdf", "application/pdf", payload),
	}

	result, err := o.RunBatch(context.Background(), subs, nil)
	require.NoError(t, err)
	require.Equal(t, 2, result.Succeeded)

	first, second := result.Records[0], result.Records[1]
	assert.False(t, first.Deduplicated)
	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.StorageReference, second.StorageReference)
	assert.Equal(t, first.StoragePath, second.StoragePath)
	assert.Equal(t, 1, store.puts) // one physical object for identical bytes
}

func TestRunBatchCancellationBetweenItems(t *testing.T) {
	store := newFakeStore()
	o := testOrchestrator(store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	subs := []*FileSubmission{
		mustSubmission(t, "a.txt", "text/plain", []byte("a")),
		mustSubmission(t, "b.txt", "text/plain", []byte("b")),
		mustSubmission(t, "c.txt", "text/plain", []byte("c")),
	}

	items := 0
	result, err := o.RunBatch(ctx, subs, func(p BatchProgress) {
		if p.Stage == StageDone && items == 0 {
			items++
			cancel() // takes effect before the next item starts
		}
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	assert.Nil(t, result.Records[0].Err)
	for _, r := range result.Records[1:] {
		require.NotNil(t, r.Err)
		assert.Equal(t, CodeCancelled, r.Err.Code)
	}
}

func TestRunBatchAbortsWhenIndexUnavailable(t *testing.T) {
	store := newFakeStore()
	o := testOrchestrator(store, &failingIndex{failLookup: true})

	subs := []*FileSubmission{
		mustSubmission(t, "a.txt", "text/plain", []byte("a")),
		mustSubmission(t, "b.txt", "text/plain", []byte("b")),
	}

	result, err := o.RunBatch(context.Background(), subs, nil)
	require.Error(t, err)

	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	require.NotNil(t, result.Records[0].Err)
	assert.Equal(t, CodeUploadFailed, result.Records[0].Err.Code)
	require.NotNil(t, result.Records[1].Err)
	assert.Equal(t, CodeUploadFailed, result.Records[1].Err.Code)
	assert.True(t, strings.HasPrefix(result.Records[1].Err.Message, "batch aborted:"))
}

func TestRunBatchStorageFailureDoesNotAbort(t *testing.T) {
	store := newFakeStore()
	store.failPut = true
	o := testOrchestrator(store, nil)

	subs := []*FileSubmission{
		mustSubmission(t, "a.txt", "text/plain", []byte("a")),
		mustSubmission(t, "b.txt", "text/plain", []byte("bb")),
	}

	result, err := o.RunBatch(context.Background(), subs, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	for _, r := range result.Records {
		require.NotNil(t, r.Err)
		assert.Equal(t, CodeUploadFailed, r.Err.Code)
	}
}
