package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestCreateFileAssignsSequentialIDs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a, err := s.CreateFile(ctx, &models.File{OriginalName: "a.pdf"})
	require.NoError(t, err)
	b, err := s.CreateFile(ctx, &models.File{OriginalName: "b.pdf"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.False(t, a.CreatedAt.IsZero())
}

func TestConcurrentCreatesNeverCollide(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const n = 50
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := s.CreateFile(ctx, &models.File{OriginalName: "x.pdf"})
			require.NoError(t, err)
			ids <- f.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestGetFileNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetFile(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateFilePartial(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	f, err := s.CreateFile(ctx, &models.File{OriginalName: "a.pdf", Size: 10})
	require.NoError(t, err)

	updated, err := s.UpdateFile(ctx, f.ID, FileUpdate{OriginalName: ptr("renamed.pdf")})
	require.NoError(t, err)
	assert.Equal(t, "renamed.pdf", updated.OriginalName)
	assert.Equal(t, int64(10), updated.Size)

	updated, err = s.UpdateFile(ctx, f.ID, FileUpdate{Metadata: map[string]any{"toolId": "merge-pdf"}})
	require.NoError(t, err)
	assert.Equal(t, "renamed.pdf", updated.OriginalName)
	assert.Equal(t, "merge-pdf", updated.Metadata["toolId"])
}

func TestDeleteFileIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	f, err := s.CreateFile(ctx, &models.File{OriginalName: "a.pdf"})
	require.NoError(t, err)

	ok, err := s.DeleteFile(ctx, f.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DeleteFile(ctx, f.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListFilesByOwnerSeparatesPools(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.CreateFile(ctx, &models.File{OriginalName: "anon.pdf"})
	require.NoError(t, err)
	_, err = s.CreateFile(ctx, &models.File{OriginalName: "owned.pdf", UserID: ptr(int64(7))})
	require.NoError(t, err)

	anon, err := s.ListFilesByOwner(ctx, nil)
	require.NoError(t, err)
	require.Len(t, anon, 1)
	assert.Equal(t, "anon.pdf", anon[0].OriginalName)

	owned, err := s.ListFilesByOwner(ctx, ptr(int64(7)))
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "owned.pdf", owned[0].OriginalName)

	other, err := s.ListFilesByOwner(ctx, ptr(int64(8)))
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestListAnonymousFilesBefore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.CreateFile(ctx, &models.File{OriginalName: "anon.pdf"})
	require.NoError(t, err)
	_, err = s.CreateFile(ctx, &models.File{OriginalName: "owned.pdf", UserID: ptr(int64(1))})
	require.NoError(t, err)

	old, err := s.ListAnonymousFilesBefore(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, old)

	expired, err := s.ListAnonymousFilesBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "anon.pdf", expired[0].OriginalName)
}

func TestJobLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job, err := s.CreateJob(ctx, &models.Job{
		ToolID:       "merge-pdf",
		Status:       models.StatusPending,
		InputFileIDs: []int64{1, 2},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, job.Status)
	assert.Equal(t, job.CreatedAt, job.UpdatedAt)

	job, err = s.UpdateJob(ctx, job.ID, JobUpdate{Status: ptr(models.StatusProcessing)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, job.Status)

	job, err = s.UpdateJob(ctx, job.ID, JobUpdate{
		Status:       ptr(models.StatusCompleted),
		OutputFileID: ptr(int64(9)),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, job.Status)
	require.NotNil(t, job.OutputFileID)
	assert.Equal(t, int64(9), *job.OutputFileID)
	assert.Equal(t, []int64{1, 2}, job.InputFileIDs)
}

func TestUpdateJobNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.UpdateJob(context.Background(), 42, JobUpdate{Status: ptr(models.StatusFailed)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateReturnsDetachedCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	f, err := s.CreateFile(ctx, &models.File{OriginalName: "a.pdf", Metadata: map[string]any{"k": "v"}})
	require.NoError(t, err)

	f.OriginalName = "mutated.pdf"
	f.Metadata["k"] = "mutated"

	stored, err := s.GetFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", stored.OriginalName)
	assert.Equal(t, "v", stored.Metadata["k"])
}

func TestUserRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, &models.User{Username: "alice", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	_, err = s.GetUserByUsername(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}
