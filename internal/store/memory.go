package store

import (
	"context"
	"sync"
	"time"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
)

// MemoryStore keeps all records in process memory. It is the default
// backend and the one the tests run against. Ids are assigned from
// per-entity counters under the store mutex, so concurrent creates can
// never collide.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[int64]*models.User
	files map[int64]*models.File
	jobs  map[int64]*models.Job

	userSeq int64
	fileSeq int64
	jobSeq  int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[int64]*models.User),
		files: make(map[int64]*models.File),
		jobs:  make(map[int64]*models.Job),
	}
}

func (s *MemoryStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u := *user
	return &u, nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			u := *user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userSeq++
	u := *user
	u.ID = s.userSeq
	u.CreatedAt = time.Now()
	s.users[u.ID] = &u

	out := u
	return &out, nil
}

func (s *MemoryStore) GetFile(ctx context.Context, id int64) (*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, ok := s.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyFile(file), nil
}

func (s *MemoryStore) CreateFile(ctx context.Context, file *models.File) (*models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fileSeq++
	f := copyFile(file)
	f.ID = s.fileSeq
	f.CreatedAt = time.Now()
	s.files[f.ID] = f

	return copyFile(f), nil
}

func (s *MemoryStore) UpdateFile(ctx context.Context, id int64, upd FileUpdate) (*models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.OriginalName != nil {
		file.OriginalName = *upd.OriginalName
	}
	if upd.Metadata != nil {
		file.Metadata = copyMetadata(upd.Metadata)
	}
	return copyFile(file), nil
}

func (s *MemoryStore) DeleteFile(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return false, nil
	}
	delete(s.files, id)
	return true, nil
}

func (s *MemoryStore) ListFilesByOwner(ctx context.Context, userID *int64) ([]*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.File
	for _, file := range s.files {
		if ownerMatches(file.UserID, userID) {
			out = append(out, copyFile(file))
		}
	}
	return out, nil
}

func (s *MemoryStore) ListAnonymousFilesBefore(ctx context.Context, cutoff time.Time) ([]*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.File
	for _, file := range s.files {
		if file.UserID == nil && file.CreatedAt.Before(cutoff) {
			out = append(out, copyFile(file))
		}
	}
	return out, nil
}

func (s *MemoryStore) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyJob(job), nil
}

func (s *MemoryStore) CreateJob(ctx context.Context, job *models.Job) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobSeq++
	j := copyJob(job)
	j.ID = s.jobSeq
	now := time.Now()
	j.CreatedAt = now
	j.UpdatedAt = now
	s.jobs[j.ID] = j

	return copyJob(j), nil
}

func (s *MemoryStore) UpdateJob(ctx context.Context, id int64, upd JobUpdate) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Status != nil {
		job.Status = *upd.Status
	}
	if upd.OutputFileID != nil {
		job.OutputFileID = upd.OutputFileID
	}
	if upd.Error != nil {
		job.Error = *upd.Error
	}
	job.UpdatedAt = time.Now()

	return copyJob(job), nil
}

func (s *MemoryStore) ListJobsByOwner(ctx context.Context, userID *int64) ([]*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Job
	for _, job := range s.jobs {
		if ownerMatches(job.UserID, userID) {
			out = append(out, copyJob(job))
		}
	}
	return out, nil
}

func ownerMatches(owner, want *int64) bool {
	if want == nil {
		return owner == nil
	}
	return owner != nil && *owner == *want
}

func copyFile(f *models.File) *models.File {
	out := *f
	out.Metadata = copyMetadata(f.Metadata)
	return &out
}

func copyJob(j *models.Job) *models.Job {
	out := *j
	if j.InputFileIDs != nil {
		out.InputFileIDs = append([]int64(nil), j.InputFileIDs...)
	}
	if j.Options != nil {
		out.Options = append([]byte(nil), j.Options...)
	}
	return &out
}

func copyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
