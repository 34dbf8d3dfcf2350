package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
)

// RedisStore persists records as JSON values in Redis. Ids come from
// per-entity INCR counters, so they are monotonic and unique. Partial
// updates run under WATCH so an update on one id is atomic with respect
// to concurrent readers of that id.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func userKey(id int64) string { return fmt.Sprintf("users:%d", id) }
func fileKey(id int64) string { return fmt.Sprintf("files:%d", id) }
func jobKey(id int64) string  { return fmt.Sprintf("jobs:%d", id) }

func ownerKey(prefix string, userID *int64) string {
	if userID == nil {
		return prefix + ":owner:anon"
	}
	return prefix + ":owner:" + strconv.FormatInt(*userID, 10)
}

func (s *RedisStore) nextID(ctx context.Context, entity string) (int64, error) {
	id, err := s.client.Incr(ctx, "seq:"+entity).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", entity, err)
	}
	return id, nil
}

func (s *RedisStore) getJSON(ctx context.Context, key string, out any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	return json.Unmarshal(data, out)
}

func (s *RedisStore) setJSON(ctx context.Context, key string, val any) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := s.getJSON(ctx, userKey(id), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *RedisStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	idStr, err := s.client.Get(ctx, "usernames:"+username).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve username: %w", err)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt username index for %q: %w", username, err)
	}
	return s.GetUser(ctx, id)
}

func (s *RedisStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	id, err := s.nextID(ctx, "users")
	if err != nil {
		return nil, err
	}
	u := *user
	u.ID = id
	u.CreatedAt = time.Now()
	if err := s.setJSON(ctx, userKey(id), &u); err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, "usernames:"+u.Username, strconv.FormatInt(id, 10), 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to index username: %w", err)
	}
	return &u, nil
}

func (s *RedisStore) GetFile(ctx context.Context, id int64) (*models.File, error) {
	var file models.File
	if err := s.getJSON(ctx, fileKey(id), &file); err != nil {
		return nil, err
	}
	return &file, nil
}

func (s *RedisStore) CreateFile(ctx context.Context, file *models.File) (*models.File, error) {
	id, err := s.nextID(ctx, "files")
	if err != nil {
		return nil, err
	}
	f := *file
	f.ID = id
	f.CreatedAt = time.Now()
	if err := s.setJSON(ctx, fileKey(id), &f); err != nil {
		return nil, err
	}
	member := strconv.FormatInt(id, 10)
	if err := s.client.SAdd(ctx, ownerKey("files", f.UserID), member).Err(); err != nil {
		return nil, fmt.Errorf("failed to index file owner: %w", err)
	}
	if f.UserID == nil {
		err = s.client.ZAdd(ctx, "files:anon:created", redis.Z{
			Score:  float64(f.CreatedAt.Unix()),
			Member: member,
		}).Err()
		if err != nil {
			return nil, fmt.Errorf("failed to index file age: %w", err)
		}
	}
	return &f, nil
}

func (s *RedisStore) UpdateFile(ctx context.Context, id int64, upd FileUpdate) (*models.File, error) {
	var out *models.File
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, fileKey(id)).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var file models.File
		if err := json.Unmarshal(data, &file); err != nil {
			return err
		}
		if upd.OriginalName != nil {
			file.OriginalName = *upd.OriginalName
		}
		if upd.Metadata != nil {
			file.Metadata = upd.Metadata
		}
		updated, err := json.Marshal(&file)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, fileKey(id), updated, 0)
			return nil
		})
		if err != nil {
			return err
		}
		out = &file
		return nil
	}, fileKey(id))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RedisStore) DeleteFile(ctx context.Context, id int64) (bool, error) {
	file, err := s.GetFile(ctx, id)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	member := strconv.FormatInt(id, 10)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, fileKey(id))
		pipe.SRem(ctx, ownerKey("files", file.UserID), member)
		pipe.ZRem(ctx, "files:anon:created", member)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete file %d: %w", id, err)
	}
	return true, nil
}

func (s *RedisStore) ListFilesByOwner(ctx context.Context, userID *int64) ([]*models.File, error) {
	members, err := s.client.SMembers(ctx, ownerKey("files", userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return s.filesByMembers(ctx, members)
}

func (s *RedisStore) ListAnonymousFilesBefore(ctx context.Context, cutoff time.Time) ([]*models.File, error) {
	members, err := s.client.ZRangeByScore(ctx, "files:anon:created", &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list expired files: %w", err)
	}
	return s.filesByMembers(ctx, members)
}

func (s *RedisStore) filesByMembers(ctx context.Context, members []string) ([]*models.File, error) {
	var out []*models.File
	for _, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		file, err := s.GetFile(ctx, id)
		if err == ErrNotFound {
			// index can lag a delete
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, file)
	}
	return out, nil
}

func (s *RedisStore) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	var job models.Job
	if err := s.getJSON(ctx, jobKey(id), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *RedisStore) CreateJob(ctx context.Context, job *models.Job) (*models.Job, error) {
	id, err := s.nextID(ctx, "jobs")
	if err != nil {
		return nil, err
	}
	j := *job
	j.ID = id
	now := time.Now()
	j.CreatedAt = now
	j.UpdatedAt = now
	if err := s.setJSON(ctx, jobKey(id), &j); err != nil {
		return nil, err
	}
	if err := s.client.SAdd(ctx, ownerKey("jobs", j.UserID), strconv.FormatInt(id, 10)).Err(); err != nil {
		return nil, fmt.Errorf("failed to index job owner: %w", err)
	}
	return &j, nil
}

func (s *RedisStore) UpdateJob(ctx context.Context, id int64, upd JobUpdate) (*models.Job, error) {
	var out *models.Job
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, jobKey(id)).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var job models.Job
		if err := json.Unmarshal(data, &job); err != nil {
			return err
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
		updated, err := json.Marshal(&job)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, jobKey(id), updated, 0)
			return nil
		})
		if err != nil {
			return err
		}
		out = &job
		return nil
	}, jobKey(id))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RedisStore) ListJobsByOwner(ctx context.Context, userID *int64) ([]*models.Job, error) {
	members, err := s.client.SMembers(ctx, ownerKey("jobs", userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	var out []*models.Job
	for _, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		job, err := s.GetJob(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, nil
}
