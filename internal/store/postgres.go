package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS files (
	id            BIGSERIAL PRIMARY KEY,
	stored_name   TEXT NOT NULL,
	original_name TEXT NOT NULL,
	size          BIGINT NOT NULL,
	content_type  TEXT NOT NULL,
	user_id       BIGINT REFERENCES users(id),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	metadata      JSONB
);

CREATE TABLE IF NOT EXISTS jobs (
	id             BIGSERIAL PRIMARY KEY,
	tool_id        TEXT NOT NULL,
	status         TEXT NOT NULL,
	input_file_ids JSONB NOT NULL,
	output_file_id BIGINT REFERENCES files(id),
	options        JSONB,
	error          TEXT NOT NULL DEFAULT '',
	user_id        BIGINT REFERENCES users(id),
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore persists records in Postgres via sqlx. Ids come from
// BIGSERIAL sequences; partial updates run in a transaction holding a
// row lock so merges never drop concurrent writes.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects with the given DSN and ensures the schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type fileRow struct {
	ID           int64          `db:"id"`
	StoredName   string         `db:"stored_name"`
	OriginalName string         `db:"original_name"`
	Size         int64          `db:"size"`
	ContentType  string         `db:"content_type"`
	UserID       sql.NullInt64  `db:"user_id"`
	CreatedAt    time.Time      `db:"created_at"`
	Metadata     []byte         `db:"metadata"`
}

type jobRow struct {
	ID           int64         `db:"id"`
	ToolID       string        `db:"tool_id"`
	Status       string        `db:"status"`
	InputFileIDs []byte        `db:"input_file_ids"`
	OutputFileID sql.NullInt64 `db:"output_file_id"`
	Options      []byte        `db:"options"`
	Error        string        `db:"error"`
	UserID       sql.NullInt64 `db:"user_id"`
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

func (r *fileRow) toModel() (*models.File, error) {
	file := &models.File{
		ID:           r.ID,
		StoredName:   r.StoredName,
		OriginalName: r.OriginalName,
		Size:         r.Size,
		ContentType:  r.ContentType,
		CreatedAt:    r.CreatedAt,
	}
	if r.UserID.Valid {
		id := r.UserID.Int64
		file.UserID = &id
	}
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &file.Metadata); err != nil {
			return nil, fmt.Errorf("corrupt metadata on file %d: %w", r.ID, err)
		}
	}
	return file, nil
}

func (r *jobRow) toModel() (*models.Job, error) {
	job := &models.Job{
		ID:        r.ID,
		ToolID:    r.ToolID,
		Status:    models.JobStatus(r.Status),
		Options:   r.Options,
		Error:     r.Error,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.OutputFileID.Valid {
		id := r.OutputFileID.Int64
		job.OutputFileID = &id
	}
	if r.UserID.Valid {
		id := r.UserID.Int64
		job.UserID = &id
	}
	if len(r.InputFileIDs) > 0 {
		if err := json.Unmarshal(r.InputFileIDs, &job.InputFileIDs); err != nil {
			return nil, fmt.Errorf("corrupt input ids on job %d: %w", r.ID, err)
		}
	}
	return job, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	return &user, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	u := *user
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id, created_at`,
		u.Username, u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetFile(ctx context.Context, id int64) (*models.File, error) {
	var row fileRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM files WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file %d: %w", id, err)
	}
	return row.toModel()
}

func (s *PostgresStore) CreateFile(ctx context.Context, file *models.File) (*models.File, error) {
	metadata, err := json.Marshal(file.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	f := *file
	err = s.db.QueryRowxContext(ctx,
		`INSERT INTO files (stored_name, original_name, size, content_type, user_id, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		f.StoredName, f.OriginalName, f.Size, f.ContentType, nullableID(f.UserID), metadata).
		Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &f, nil
}

func (s *PostgresStore) UpdateFile(ctx context.Context, id int64, upd FileUpdate) (*models.File, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin update: %w", err)
	}
	defer tx.Rollback()

	var row fileRow
	err = tx.GetContext(ctx, &row, `SELECT * FROM files WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock file %d: %w", id, err)
	}

	if upd.OriginalName != nil {
		row.OriginalName = *upd.OriginalName
	}
	if upd.Metadata != nil {
		row.Metadata, err = json.Marshal(upd.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE files SET original_name = $1, metadata = $2 WHERE id = $3`,
		row.OriginalName, row.Metadata, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update file %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}
	return row.toModel()
}

func (s *PostgresStore) DeleteFile(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete file %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresStore) ListFilesByOwner(ctx context.Context, userID *int64) ([]*models.File, error) {
	var rows []fileRow
	var err error
	if userID == nil {
		err = s.db.SelectContext(ctx, &rows, `SELECT * FROM files WHERE user_id IS NULL ORDER BY id`)
	} else {
		err = s.db.SelectContext(ctx, &rows, `SELECT * FROM files WHERE user_id = $1 ORDER BY id`, *userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return fileRowsToModels(rows)
}

func (s *PostgresStore) ListAnonymousFilesBefore(ctx context.Context, cutoff time.Time) ([]*models.File, error) {
	var rows []fileRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM files WHERE user_id IS NULL AND created_at < $1 ORDER BY id`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired files: %w", err)
	}
	return fileRowsToModels(rows)
}

func fileRowsToModels(rows []fileRow) ([]*models.File, error) {
	out := make([]*models.File, 0, len(rows))
	for i := range rows {
		file, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, file)
	}
	return out, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	var row jobRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM jobs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %d: %w", id, err)
	}
	return row.toModel()
}

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) (*models.Job, error) {
	inputIDs, err := json.Marshal(job.InputFileIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input ids: %w", err)
	}
	j := *job
	options := []byte(j.Options)
	if options == nil {
		options = []byte("{}")
	}
	err = s.db.QueryRowxContext(ctx,
		`INSERT INTO jobs (tool_id, status, input_file_ids, options, error, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`,
		j.ToolID, string(j.Status), inputIDs, options, j.Error, nullableID(j.UserID)).
		Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return &j, nil
}

func (s *PostgresStore) UpdateJob(ctx context.Context, id int64, upd JobUpdate) (*models.Job, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin update: %w", err)
	}
	defer tx.Rollback()

	var row jobRow
	err = tx.GetContext(ctx, &row, `SELECT * FROM jobs WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock job %d: %w", id, err)
	}

	if upd.Status != nil {
		row.Status = string(*upd.Status)
	}
	if upd.OutputFileID != nil {
		row.OutputFileID = nullableID(upd.OutputFileID)
	}
	if upd.Error != nil {
		row.Error = *upd.Error
	}
	row.UpdatedAt = time.Now()

	_, err = tx.ExecContext(ctx,
		`UPDATE jobs SET status = $1, output_file_id = $2, error = $3, updated_at = $4 WHERE id = $5`,
		row.Status, row.OutputFileID, row.Error, row.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update job %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}
	return row.toModel()
}

func (s *PostgresStore) ListJobsByOwner(ctx context.Context, userID *int64) ([]*models.Job, error) {
	var rows []jobRow
	var err error
	if userID == nil {
		err = s.db.SelectContext(ctx, &rows, `SELECT * FROM jobs WHERE user_id IS NULL ORDER BY id`)
	} else {
		err = s.db.SelectContext(ctx, &rows, `SELECT * FROM jobs WHERE user_id = $1 ORDER BY id`, *userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	out := make([]*models.Job, 0, len(rows))
	for i := range rows {
		job, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, nil
}
