package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle of a bulk query download.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

var ErrJobNotFound = errors.New("job not found")

// Job is one recorded download. Only metadata is stored, never the payload.
type Job struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Destination string    `json:"destination"`
	Status      JobStatus `json:"status"`
	Bytes       int64     `json:"bytes"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Done reports whether the job reached a final state.
func (j *Job) Done() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// JobStore keeps download jobs in SQLite.
type JobStore struct {
	db *sql.DB
}

func NewJobStore(db *sql.DB) *JobStore {
	return &JobStore{db: db}
}

// NewJob registers a queued job under a fresh ID.
func (s *JobStore) NewJob(ctx context.Context, url, destination string) (*Job, error) {
	return s.CreateJob(ctx, uuid.NewString(), url, destination)
}

// CreateJob registers a queued job under id. Callers that name the download
// after the job pick the ID up front.
func (s *JobStore) CreateJob(ctx context.Context, id, url, destination string) (*Job, error) {
	if id == "" {
		return nil, fmt.Errorf("empty job id")
	}
	now := time.Now()
	job := &Job{
		ID:          id,
		URL:         url,
		Destination: destination,
		Status:      JobQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO download_jobs (id, url, destination, status, bytes, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, '', ?, ?)`,
		job.ID, job.URL, job.Destination, string(job.Status), now.UnixNano(), now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

// SetRunning marks the job as running.
func (s *JobStore) SetRunning(ctx context.Context, id string) error {
	return s.update(ctx, id, JobRunning, 0, "")
}

// CompleteJob records the downloaded size and marks the job complete.
func (s *JobStore) CompleteJob(ctx context.Context, id string, bytes int64) error {
	return s.update(ctx, id, JobCompleted, bytes, "")
}

// FailJob records a failure message.
func (s *JobStore) FailJob(ctx context.Context, id string, jobErr error) error {
	msg := "unknown error"
	if jobErr != nil {
		msg = jobErr.Error()
	}
	return s.update(ctx, id, JobFailed, 0, msg)
}

func (s *JobStore) update(ctx context.Context, id string, status JobStatus, bytes int64, msg string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE download_jobs SET status = ?, bytes = ?, error = ?, updated_at = ?
		WHERE id = ?`,
		string(status), bytes, msg, time.Now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return nil
}

// GetJob fetches a job by ID.
func (s *JobStore) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, destination, status, bytes, error, created_at, updated_at
		FROM download_jobs WHERE id = ?`, id)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, err
}

// ListJobs returns the most recent jobs first.
func (s *JobStore) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, destination, status, bytes, error, created_at, updated_at
		FROM download_jobs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*Job, 0, limit)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*Job, error) {
	var (
		job              Job
		status           string
		created, updated int64
	)
	if err := row.Scan(&job.ID, &job.URL, &job.Destination, &status, &job.Bytes, &job.Error, &created, &updated); err != nil {
		return nil, err
	}
	job.Status = JobStatus(status)
	job.CreatedAt = time.Unix(0, created)
	job.UpdatedAt = time.Unix(0, updated)
	return &job, nil
}
