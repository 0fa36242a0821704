package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github-tamagotchi/internal/domain/imagejobs"
)

type JobsRepo struct {
	db *sql.DB
}

func NewJobsRepo(db *sql.DB) *JobsRepo {
	return &JobsRepo{db: db}
}

const jobColumns = `
	id, pet_id, status, stage, attempts, error,
	created_at, started_at, completed_at
`

func (r *JobsRepo) Create(ctx context.Context, j imagejobs.Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO image_generation_jobs (
			id, pet_id, status, stage, attempts, error,
			created_at, started_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		j.ID,
		j.PetID,
		string(j.Status),
		j.Stage,
		j.Attempts,
		j.Error,
		j.CreatedAt,
		toNullTime(j.StartedAt),
		toNullTime(j.CompletedAt),
	)
	return err
}

func (r *JobsRepo) GetByID(ctx context.Context, id string) (imagejobs.Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM image_generation_jobs
		WHERE id = $1
	`, id)
	return scanJob(row)
}

func (r *JobsRepo) ListByPet(ctx context.Context, petID string) ([]imagejobs.Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+`
		FROM image_generation_jobs
		WHERE pet_id = $1
		ORDER BY created_at DESC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]imagejobs.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// NextPending: FIFO real de la cola. El índice (status, created_at)
// hace que esto no recorra la tabla.
func (r *JobsRepo) NextPending(ctx context.Context) (imagejobs.Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM image_generation_jobs
		WHERE status = $1 AND attempts < $2
		ORDER BY created_at ASC
		LIMIT 1
	`, string(imagejobs.StatusPending), imagejobs.MaxAttempts)
	return scanJob(row)
}

func (r *JobsRepo) MarkProcessing(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE image_generation_jobs
		SET status = $2, started_at = $3, attempts = attempts + 1
		WHERE id = $1
	`, id, string(imagejobs.StatusProcessing), time.Now().UTC())
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return imagejobs.ErrNotFound
	}
	return nil
}

func (r *JobsRepo) MarkCompleted(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE image_generation_jobs
		SET status = $2, completed_at = $3, error = ''
		WHERE id = $1
	`, id, string(imagejobs.StatusCompleted), time.Now().UTC())
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return imagejobs.ErrNotFound
	}
	return nil
}

func (r *JobsRepo) MarkFailed(ctx context.Context, id string, status imagejobs.Status, errText string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE image_generation_jobs
		SET status = $2, error = $3
		WHERE id = $1
	`, id, string(status), errText)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return imagejobs.ErrNotFound
	}
	return nil
}

func (r *JobsRepo) CountByStatus(ctx context.Context) (map[imagejobs.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM image_generation_jobs
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[imagejobs.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[imagejobs.Status(status)] = n
	}
	return out, rows.Err()
}

func scanJob(row rowScanner) (imagejobs.Job, error) {
	var j imagejobs.Job
	var status string
	var started, completed sql.NullTime

	if err := row.Scan(
		&j.ID,
		&j.PetID,
		&status,
		&j.Stage,
		&j.Attempts,
		&j.Error,
		&j.CreatedAt,
		&started,
		&completed,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return imagejobs.Job{}, imagejobs.ErrNotFound
		}
		return imagejobs.Job{}, err
	}

	j.Status = imagejobs.Status(status)
	j.StartedAt = fromNullTime(started)
	j.CompletedAt = fromNullTime(completed)

	return j, nil
}
