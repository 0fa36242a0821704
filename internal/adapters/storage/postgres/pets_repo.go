package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github-tamagotchi/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, repo_owner, repo_name, name,
	stage, mood, health, experience,
	created_at, updated_at, last_fed_at, last_checked_at, images_generated_at
`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (
			id, repo_owner, repo_name, name,
			stage, mood, health, experience,
			created_at, updated_at, last_fed_at, last_checked_at, images_generated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		p.ID,
		p.RepoOwner,
		p.RepoName,
		p.Name,
		string(p.Stage),
		string(p.Mood),
		p.Health,
		p.Experience,
		p.CreatedAt,
		p.UpdatedAt,
		toNullTime(p.LastFedAt),
		toNullTime(p.LastCheckedAt),
		toNullTime(p.ImagesGeneratedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation (índice único owner+repo)
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return pets.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			name = $2,
			stage = $3,
			mood = $4,
			health = $5,
			experience = $6,
			updated_at = $7,
			last_fed_at = $8,
			last_checked_at = $9,
			images_generated_at = $10
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		string(p.Stage),
		string(p.Mood),
		p.Health,
		p.Experience,
		p.UpdatedAt,
		toNullTime(p.LastFedAt),
		toNullTime(p.LastCheckedAt),
		toNullTime(p.ImagesGeneratedAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE id = $1
	`, id)
	return scanPet(row)
}

func (r *PetsRepo) GetByRepo(ctx context.Context, owner, repo string) (pets.Pet, error) {
	owner = strings.TrimSpace(owner)
	repo = strings.TrimSpace(repo)
	if owner == "" || repo == "" {
		return pets.Pet{}, pets.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE repo_owner = $1 AND repo_name = $2
	`, owner, repo)

	return scanPet(row)
}

func (r *PetsRepo) List(ctx context.Context, offset, limit int) ([]pets.Pet, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pets`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := scanPets(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PetsRepo) ListAll(ctx context.Context) ([]pets.Pet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPets(rows)
}

func (r *PetsRepo) Delete(ctx context.Context, owner, repo string) error {
	// los jobs caen por FK ON DELETE CASCADE
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM pets WHERE repo_owner = $1 AND repo_name = $2
	`, owner, repo)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (pets.Pet, error) {
	var p pets.Pet
	var stage, mood string
	var fed, checked, generated sql.NullTime

	if err := row.Scan(
		&p.ID,
		&p.RepoOwner,
		&p.RepoName,
		&p.Name,
		&stage,
		&mood,
		&p.Health,
		&p.Experience,
		&p.CreatedAt,
		&p.UpdatedAt,
		&fed,
		&checked,
		&generated,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pets.Pet{}, pets.ErrNotFound
		}
		return pets.Pet{}, err
	}

	p.Stage = pets.Stage(stage)
	p.Mood = pets.Mood(mood)
	p.LastFedAt = fromNullTime(fed)
	p.LastCheckedAt = fromNullTime(checked)
	p.ImagesGeneratedAt = fromNullTime(generated)

	return p, nil
}

func scanPets(rows *sql.Rows) ([]pets.Pet, error) {
	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
