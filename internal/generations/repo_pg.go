package generations

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const generationColumns = `id, name, email, source, cv_path, archive_key, size_bytes, created_at`

// Create inserts a generation.
func (r *PGRepo) Create(ctx context.Context, gen Generation) error {
	const query = `
INSERT INTO cv_generations (` + generationColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		gen.ID,
		gen.Name,
		gen.Email,
		gen.Source,
		gen.Path,
		gen.ArchiveKey,
		gen.SizeBytes,
		gen.CreatedAt,
	)
	return err
}

// GetByID returns a generation by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Generation, error) {
	const query = `
SELECT ` + generationColumns + `
FROM cv_generations
WHERE id = $1
LIMIT 1`
	gen, err := scanGeneration(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Generation{}, ErrNotFound
		}
		return Generation{}, err
	}
	return gen, nil
}

// List lists generations ordered newest-first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Generation, error) {
	limit, offset = clampPage(limit, offset)
	const query = `
SELECT ` + generationColumns + `
FROM cv_generations
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Generation{}
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, gen)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (Generation, error) {
	var gen Generation
	err := row.Scan(
		&gen.ID,
		&gen.Name,
		&gen.Email,
		&gen.Source,
		&gen.Path,
		&gen.ArchiveKey,
		&gen.SizeBytes,
		&gen.CreatedAt,
	)
	return gen, err
}

var _ Repo = (*PGRepo)(nil)
