package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/impostor/internal/words"
)

// CategoryStore reads the curated word lists a host can pull into a room's
// word bank.
type CategoryStore struct {
	db *pgxpool.Pool
}

func NewCategoryStore(db *pgxpool.Pool) *CategoryStore {
	return &CategoryStore{db: db}
}

func (s *CategoryStore) List(ctx context.Context) ([]words.Category, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, COALESCE(icon, ''), words
		FROM word_categories
		ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []words.Category
	for rows.Next() {
		var c words.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Words); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
