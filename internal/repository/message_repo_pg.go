package repository

import (
	"context"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGMessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) MessageRepository {
	return &PGMessageRepository{db: db}
}

func (r *PGMessageRepository) Create(ctx context.Context, m *domain.Message) error {
	m.ID = uuid.NewString()
	return r.db.QueryRow(ctx, `INSERT INTO messages (id, name, email, message) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		m.ID, m.Name, m.Email, m.Message).Scan(&m.CreatedAt)
}

func (r *PGMessageRepository) List(ctx context.Context) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, email, message, created_at FROM messages ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]domain.Message, 0)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *PGMessageRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM messages WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ MessageRepository = (*PGMessageRepository)(nil)
