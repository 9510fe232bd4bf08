package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Recipient is a user who receives a collaboration notification.
type Recipient struct {
	UserID uuid.UUID
	Name   string
	Email  string
}

// RecipientRepository resolves the owning staff member and the brand owner.
type RecipientRepository struct {
	pool *pgxpool.Pool
}

func NewRecipientRepository(pool *pgxpool.Pool) *RecipientRepository {
	return &RecipientRepository{pool: pool}
}

// Recipients returns the staff member followed by the brand owner, without duplicates.
func (r *RecipientRepository) Recipients(ctx context.Context, brandID, staffID uuid.UUID) ([]Recipient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.name, u.email, 0 AS ord
		FROM users u
		WHERE u.id = $2 AND u.brand_id = $1
		UNION
		SELECT u.id, u.name, u.email, 1 AS ord
		FROM brands b
		JOIN users u ON u.id = b.owner_id
		WHERE b.id = $1 AND b.owner_id <> $2
		ORDER BY ord
	`, brandID, staffID)
	if err != nil {
		return nil, fmt.Errorf("query notification recipients: %w", err)
	}
	defer rows.Close()

	var out []Recipient
	for rows.Next() {
		var rec Recipient
		var ord int
		if err := rows.Scan(&rec.UserID, &rec.Name, &rec.Email, &ord); err != nil {
			return nil, fmt.Errorf("scan notification recipient: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification recipients: %w", err)
	}
	return out, nil
}
