package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/hotlist/internal/models"
	"github.com/desertthunder/hotlist/internal/shared"
)

const tokenColumns = "id, access_token, token_type, scope, expires_in, refresh_token, added_at"

// TokenRepository persists [models.TokenRecord] values. Rows are only ever inserted.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new [TokenRepository] with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// InsertToken appends token, assigning an ID and AddedAt when they are unset.
func (r *TokenRepository) InsertToken(ctx context.Context, token *models.TokenRecord) error {
	if token.AccessToken == "" {
		return fmt.Errorf("%w: token record has no access token", shared.ErrInvalidInput)
	}
	if token.ID == "" {
		token.ID = shared.GenerateID()
	}
	if token.AddedAt.IsZero() {
		token.AddedAt = time.Now()
	}
	token.AddedAt = token.AddedAt.UTC()

	query := `
		INSERT INTO tokens (` + tokenColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.AccessToken,
		token.TokenType,
		token.Scope,
		token.ExpiresIn,
		token.RefreshToken,
		token.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}

	return nil
}

// LatestToken returns the most recently added token, or nil if the table is empty.
func (r *TokenRepository) LatestToken(ctx context.Context) (*models.TokenRecord, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		ORDER BY added_at DESC, rowid DESC
		LIMIT 1
	`

	token, err := scanToken(r.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest token: %w", err)
	}

	return token, nil
}

// ListTokens returns up to limit token records, newest first. A non-positive limit returns all of them.
func (r *TokenRepository) ListTokens(ctx context.Context, limit int) ([]*models.TokenRecord, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		ORDER BY added_at DESC, rowid DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.TokenRecord
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tokens: %w", err)
	}

	return tokens, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanToken(row scanner) (*models.TokenRecord, error) {
	var token models.TokenRecord
	err := row.Scan(
		&token.ID,
		&token.AccessToken,
		&token.TokenType,
		&token.Scope,
		&token.ExpiresIn,
		&token.RefreshToken,
		&token.AddedAt,
	)
	if err != nil {
		return nil, err
	}
	return &token, nil
}
