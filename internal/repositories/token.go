package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"golang.org/x/oauth2"
)

// ErrTokenNotFound is returned when no credential is stored for a provider.
var ErrTokenNotFound = errors.New("token not found")

const tokenColumns = `id, sequence, provider, access_token, refresh_token, token_type, expiry, created_at, updated_at`

// TokenRepository implements [models.Store] for [models.StoredToken].
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new [TokenRepository] with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create inserts token with a generated ID and sequence.
func (r *TokenRepository) Create(token *models.StoredToken) error {
	if err := token.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(tx, "oauth_tokens")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	_, err = tx.Exec(
		`INSERT INTO oauth_tokens (`+tokenColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sequence, token.Provider, token.AccessToken, token.RefreshToken, token.TokenType,
		nullTime(token.Expiry), token.CreatedAt(), token.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit token: %w", err)
	}

	token.SetID(id)
	token.SetSequence(sequence)
	return nil
}

// Get retrieves a token by ID.
func (r *TokenRepository) Get(id string) (*models.StoredToken, error) {
	row := r.db.QueryRow(`SELECT `+tokenColumns+` FROM oauth_tokens WHERE id = ?`, id)
	return scanToken(row)
}

// GetByProvider retrieves the token stored for provider.
func (r *TokenRepository) GetByProvider(provider string) (*models.StoredToken, error) {
	row := r.db.QueryRow(`SELECT `+tokenColumns+` FROM oauth_tokens WHERE provider = ?`, provider)
	return scanToken(row)
}

// Update overwrites the credential fields of an existing token.
func (r *TokenRepository) Update(token *models.StoredToken) error {
	if err := token.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	token.SetUpdatedAt(time.Now().UTC())
	res, err := r.db.Exec(
		`UPDATE oauth_tokens SET access_token = ?, refresh_token = ?, token_type = ?, expiry = ?, updated_at = ? WHERE id = ?`,
		token.AccessToken, token.RefreshToken, token.TokenType, nullTime(token.Expiry), token.UpdatedAt(), token.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update token: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrTokenNotFound, token.ID())
	}
	return nil
}

// Save upserts an [oauth2.Token] for provider. It is shaped to be used as a token refresh callback.
//
// A refresh response without a refresh token keeps the one already stored.
func (r *TokenRepository) Save(provider string, tok *oauth2.Token) error {
	if tok == nil {
		return fmt.Errorf("%w: nil token", shared.ErrInvalidCredentials)
	}

	existing, err := r.GetByProvider(provider)
	switch {
	case errors.Is(err, ErrTokenNotFound):
		return r.Create(models.NewStoredToken(provider, tok.AccessToken, tok.RefreshToken, tok.Expiry))
	case err != nil:
		return err
	}

	existing.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		existing.RefreshToken = tok.RefreshToken
	}
	existing.Expiry = tok.Expiry
	return r.Update(existing)
}

// OAuthToken loads the stored credential for provider as an [oauth2.Token].
func (r *TokenRepository) OAuthToken(provider string) (*oauth2.Token, error) {
	stored, err := r.GetByProvider(provider)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		TokenType:    stored.TokenType,
		Expiry:       stored.Expiry,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanToken(s scanner) (*models.StoredToken, error) {
	var (
		id, provider, access, refresh, tokenType string
		sequence                                 int
		expiry                                   sql.NullTime
		createdAt, updatedAt                     time.Time
	)

	err := s.Scan(&id, &sequence, &provider, &access, &refresh, &tokenType, &expiry, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan token: %w", err)
	}

	token := models.NewStoredToken(provider, access, refresh, expiry.Time)
	token.TokenType = tokenType
	token.SetID(id)
	token.SetSequence(sequence)
	token.SetCreatedAt(createdAt)
	token.SetUpdatedAt(updatedAt)
	return token, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
