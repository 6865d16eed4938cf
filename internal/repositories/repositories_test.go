package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"golang.org/x/oauth2"
)

var _ models.Store[*models.StoredToken] = (*TokenRepository)(nil)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "oauth_tokens")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for table without a sequence")
	}
}

func TestTokenRepository(t *testing.T) {
	expiry := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Create and Get", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		token := models.NewStoredToken("spotify", "access", "refresh", expiry)

		if err := repo.Create(token); err != nil {
			t.Fatalf("failed to create token: %v", err)
		}
		if token.ID() == "" {
			t.Fatal("token ID should be set after creation")
		}
		if token.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", token.Sequence())
		}

		got, err := repo.Get(token.ID())
		if err != nil {
			t.Fatalf("failed to get token: %v", err)
		}
		if got.AccessToken != "access" || got.RefreshToken != "refresh" {
			t.Errorf("unexpected token values: %+v", got)
		}
		if !got.Expiry.Equal(expiry) {
			t.Errorf("expected expiry %v, got %v", expiry, got.Expiry)
		}
	})

	t.Run("Create rejects invalid token", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		if err := repo.Create(models.NewStoredToken("", "a", "", time.Time{})); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		if _, err := repo.GetByProvider("spotify"); !errors.Is(err, ErrTokenNotFound) {
			t.Errorf("expected ErrTokenNotFound, got %v", err)
		}
	})

	t.Run("Save upserts by provider", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewTokenRepository(db)

		if err := repo.Save("spotify", &oauth2.Token{AccessToken: "a1", RefreshToken: "r1", Expiry: expiry}); err != nil {
			t.Fatalf("first save failed: %v", err)
		}
		if err := repo.Save("spotify", &oauth2.Token{AccessToken: "a2", Expiry: expiry.Add(time.Hour)}); err != nil {
			t.Fatalf("second save failed: %v", err)
		}

		var rows int
		if err := db.QueryRow(`SELECT COUNT(*) FROM oauth_tokens WHERE provider = ?`, "spotify").Scan(&rows); err != nil {
			t.Fatalf("failed to count tokens: %v", err)
		}
		if rows != 1 {
			t.Fatalf("expected a single row per provider, got %d", rows)
		}

		tok, err := repo.OAuthToken("spotify")
		if err != nil {
			t.Fatalf("failed to load oauth token: %v", err)
		}
		if tok.AccessToken != "a2" {
			t.Errorf("expected refreshed access token, got %s", tok.AccessToken)
		}
		if tok.RefreshToken != "r1" {
			t.Errorf("expected refresh token to be kept, got %q", tok.RefreshToken)
		}

		if err := repo.Save("spotify", nil); err == nil {
			t.Error("expected error for nil token")
		}
	})

	t.Run("Update missing", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		token := models.NewStoredToken("spotify", "access", "", time.Time{})
		token.SetID("ghost")
		if err := repo.Update(token); !errors.Is(err, ErrTokenNotFound) {
			t.Errorf("expected ErrTokenNotFound, got %v", err)
		}
	})
}
