package models

import (
	"fmt"
	"time"
)

// StoredToken is a persisted OAuth credential for one provider.
type StoredToken struct {
	id           string
	sequence     int
	Provider     string
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

// NewStoredToken creates a token record stamped with the current time.
func NewStoredToken(provider, access, refresh string, expiry time.Time) *StoredToken {
	now := time.Now().UTC()
	return &StoredToken{
		Provider:     provider,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		Expiry:       expiry,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (t *StoredToken) ID() string           { return t.id }
func (t *StoredToken) Sequence() int        { return t.sequence }
func (t *StoredToken) CreatedAt() time.Time { return t.createdAt }
func (t *StoredToken) UpdatedAt() time.Time { return t.updatedAt }

func (t *StoredToken) SetID(id string)                { t.id = id }
func (t *StoredToken) SetSequence(seq int)            { t.sequence = seq }
func (t *StoredToken) SetCreatedAt(created time.Time) { t.createdAt = created }
func (t *StoredToken) SetUpdatedAt(updated time.Time) { t.updatedAt = updated }

// Validate checks the token has an owner and something to authenticate with.
func (t *StoredToken) Validate() error {
	if t.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if t.AccessToken == "" && t.RefreshToken == "" {
		return fmt.Errorf("access or refresh token is required")
	}
	return nil
}
