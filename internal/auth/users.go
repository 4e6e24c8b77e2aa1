package auth

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/superior-pamerca/admin-api/internal/models"
)

// UserStore resolves seeded admin credentials. The panel has a small
// fixed user set; there is no registration flow.
type UserStore struct {
	credentials []models.Credential
}

// seededCredentials are the built-in panel users. The hashes below are
// bcrypt digests of the deployment's initial passwords; override the
// whole set with AUTH_USERS_FILE in any real deployment.
func seededCredentials() []models.Credential {
	return []models.Credential{
		{
			ID:           "1",
			Email:        "admin@superiorpamerca.com",
			Username:     "admin",
			PasswordHash: "$2a$10$opCNmoUpnMeKmmnp2F5k5OhH7tb6bwgbEB0nIwzNp/hEyK2kbOEiu",
			Name:         "Administrador",
			Role:         "admin",
		},
		{
			ID:           "2",
			Email:        "editor@superiorpamerca.com",
			Username:     "editor",
			PasswordHash: "$2a$10$TQ0OoqfxouKYlss5awPXBeSljY6HgQGIJedl0SxMmz2ANwDyS/Vq2",
			Name:         "Editor",
			Role:         "editor",
		},
	}
}

// NewUserStore loads credentials from usersFile when set, falling back
// to the seeded set.
func NewUserStore(usersFile string) (*UserStore, error) {
	if usersFile == "" {
		return &UserStore{credentials: seededCredentials()}, nil
	}

	raw, err := os.ReadFile(usersFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file %s: %w", usersFile, err)
	}

	var loaded []struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		Username     string `json:"username"`
		PasswordHash string `json:"password_hash"`
		Name         string `json:"name"`
		Role         string `json:"role"`
	}
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse users file %s: %w", usersFile, err)
	}

	credentials := make([]models.Credential, 0, len(loaded))
	for _, c := range loaded {
		credentials = append(credentials, models.Credential{
			ID:           c.ID,
			Email:        c.Email,
			Username:     c.Username,
			PasswordHash: c.PasswordHash,
			Name:         c.Name,
			Role:         c.Role,
		})
	}

	return &UserStore{credentials: credentials}, nil
}

// NewUserStoreWith creates a store over an explicit credential set
func NewUserStoreWith(credentials []models.Credential) *UserStore {
	return &UserStore{credentials: credentials}
}

// Authenticate matches identity (email or username) and password
// against the credential set, returning the user on success.
func (s *UserStore) Authenticate(identity, password string) *models.User {
	for _, c := range s.credentials {
		if c.Email != identity && c.Username != identity {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
			return nil
		}
		return &models.User{ID: c.ID, Email: c.Email, Name: c.Name, Role: c.Role}
	}
	return nil
}

// HashPassword produces a bcrypt hash for users-file provisioning
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
