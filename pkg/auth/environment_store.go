package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore on environment variables, for
// CI and container runs where no keychain or config directory exists.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-based credential store.
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables.
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve builds an account from LISCRAPER_EMAIL and LISCRAPER_PASSWORD.
// An empty email argument matches whatever the environment holds.
func (e *EnvironmentStore) Retrieve(email string) (*Account, error) {
	envEmail := os.Getenv("LISCRAPER_EMAIL")
	password := os.Getenv("LISCRAPER_PASSWORD")

	if envEmail == "" || password == "" {
		return nil, ErrCredentialsNotFound
	}
	if email != "" && email != envEmail {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Email:        envEmail,
		Password:     password,
		UserAgent:    os.Getenv("LISCRAPER_USER_AGENT"),
		LastModified: time.Now(),
	}, nil
}

// List returns the single environment account when set.
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables.
func (e *EnvironmentStore) Delete(email string) error {
	return ErrStoreUnavailable
}

// Exists checks whether the environment credentials are set.
func (e *EnvironmentStore) Exists(email string) bool {
	_, err := e.Retrieve(email)
	return err == nil
}
