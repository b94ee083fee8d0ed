package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerStoreAndRetrieve(t *testing.T) {
	manager, store := NewMockManager()

	account := &Account{Email: "me@example.com", Password: "hunter2hunter2"}
	require.NoError(t, manager.Store(account))
	assert.False(t, account.LastModified.IsZero())

	got, err := manager.Retrieve("me@example.com")
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", got.Email)
	assert.Equal(t, "hunter2hunter2", got.Password)
	assert.Equal(t, 1, store.Count())
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	assert.Error(t, manager.Store(&Account{Password: "pw"}))
	assert.Error(t, manager.Store(&Account{Email: "me@example.com"}))
}

func TestManagerStoreFallsThroughFailingStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	working := NewMockStore()
	manager := NewMockManagerWithStores(broken, working)

	require.NoError(t, manager.Store(&Account{Email: "me@example.com", Password: "pw"}))
	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, working.Count())
}

func TestManagerRetrieveChecksAllStores(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()
	require.NoError(t, second.Store(&Account{Email: "deep@example.com", Password: "pw"}))
	manager := NewMockManagerWithStores(first, second)

	got, err := manager.Retrieve("deep@example.com")
	require.NoError(t, err)
	assert.Equal(t, "deep@example.com", got.Email)

	_, err = manager.Retrieve("nobody@example.com")
	assert.Error(t, err)
}

func TestManagerListMergesNewestWins(t *testing.T) {
	old := NewMockStore()
	require.NoError(t, old.Store(&Account{
		Email: "me@example.com", Password: "old", LastModified: time.Now().Add(-time.Hour),
	}))
	recent := NewMockStore()
	require.NoError(t, recent.Store(&Account{
		Email: "me@example.com", Password: "new", LastModified: time.Now(),
	}))
	require.NoError(t, recent.Store(&Account{
		Email: "other@example.com", Password: "pw", LastModified: time.Now(),
	}))
	manager := NewMockManagerWithStores(old, recent)

	accounts, err := manager.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	byEmail := make(map[string]*Account)
	for _, a := range accounts {
		byEmail[a.Email] = a
	}
	assert.Equal(t, "new", byEmail["me@example.com"].Password)
}

func TestManagerDelete(t *testing.T) {
	manager, store := NewMockManager()
	require.NoError(t, manager.Store(&Account{Email: "me@example.com", Password: "pw"}))

	require.NoError(t, manager.Delete("me@example.com"))
	assert.Equal(t, 0, store.Count())

	assert.Error(t, manager.Delete("me@example.com"))
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("LISCRAPER_EMAIL", "env@example.com")
	t.Setenv("LISCRAPER_PASSWORD", "secret")
	t.Setenv("LISCRAPER_USER_AGENT", "Mozilla/5.0 test")

	store := NewEnvironmentStore()

	t.Run("empty email matches environment", func(t *testing.T) {
		account, err := store.Retrieve("")
		require.NoError(t, err)
		assert.Equal(t, "env@example.com", account.Email)
		assert.Equal(t, "secret", account.Password)
		assert.Equal(t, "Mozilla/5.0 test", account.UserAgent)
	})

	t.Run("mismatched email is not found", func(t *testing.T) {
		_, err := store.Retrieve("someone@example.com")
		assert.ErrorIs(t, err, ErrCredentialsNotFound)
	})

	t.Run("read only", func(t *testing.T) {
		assert.ErrorIs(t, store.Store(&Account{Email: "x", Password: "y"}), ErrStoreUnavailable)
		assert.ErrorIs(t, store.Delete("env@example.com"), ErrStoreUnavailable)
	})

	t.Run("list returns the single account", func(t *testing.T) {
		accounts, err := store.List()
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "env@example.com", accounts[0].Email)
	})
}

func TestRetrieveDefaultPrefersEnvironment(t *testing.T) {
	t.Setenv("LISCRAPER_EMAIL", "env@example.com")
	t.Setenv("LISCRAPER_PASSWORD", "secret")

	stored := NewMockStore()
	require.NoError(t, stored.Store(&Account{Email: "stored@example.com", Password: "pw"}))
	manager := NewMockManagerWithStores(stored, NewEnvironmentStore())

	account, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "env@example.com", account.Email)
}

func TestRetrieveDefaultFallsBackToStored(t *testing.T) {
	t.Setenv("LISCRAPER_EMAIL", "")
	t.Setenv("LISCRAPER_PASSWORD", "")

	stored := NewMockStore()
	require.NoError(t, stored.Store(&Account{Email: "stored@example.com", Password: "pw"}))
	manager := NewMockManagerWithStores(stored, NewEnvironmentStore())

	account, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "stored@example.com", account.Email)
}

func TestEncryptedFileStoreRoundtrip(t *testing.T) {
	t.Setenv("LISCRAPER_PASSPHRASE", "test-passphrase-for-roundtrip")
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	account := &Account{
		Email:        "sealed@example.com",
		Password:     "very secret password",
		UserAgent:    "Mozilla/5.0",
		LastModified: time.Now(),
	}
	require.NoError(t, store.Store(account))

	// The plaintext must not be readable off disk.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "very secret password")

	// A fresh store with the same passphrase decrypts it.
	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	got, err := reopened.Retrieve("sealed@example.com")
	require.NoError(t, err)
	assert.Equal(t, "very secret password", got.Password)
	assert.Equal(t, "Mozilla/5.0", got.UserAgent)

	// The wrong passphrase cannot.
	t.Setenv("LISCRAPER_PASSPHRASE", "not-the-passphrase")
	wrongKey, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = wrongKey.Retrieve("sealed@example.com")
	assert.Error(t, err)
}

func TestEncryptedFileStoreDeleteRemovesEmptyFile(t *testing.T) {
	t.Setenv("LISCRAPER_PASSPHRASE", "test-passphrase")
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Account{Email: "a@example.com", Password: "pw"}))
	require.NoError(t, store.Store(&Account{Email: "b@example.com", Password: "pw"}))

	require.NoError(t, store.Delete("a@example.com"))
	assert.True(t, store.Exists("b@example.com"))

	require.NoError(t, store.Delete("b@example.com"))
	matches, _ := filepath.Glob(path)
	assert.Empty(t, matches, "deleting the last account removes the file")
}

func TestSanitizeAccount(t *testing.T) {
	assert.Nil(t, SanitizeAccount(nil))

	short := SanitizeAccount(&Account{Email: "a@example.com", Password: "tiny"})
	assert.Equal(t, "********", short.Password)

	long := SanitizeAccount(&Account{Email: "a@example.com", Password: "supersecretpassword"})
	assert.Equal(t, "su...rd", long.Password)
	assert.Equal(t, "a@example.com", long.Email)
}
