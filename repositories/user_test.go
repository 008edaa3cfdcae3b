package repositories

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"chat-relay/errors"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	id, err := repository.CreateUser("Alice", "alice@example.com", "$argon2id$fake")
	req.NoError(err)
	req.NotEmpty(id)

	user, err := repository.GetUserByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(id, user.ID)
	req.Equal("Alice", user.Name)
	req.Equal("alice@example.com", user.Email)
	req.Equal("$argon2id$fake", user.PasswordHash)
	req.False(user.CreatedAt.IsZero())
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.CreateUser("Alice", "alice@example.com", "hash1")
	req.NoError(err)

	_, err = repository.CreateUser("Impostor", "alice@example.com", "hash2")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)

	// The original record wins.
	user, err := repository.GetUserByEmail("alice@example.com")
	req.NoError(err)
	req.Equal("Alice", user.Name)
}

func TestUserRepository_UnknownEmail(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.GetUserByEmail("ghost@example.com")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.CreateUser("Alice", "alice@example.com", "old-hash")
	req.NoError(err)

	req.NoError(repository.UpdatePassword("alice@example.com", "new-hash"))

	user, err := repository.GetUserByEmail("alice@example.com")
	req.NoError(err)
	req.Equal("new-hash", user.PasswordHash)

	req.ErrorIs(repository.UpdatePassword("ghost@example.com", "x"), errors.ErrUserNotFound)
}

func TestUserRepository_DeleteUser(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.CreateUser("Alice", "alice@example.com", "hash")
	req.NoError(err)

	req.NoError(repository.DeleteUser("alice@example.com"))

	_, err = repository.GetUserByEmail("alice@example.com")
	req.ErrorIs(err, errors.ErrUserNotFound)

	req.ErrorIs(repository.DeleteUser("alice@example.com"), errors.ErrUserNotFound)
}
