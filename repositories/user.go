//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-relay/domain"
	"chat-relay/errors"
)

type IUserRepository interface {
	CreateUser(name, email, hashedPassword string) (string, error)
	GetUserByEmail(email string) (domain.User, error)
	UpdatePassword(email, hashedPassword string) error
	DeleteUser(email string) error
}

// UserRepository persists the user directory in BadgerDB, keyed by
// "user:{email}". Email uniqueness falls out of the key scheme.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// userRecord is the stored shape of a user. Kept separate from
// domain.User so the storage encoding can drift independently.
type userRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    int64  `json:"created_at"`
}

func userKey(email string) []byte {
	return []byte("user:" + email)
}

// CreateUser persists a new user under its email key and returns the
// generated user ID. Fails with ErrUserAlreadyExists if the email is
// taken.
func (u UserRepository) CreateUser(name, email, hashedPassword string) (string, error) {
	record := userRecord{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().Unix(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := userKey(email)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return "", err
	}
	return record.ID, nil
}

func (u UserRepository) GetUserByEmail(email string) (domain.User, error) {
	var record userRecord

	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(email))
		if err == badger.ErrKeyNotFound {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return domain.User{}, err
	}

	return toUser(record), nil
}

// UpdatePassword replaces the stored hash for an existing user.
func (u UserRepository) UpdatePassword(email, hashedPassword string) error {
	return u.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(email))
		if err == badger.ErrKeyNotFound {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}

		var record userRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return err
		}

		record.PasswordHash = hashedPassword
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		return txn.Set(userKey(email), data)
	})
}

func (u UserRepository) DeleteUser(email string) error {
	return u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(email)); err == badger.ErrKeyNotFound {
			return errors.ErrUserNotFound
		}
		return txn.Delete(userKey(email))
	})
}

func toUser(record userRecord) domain.User {
	return domain.User{
		ID:           record.ID,
		Name:         record.Name,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		CreatedAt:    time.Unix(record.CreatedAt, 0).UTC(),
	}
}
