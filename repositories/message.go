//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) (uint64, error)
	RecentMessages(limit int) ([]DiskMessage, error)
}

// DiskMessage is the persisted shape of a chat message. Sender email
// and name are denormalized into the record because the KV store has
// no join; they are frozen at send time.
type DiskMessage struct {
	ID        uint64    `json:"id"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageRepository is an append-only message log in BadgerDB.
//
// Keys are "msg:{id}" with the store-assigned id zero-padded to 19
// digits, so lexicographic key order equals append order and the
// bounded recent-read is a reverse prefix scan.
type MessageRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

const messagePrefix = "msg:"

// seqBandwidth controls how many ids each Sequence lease reserves.
// Unused ids in a lease are lost on close, leaving gaps but never
// breaking monotonicity.
const seqBandwidth = 100

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte("seq:messages"), seqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("message sequence init failed: %w", err)
	}
	return &MessageRepository{db: db, seq: seq, log: log}, nil
}

// Close releases the id sequence lease. Call before closing the DB.
func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

func messageKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%019d", messagePrefix, id))
}

// StoreMessage appends a message and returns its store-assigned id.
// The caller's ID field is ignored.
func (m *MessageRepository) StoreMessage(message DiskMessage) (uint64, error) {
	id, err := m.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("message id allocation failed: %w", err)
	}
	message.ID = id

	data, err := json.Marshal(message)
	if err != nil {
		return 0, fmt.Errorf("marshal failed: %w", err)
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(id), data)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// RecentMessages returns at most limit of the newest messages in
// chronological order (oldest of the window first).
func (m *MessageRepository) RecentMessages(limit int) ([]DiskMessage, error) {
	var raw [][]byte

	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(messagePrefix)
		// Seek past the last possible message key, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(raw) == limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", limit))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The scan is newest-first; flip to chronological order.
	messages := make([]DiskMessage, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var message DiskMessage
		if err := json.Unmarshal(raw[i], &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}
