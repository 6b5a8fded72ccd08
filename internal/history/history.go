// Package history keeps a durable journal of transfer sessions in BadgerDB.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const sessionPrefix = "session:"

// ErrSessionNotFound is returned by Get for unknown ids.
var ErrSessionNotFound = errors.New("session not found")

type Role string

const (
	RoleSend    Role = "send"
	RoleReceive Role = "receive"
)

// Status mirrors the externally visible session states.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// SessionRecord is what gets journaled for each session.
type SessionRecord struct {
	ID         string    `json:"id"`
	Role       Role      `json:"role"`
	Peer       string    `json:"peer"`
	Files      []string  `json:"files"`
	Bytes      int64     `json:"bytes"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Journal wraps BadgerDB for session records.
type Journal struct {
	db *badger.DB
}

// Open opens (or creates) a journal at dbPath.
func Open(dbPath string) (*Journal, error) {
	db, err := badger.Open(badger.DefaultOptions(dbPath).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	return &Journal{db: db}, nil
}

// OpenInMemory returns a journal that is lost on Close.
func OpenInMemory() (*Journal, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory BadgerDB: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Put stores rec, replacing any earlier record with the same id.
func (j *Journal) Put(rec SessionRecord) error {
	if rec.ID == "" {
		return errors.New("session record without id")
	}
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sessionPrefix+rec.ID), val)
	})
}

// Get retrieves a record by session id.
func (j *Journal) Get(id string) (SessionRecord, error) {
	var rec SessionRecord
	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return rec, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return rec, err
}

// List returns every record, newest first.
func (j *Journal) List() ([]SessionRecord, error) {
	var records []SessionRecord
	err := j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(sessionPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec SessionRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				records = append(records, rec)
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

	sort.SliceStable(records, func(a, b int) bool {
		return records[a].StartedAt.After(records[b].StartedAt)
	})
	return records, nil
}
