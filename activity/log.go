// ABOUTME: Append-only activity feed backed by Badger
// ABOUTME: Stores mutation records under ULID keys for time-ordered scans
package activity

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/oklog/ulid/v2"

	"github.com/coldreach/coldreach/models"
)

// Log is an append-only store of Activity records. Keys are ULIDs, so a
// reverse scan yields newest-first without a secondary index.
type Log struct {
	db *badger.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open opens (or creates) the activity log at path.
func Open(path string) (*Log, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return &Log{db: db, entropy: entropy}, nil
}

func (l *Log) Close() error {
	return l.db.Close()
}

// Record appends one activity. The ID and CreatedAt fields are assigned here.
func (l *Log) Record(a *models.Activity) error {
	now := time.Now()

	l.mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now), l.entropy).String()
	l.mu.Unlock()

	a.ID = id
	a.CreatedAt = now

	data, err := json.Marshal(a)
	if err != nil {
		return err
	}

	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(a.ID), data)
	})
}

// Recent returns up to limit activities, newest first.
func (l *Log) Recent(limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}

	activities := make([]models.Activity, 0, limit)

	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		// ULIDs are 26 chars of Crockford base32; seek past the largest key.
		for it.Seek([]byte("~")); it.Valid() && len(activities) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var a models.Activity
				if err := json.Unmarshal(val, &a); err != nil {
					return err
				}
				activities = append(activities, a)
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

	return activities, nil
}
