package buffer

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrFull is returned by Enqueue once the buffer holds maxSize items.
var ErrFull = errors.New("buffer is full")

// Store is a BoltDB-backed queue of writes waiting for the primary store.
// Keys sort by priority then age, so a cursor walk yields drain order.
type Store struct {
	db      *bolt.DB
	bucket  []byte
	maxSize int
}

// Open creates the file and its parent directories if needed.
// A maxSize of zero or less leaves the buffer unbounded.
func Open(path string, bucket string, maxSize int) (*Store, error) {
	if bucket == "" {
		bucket = "buffer"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, bucket: []byte(bucket), maxSize: maxSize}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) view(fn func(b *bolt.Bucket) error) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.View(func(tx *bolt.Tx) error { return fn(tx.Bucket(s.bucket)) })
}

func (s *Store) update(fn func(b *bolt.Bucket) error) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error { return fn(tx.Bucket(s.bucket)) })
}

func (s *Store) Enqueue(item Item) error {
	item.normalize()
	item.bucketKey = item.key()
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return s.update(func(b *bolt.Bucket) error {
		if s.maxSize > 0 && b.Stats().KeyN >= s.maxSize {
			return ErrFull
		}
		return b.Put(item.bucketKey, payload)
	})
}

// GetBatch returns up to limit items in drain order without removing them.
// Entries that no longer decode are deleted on the way.
func (s *Store) GetBatch(limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 50
	}
	var (
		items   []Item
		corrupt [][]byte
	)
	err := s.view(func(b *bolt.Bucket) error {
		c := b.Cursor()
		for k, v := c.First(); k != nil && len(items) < limit; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				corrupt = append(corrupt, append([]byte(nil), k...))
				continue
			}
			item.bucketKey = append([]byte(nil), k...)
			items = append(items, item)
		}
		return nil
	})
	if err != nil || len(corrupt) == 0 {
		return items, err
	}
	return items, s.deleteKeys(corrupt)
}

// Remove deletes item by its bucket key, falling back to a scan by ID for
// items that were not read from this store.
func (s *Store) Remove(item Item) error {
	if len(item.bucketKey) > 0 {
		return s.deleteKeys([][]byte{item.bucketKey})
	}
	if item.ID == "" {
		return nil
	}
	return s.update(func(b *bolt.Bucket) error {
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var stored Item
			if json.Unmarshal(v, &stored) == nil && stored.ID == item.ID {
				return c.Delete()
			}
		}
		return nil
	})
}

// Requeue re-inserts an item behind everything else of its priority.
func (s *Store) Requeue(item Item) error {
	item.bucketKey = nil
	item.Timestamp = time.Now()
	return s.Enqueue(item)
}

func (s *Store) Size() (int, error) {
	var count int
	err := s.view(func(b *bolt.Bucket) error {
		count = b.Stats().KeyN
		return nil
	})
	return count, err
}

// Cleanup drops items buffered before olderThan and reports how many went.
func (s *Store) Cleanup(olderThan time.Time) (int, error) {
	var stale [][]byte
	err := s.view(func(b *bolt.Bucket) error {
		return b.ForEach(func(k, v []byte) error {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil || item.Timestamp.Before(olderThan) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
	})
	if err != nil || len(stale) == 0 {
		return 0, err
	}
	if err := s.deleteKeys(stale); err != nil {
		return 0, err
	}
	return len(stale), nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) deleteKeys(keys [][]byte) error {
	return s.update(func(b *bolt.Bucket) error {
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
