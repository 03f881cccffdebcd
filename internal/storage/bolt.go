package storage

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pfrederiksen/buchloe-events/internal/event"
)

const snapshotBucket = "snapshots"

// BoltStore keeps snapshots in a bbolt database, keyed by timestamp.
// The database is opened for each operation so separate runs can share
// the file.
type BoltStore struct {
	path    string
	timeout time.Duration
}

// NewBoltStore creates a BoltStore for the database at path and makes sure
// the snapshot bucket exists.
func NewBoltStore(path string) (*BoltStore, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}
	s := &BoltStore{path: path, timeout: time.Second}

	err = s.update(func(b *bolt.Bucket) error { return nil })
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *BoltStore) open() (*bolt.DB, error) {
	db, err := bolt.Open(s.path, 0600, &bolt.Options{Timeout: s.timeout})
	if err != nil {
		return nil, fmt.Errorf("could not open db %s: %w", s.path, err)
	}
	return db, nil
}

func (s *BoltStore) update(fn func(b *bolt.Bucket) error) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))
		if err != nil {
			return fmt.Errorf("unable to create bucket %s: %w", snapshotBucket, err)
		}
		return fn(b)
	})
}

// Latest implements Store.
func (s *BoltStore) Latest() ([]event.Event, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close() // nolint:errcheck

	var raw []byte
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(snapshotBucket))
		if b == nil {
			return event.ErrStorageUnavailable
		}
		_, v := b.Cursor().Last()
		if v == nil {
			return event.ErrStorageUnavailable
		}
		raw = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decodeEvents(raw)
}

// Save implements Store. Snapshots taken within the same second replace
// each other.
func (s *BoltStore) Save(events []event.Event, at time.Time) (string, error) {
	if len(events) == 0 {
		return "", nil
	}

	data, err := encodeEvents(events)
	if err != nil {
		return "", err
	}

	key := at.UTC().Format(timestampLayout)
	err = s.update(func(b *bolt.Bucket) error {
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	return s.path + "#" + key, nil
}

// Count returns the number of stored snapshots.
func (s *BoltStore) Count() (int, error) {
	db, err := s.open()
	if err != nil {
		return 0, err
	}
	defer db.Close() // nolint:errcheck

	n := 0
	err = db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket([]byte(snapshotBucket)); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n, err
}
