// Package boltstore keeps preferences in a bbolt database, one bucket per
// domain.
package boltstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/kalambet/userdefaults/internal/defaults"
)

// ErrBucketNotFound means the domain bucket vanished while the backend
// was open.
var ErrBucketNotFound = errors.New("domain bucket not found")

const dbFileName = "userdefaults.bolt"

// Backend is a defaults.Backend over a single bucket.
type Backend struct {
	db     *bolt.DB
	bucket []byte
}

// Open opens (or creates) the database under dataDir and ensures the
// bucket for domain exists.
func Open(dataDir, domain string) (*Backend, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return OpenFile(filepath.Join(dataDir, dbFileName), domain)
}

// OpenFile opens the database at path.
func OpenFile(path, domain string) (*Backend, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	b := &Backend{db: db, bucket: []byte(domain)}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(b.bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket %q: %w", domain, err)
	}
	return b, nil
}

func (b *Backend) Get(key string) (defaults.Value, bool, error) {
	var (
		v     defaults.Value
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return ErrBucketNotFound
		}
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return nil
		}
		// raw is only valid inside the transaction; Unmarshal copies.
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decoding value of %q: %w", key, err)
		}
		found = true
		return nil
	})
	if err != nil {
		return defaults.Value{}, false, err
	}
	return v, found, nil
}

func (b *Backend) Set(key string, val defaults.Value) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encoding value: %w", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return ErrBucketNotFound
		}
		return bucket.Put([]byte(key), raw)
	})
}

func (b *Backend) Delete(key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return ErrBucketNotFound
		}
		return bucket.Delete([]byte(key))
	})
}

// Keys relies on bbolt's byte-ordered cursor, which matches string order.
func (b *Backend) Keys() ([]string, error) {
	keys := []string{}
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return ErrBucketNotFound
		}
		return bucket.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Drop deletes the domain bucket. Later calls on this backend fail with
// ErrBucketNotFound.
func (b *Backend) Drop() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket(b.bucket)
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}

// Domains lists the buckets that hold at least one key.
func (b *Backend) Domains() ([]string, error) {
	domains := []string{}
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, bucket *bolt.Bucket) error {
			if k, _ := bucket.Cursor().First(); k != nil {
				domains = append(domains, string(name))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return domains, nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}
