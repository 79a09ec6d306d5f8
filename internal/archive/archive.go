// Package archive provides an optional BoltDB-backed page archive keyed by
// URL, for runs that want a queryable copy of every record alongside the
// JSON report files.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/corpuscrawl/corpuscrawl/internal/report"
)

var bucketPages = []byte("pages")

// Store is a BoltDB page archive.
type Store struct {
	db   *bolt.DB
	path string
}

// Open opens or creates the archive database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPages)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive bucket: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Put stores a page record under its URL.
func (s *Store) Put(rec report.PageRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal page record: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPages).Put([]byte(rec.URL), data)
	})
}

// Get loads the record for a URL. The second return is false when the URL is
// not archived.
func (s *Store) Get(url string) (report.PageRecord, bool, error) {
	var rec report.PageRecord
	var found bool

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketPages).Get([]byte(url))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return report.PageRecord{}, false, err
	}
	return rec, found, nil
}

// Count returns the number of archived pages.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketPages).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
