// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package records is the local ledger of image builds.
package records

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tishareyes/vcash/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var bucketBuilds = []byte("builds")

// Build is the record of one pipeline run.
type Build struct {
	ID             uuid.UUID                `json:"id"`
	Recipe         string                   `json:"recipe"`
	Network        string                   `json:"network"`
	Image          string                   `json:"image,omitempty"`
	ArtifactDigest string                   `json:"artifactDigest,omitempty"`
	ArtifactSize   int64                    `json:"artifactSize,omitempty"`
	Revision       string                   `json:"revision,omitempty"`
	Started        time.Time                `json:"started"`
	Duration       time.Duration            `json:"duration"`
	Phases         map[string]time.Duration `json:"phases,omitempty"`
	Status         errors.Status            `json:"status"`
	Error          string                   `json:"error,omitempty"`
}

// NewID returns a new build ID. IDs sort in creation order.
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// Ledger stores build records in a bolt database.
type Ledger struct {
	bolt *bolt.DB
}

// Open opens or creates the ledger at file.
func Open(file string) (*Ledger, error) {
	err := os.MkdirAll(filepath.Dir(file), 0700)
	if err != nil {
		return nil, errors.UnknownError.WithFormat("create ledger dir: %w", err)
	}

	db, err := bolt.Open(file, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.UnknownError.WithFormat("open ledger %s: %w", file, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBuilds)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.UnknownError.WithFormat("initialize ledger: %w", err)
	}
	return &Ledger{bolt: db}, nil
}

func (l *Ledger) Close() error {
	return l.bolt.Close()
}

// Put stores a record, assigning it an ID if it has none. Records are never
// overwritten: putting an ID that is already stored fails with Conflict.
func (l *Ledger) Put(b *Build) error {
	if b.ID == uuid.Nil {
		b.ID = NewID()
	}
	v, err := json.Marshal(b)
	if err != nil {
		return errors.InternalError.WithFormat("encode build record: %w", err)
	}
	return l.bolt.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketBuilds)
		if bucket.Get(b.ID[:]) != nil {
			return errors.Conflict.WithFormat("build %v already recorded", b.ID)
		}
		return bucket.Put(b.ID[:], v)
	})
}

// Get returns the record with the given ID.
func (l *Ledger) Get(id uuid.UUID) (*Build, error) {
	var b *Build
	err := l.bolt.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBuilds).Get(id[:])
		if v == nil {
			return errors.NotFound.WithFormat("build %v not found", id)
		}
		var err error
		b, err = decode(v)
		return err
	})
	return b, err
}

// List returns up to limit records, newest first. A limit of zero or less
// returns all records.
func (l *Ledger) List(limit int) ([]*Build, error) {
	var list []*Build
	err := l.bolt.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketBuilds).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(list) >= limit {
				break
			}
			b, err := decode(v)
			if err != nil {
				return err
			}
			list = append(list, b)
		}
		return nil
	})
	return list, err
}

func decode(v []byte) (*Build, error) {
	b := new(Build)
	err := json.Unmarshal(v, b)
	if err != nil {
		return nil, errors.InternalError.WithFormat("decode build record: %w", err)
	}
	return b, nil
}
