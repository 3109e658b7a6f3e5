package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	pkgerrors "github.com/absmach/cleanroom/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var bucketState = []byte("state")

type boltStorage struct {
	db *bolt.DB
}

func NewBoltStorage(dataDir string) (Storage, error) {
	if dataDir == "" {
		dataDir = defaultDataDir
	}

	if err := ensureDir(dataDir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bolt.Open(filepath.Join(dataDir, "cleanroom.db"), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Join(ErrDBConnection, fmt.Errorf("failed to open bolt database: %w", err))
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketState)

		return err
	}); err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to create bucket %s: %w", bucketState, err)
	}

	return &boltStorage{db: db}, nil
}

func (s *boltStorage) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, pkgerrors.ErrEmptyKey
	}

	var result []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		val := tx.Bucket(bucketState).Get([]byte(key))
		if val == nil {
			return pkgerrors.ErrNotFound
		}
		// bolt values are only valid for the life of the transaction
		result = append([]byte(nil), val...)

		return nil
	})

	return result, err
}

func (s *boltStorage) Put(_ context.Context, key string, value []byte) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketState).Put([]byte(key), value); err != nil {
			return errors.Join(ErrWrite, err)
		}

		return nil
	})
}

func (s *boltStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketState).Delete([]byte(key))
	})
}

func (s *boltStorage) Close() error {
	return s.db.Close()
}
