package cache

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

var bucketEmbeddings = []byte("embeddings")

// BoltStore keeps cache entries in a single bbolt file with nested
// buckets provider -> model -> hash. Handy when the cache should travel
// as one file instead of a directory tree.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create embeddings bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(ctx context.Context, provider, model, hash string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		pb := tx.Bucket(bucketEmbeddings).Bucket([]byte(provider))
		if pb == nil {
			return nil
		}
		mb := pb.Bucket([]byte(model))
		if mb == nil {
			return nil
		}
		if v := mb.Get([]byte(hash)); v != nil {
			// bolt memory is only valid inside the transaction
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return data, data != nil, nil
}

func (s *BoltStore) Put(ctx context.Context, provider, model, hash string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		pb, err := tx.Bucket(bucketEmbeddings).CreateBucketIfNotExists([]byte(provider))
		if err != nil {
			return err
		}
		mb, err := pb.CreateBucketIfNotExists([]byte(model))
		if err != nil {
			return err
		}
		return mb.Put([]byte(hash), data)
	})
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (s *BoltStore) Delete(ctx context.Context, provider, model string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketEmbeddings)
		switch {
		case provider == "":
			var names [][]byte
			err := root.ForEach(func(k, v []byte) error {
				if v == nil {
					names = append(names, append([]byte(nil), k...))
				}
				return nil
			})
			if err != nil {
				return err
			}
			for _, name := range names {
				if err := root.DeleteBucket(name); err != nil {
					return err
				}
			}
			return nil
		case model == "":
			if root.Bucket([]byte(provider)) == nil {
				return nil
			}
			return root.DeleteBucket([]byte(provider))
		default:
			pb := root.Bucket([]byte(provider))
			if pb == nil || pb.Bucket([]byte(model)) == nil {
				return nil
			}
			return pb.DeleteBucket([]byte(model))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to delete cache entries: %w", err)
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
