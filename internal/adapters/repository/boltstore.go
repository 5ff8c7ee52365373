package repository

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/zainab-hr/ProjetProduits/internal/domain/model"
	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
	"go.etcd.io/bbolt"
)

// BoltPartition stores products in a bbolt bucket keyed by big-endian id.
// bbolt locks its file, so the handle stays open for the process lifetime;
// each Insert still runs in its own write transaction.
type BoltPartition struct {
	name   types.Partition
	db     *bbolt.DB
	bucket []byte
	opts   options
}

// OpenBoltPartition opens (or creates) the database file at path.
func OpenBoltPartition(name types.Partition, path string, opts ...Option) (*BoltPartition, error) {
	o := buildOptions("repository.bolt", opts)
	if path == "" {
		return nil, fmt.Errorf("%w: %s partition has no bolt path", ErrStorageUnavailable, name)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: o.boltTimeout})
	if err != nil {
		return nil, fmt.Errorf("%w: open bolt db %s: %w", ErrStorageUnavailable, path, err)
	}

	bucket := []byte(TableName(name))
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create bucket %s: %w", ErrStorageUnavailable, bucket, err)
	}

	return &BoltPartition{name: name, db: db, bucket: bucket, opts: o}, nil
}

// Name implements Partition.
func (p *BoltPartition) Name() types.Partition { return p.name }

// Insert implements Partition.
func (p *BoltPartition) Insert(ctx context.Context, in model.ProductInput) (model.Product, error) {
	if err := ctx.Err(); err != nil {
		return model.Product{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	var product model.Product
	err := p.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(p.bucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		now := p.opts.now().UTC()
		product = model.Product{
			ID:          int64(seq), //nolint:gosec // sequence never exceeds int64
			Name:        in.Name,
			Category:    in.Category,
			Price:       in.PriceValue(),
			Description: in.Description,
			ImageURL:    in.ImageURL,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		data, err := json.Marshal(product)
		if err != nil {
			return err
		}
		return b.Put(itob(seq), data)
	})
	if err != nil {
		return model.Product{}, fmt.Errorf("%w: insert into %s: %w", ErrStorageUnavailable, p.bucket, err)
	}
	return product, nil
}

// List implements Partition.
func (p *BoltPartition) List(_ context.Context, limit int) ([]model.Product, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	products := make([]model.Product, 0, min(limit, 64))
	err := p.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(p.bucket).Cursor()
		for k, v := c.Last(); k != nil && len(products) < limit; k, v = c.Prev() {
			var pr model.Product
			if err := json.Unmarshal(v, &pr); err != nil {
				return fmt.Errorf("decode product %d: %w", binary.BigEndian.Uint64(k), err)
			}
			products = append(products, pr)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", ErrStorageUnavailable, p.bucket, err)
	}
	return products, nil
}

// Ping implements Partition.
func (p *BoltPartition) Ping(_ context.Context) error {
	err := p.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(p.bucket) == nil {
			return fmt.Errorf("bucket %s missing", p.bucket)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: ping %s: %w", ErrStorageUnavailable, p.name, err)
	}
	return nil
}

// Close implements Partition.
func (p *BoltPartition) Close() error {
	return p.db.Close()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
