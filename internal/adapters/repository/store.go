// Package repository implements the two product storage partitions.
package repository

import (
	"context"
	"fmt"

	"github.com/zainab-hr/ProjetProduits/internal/domain/model"
	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
)

// Partition is one independent product store. Implementations hold no
// connection between calls that the caller must release: each Insert acquires
// and releases its own resources, failure included.
type Partition interface {
	// Name identifies the partition.
	Name() types.Partition
	// Insert stores a product and returns it with id and timestamps assigned.
	Insert(ctx context.Context, in model.ProductInput) (model.Product, error)
	// List returns up to limit products, most recent id first.
	List(ctx context.Context, limit int) ([]model.Product, error)
	// Ping checks that the partition is reachable.
	Ping(ctx context.Context) error
	// Close releases long-lived handles, if any.
	Close() error
}

// Config selects and configures one partition backend.
type Config struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
	Path     string
}

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
)

// TableName is the per-partition table (or bucket) name.
func TableName(p types.Partition) string {
	return "produits_" + p.String()
}

// Open creates the partition described by cfg.
func Open(name types.Partition, cfg Config, opts ...Option) (Partition, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		return NewPostgresPartition(name, cfg, opts...)
	case DriverBolt:
		return OpenBoltPartition(name, cfg.Path, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

func checkLimit(limit int) error {
	if limit <= 0 {
		return ErrInvalidLimit
	}
	return nil
}
