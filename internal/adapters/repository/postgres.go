package repository

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/zainab-hr/ProjetProduits/internal/domain/model"
	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
	"github.com/zainab-hr/ProjetProduits/pkg/logger"
)

const productColumns = "id, nom, categorie, prix, description, image_url, created_at, updated_at"

// PostgresPartition stores products in one Postgres table. Every call opens
// its own connection and closes it before returning.
type PostgresPartition struct {
	name    types.Partition
	connCfg *pgx.ConnConfig
	table   string
	opts    options
}

// NewPostgresPartition parses the connection settings without connecting.
func NewPostgresPartition(name types.Partition, cfg Config, opts ...Option) (*PostgresPartition, error) {
	o := buildOptions("repository.postgres", opts)
	connCfg, err := pgx.ParseConfig(postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse %s partition config: %w", name, err)
	}
	connCfg.ConnectTimeout = o.connectTimeout
	return &PostgresPartition{
		name:    name,
		connCfg: connCfg,
		table:   pgx.Identifier{TableName(name)}.Sanitize(),
		opts:    o,
	}, nil
}

func postgresDSN(cfg Config) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   cfg.Host,
		Path:   "/" + cfg.Name,
	}
	if cfg.Port > 0 {
		u.Host += ":" + strconv.Itoa(cfg.Port)
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String()
}

// Name implements Partition.
func (p *PostgresPartition) Name() types.Partition { return p.name }

func (p *PostgresPartition) connect(ctx context.Context) (*pgx.Conn, error) {
	conn, err := pgx.ConnectConfig(ctx, p.connCfg.Copy())
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %w", ErrStorageUnavailable, p.name, err)
	}
	return conn, nil
}

func (p *PostgresPartition) release(ctx context.Context, conn *pgx.Conn) {
	if err := conn.Close(context.WithoutCancel(ctx)); err != nil {
		p.opts.log.Warn(ctx, "close connection", logger.String("partition", p.name.String()), logger.Error(err))
	}
}

// Insert implements Partition.
func (p *PostgresPartition) Insert(ctx context.Context, in model.ProductInput) (model.Product, error) {
	conn, err := p.connect(ctx)
	if err != nil {
		return model.Product{}, err
	}
	defer p.release(ctx, conn)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return model.Product{}, fmt.Errorf("%w: begin: %w", ErrStorageUnavailable, err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	row := tx.QueryRow(ctx, insertQuery(p.table), in.Name, in.Category, in.PriceValue(), in.Description, in.ImageURL)

	product, err := scanProduct(row)
	if err != nil {
		return model.Product{}, fmt.Errorf("%w: insert into %s: %w", ErrStorageUnavailable, p.table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Product{}, fmt.Errorf("%w: commit: %w", ErrStorageUnavailable, err)
	}
	return product, nil
}

// List implements Partition.
func (p *PostgresPartition) List(ctx context.Context, limit int) ([]model.Product, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	conn, err := p.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer p.release(ctx, conn)

	rows, err := conn.Query(ctx, "SELECT "+productColumns+" FROM "+p.table+" ORDER BY id DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", ErrStorageUnavailable, p.table, err)
	}
	products, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (model.Product, error) {
		return scanProduct(r)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %w", ErrStorageUnavailable, p.table, err)
	}
	return products, nil
}

// Ping implements Partition.
func (p *PostgresPartition) Ping(ctx context.Context) error {
	conn, err := p.connect(ctx)
	if err != nil {
		return err
	}
	defer p.release(ctx, conn)
	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping %s: %w", ErrStorageUnavailable, p.name, err)
	}
	return nil
}

// Close implements Partition. There is nothing long-lived to release.
func (p *PostgresPartition) Close() error { return nil }

// Tables created by other writers may lack timestamp defaults, so the
// insert stamps both columns itself.
func insertQuery(table string) string {
	return "INSERT INTO " + table + " (nom, categorie, prix, description, image_url, created_at, updated_at) " +
		"VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING " + productColumns
}

// scanProduct tolerates NULL category and timestamps on legacy rows; they
// come back as zero values.
func scanProduct(row pgx.Row) (model.Product, error) {
	var (
		pr               model.Product
		category         *string
		created, updated *time.Time
	)
	if err := row.Scan(&pr.ID, &pr.Name, &category, &pr.Price, &pr.Description, &pr.ImageURL, &created, &updated); err != nil {
		return model.Product{}, err
	}
	if category != nil {
		pr.Category = *category
	}
	if created != nil {
		pr.CreatedAt = *created
	}
	if updated != nil {
		pr.UpdatedAt = *updated
	}
	return pr, nil
}
