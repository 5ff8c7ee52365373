// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zainab-hr/ProjetProduits/internal/adapters/artifact"
	"github.com/zainab-hr/ProjetProduits/internal/adapters/http/api"
	"github.com/zainab-hr/ProjetProduits/internal/adapters/repository"
	"github.com/zainab-hr/ProjetProduits/internal/config"
	"github.com/zainab-hr/ProjetProduits/internal/domain/batch"
	"github.com/zainab-hr/ProjetProduits/internal/domain/classifier"
	"github.com/zainab-hr/ProjetProduits/internal/domain/features"
	"github.com/zainab-hr/ProjetProduits/internal/domain/model"
	"github.com/zainab-hr/ProjetProduits/internal/domain/routing"
	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
	"github.com/zainab-hr/ProjetProduits/pkg/logger"
	"github.com/zainab-hr/ProjetProduits/pkg/metrics"
)

// ErrNotStarted is returned by operations invoked before Start.
var ErrNotStarted = errors.New("service not started")

const defaultProbeTimeout = 2 * time.Second

// Service implements the API dependencies for the classification pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	classifier  *classifier.Classifier
	coordinator *batch.Coordinator
	partitions  map[types.Partition]repository.Partition

	// Configuration
	modelPath      string
	partitionCfg   map[types.Partition]repository.Config
	breaker        *repository.BreakerSettings
	connectTimeout time.Duration
	probeTimeout   time.Duration

	// State
	started   bool
	startedAt time.Time

	predictions atomic.Int64
	created     atomic.Int64
	batches     atomic.Int64
	batchItems  atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithModelPath sets the artifact bundle loaded at startup.
func WithModelPath(path string) Option {
	return func(s *Service) { s.modelPath = path }
}

// WithPartition configures the backend of one partition.
func WithPartition(p types.Partition, cfg repository.Config) Option {
	return func(s *Service) { s.partitionCfg[p] = cfg }
}

// WithBreaker wraps partition inserts in circuit breakers.
func WithBreaker(settings repository.BreakerSettings) Option {
	return func(s *Service) { s.breaker = &settings }
}

// WithConnectTimeout bounds each partition connection attempt.
func WithConnectTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.connectTimeout = d
		}
	}
}

// WithProbeTimeout bounds the partition pings of a health check.
func WithProbeTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.probeTimeout = d
		}
	}
}

// OptionsFromConfig translates the loaded configuration into service options.
func OptionsFromConfig(cfg *config.Config) []Option {
	opts := []Option{
		WithModelPath(cfg.ModelPath),
		WithConnectTimeout(cfg.DBConnectTimeout()),
		WithPartition(types.PartitionHomme, repository.Config{
			Driver:   cfg.HommeDBDriver,
			Host:     cfg.HommeDBHost,
			Port:     cfg.HommeDBPort,
			Name:     cfg.HommeDBName,
			User:     cfg.HommeDBUser,
			Password: cfg.HommeDBPassword,
			SSLMode:  cfg.HommeDBSSLMode,
			Path:     cfg.HommeDBPath,
		}),
		WithPartition(types.PartitionFemme, repository.Config{
			Driver:   cfg.FemmeDBDriver,
			Host:     cfg.FemmeDBHost,
			Port:     cfg.FemmeDBPort,
			Name:     cfg.FemmeDBName,
			User:     cfg.FemmeDBUser,
			Password: cfg.FemmeDBPassword,
			SSLMode:  cfg.FemmeDBSSLMode,
			Path:     cfg.FemmeDBPath,
		}),
	}
	if cfg.BreakerEnabled {
		opts = append(opts, WithBreaker(repository.BreakerSettings{
			ConsecutiveFailures: uint32(cfg.BreakerFailures), //nolint:gosec // validated positive
			Timeout:             cfg.BreakerTimeout(),
		}))
	}
	return opts
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		modelPath:      "models/product_gender_classifier.json",
		partitionCfg:   make(map[types.Partition]repository.Config),
		connectTimeout: 5 * time.Second,
		probeTimeout:   defaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrGet(s.logger, "service")
	return s
}

// Start loads the artifact bundle and opens both partitions. It fails fast:
// the service never serves without a bundle.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting classification service...", logger.String("model_path", s.modelPath))

	bundle, err := artifact.Load(ctx, s.modelPath)
	if err != nil {
		metrics.SetModelLoaded(false)
		return fmt.Errorf("load model: %w", err)
	}
	metrics.SetModelLoaded(true)
	s.warnCounterSkew(ctx)

	partitions, err := s.openPartitions()
	if err != nil {
		return err
	}

	routable := make(map[types.Partition]routing.Partition, len(partitions))
	for name, p := range partitions {
		routable[name] = p
	}
	dispatcher, err := routing.NewDispatcher(routable, routing.WithLogger(s.logger.Named("routing")))
	if err != nil {
		closeAll(partitions)
		return fmt.Errorf("build dispatcher: %w", err)
	}

	s.classifier = classifier.New(bundle, classifier.WithLogger(s.logger.Named("classifier")))
	s.coordinator = batch.NewCoordinator(s.classifier, dispatcher,
		batch.WithLogger(s.logger.Named("batch")),
		batch.WithValidator(api.ValidateProduct),
	)
	s.partitions = partitions
	s.started = true
	s.startedAt = time.Now()

	s.logger.Info(ctx, "classification service started",
		logger.Int("input_width", bundle.Encoder().Width()),
		logger.Any("classes", bundle.Model().Classes()),
		logger.String("homme_driver", driverName(s.partitionCfg[types.PartitionHomme])),
		logger.String("femme_driver", driverName(s.partitionCfg[types.PartitionFemme])),
		logger.Bool("breaker", s.breaker != nil),
	)
	return nil
}

// warnCounterSkew surfaces the known train/serve skew: the model was fitted
// with real interaction counters but serving always encodes zeros.
func (s *Service) warnCounterSkew(ctx context.Context) {
	s.logger.Warn(ctx, "serving encodes interaction counters as zero; training used observed counts",
		logger.Any("counters", features.CounterNames()),
	)
}

func (s *Service) openPartitions() (map[types.Partition]repository.Partition, error) {
	out := make(map[types.Partition]repository.Partition, 2)
	for _, name := range types.Partitions() {
		cfg, ok := s.partitionCfg[name]
		if !ok {
			closeAll(out)
			return nil, fmt.Errorf("partition %s: %w", name, repository.ErrUnsupportedDriver)
		}
		opts := []repository.Option{
			repository.WithLogger(s.logger.Named("repository")),
			repository.WithConnectTimeout(s.connectTimeout),
		}
		p, err := repository.Open(name, cfg, opts...)
		if err != nil {
			closeAll(out)
			return nil, fmt.Errorf("open partition %s: %w", name, err)
		}
		if s.breaker != nil {
			p = repository.NewBreakerPartition(p, *s.breaker, opts...)
		}
		out[name] = p
	}
	return out, nil
}

func driverName(cfg repository.Config) string {
	if cfg.Driver == "" {
		return repository.DriverPostgres
	}
	return cfg.Driver
}

func closeAll(partitions map[types.Partition]repository.Partition) {
	for _, p := range partitions {
		_ = p.Close()
	}
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping classification service...")

	for name, p := range s.partitions {
		if err := p.Close(); err != nil {
			s.logger.Warn(ctx, "partition close failed", logger.String("partition", name.String()), logger.Error(err))
		}
	}
	s.partitions = nil
	s.started = false
	metrics.SetModelLoaded(false)
	s.logger.Info(ctx, "classification service stopped")
}

func (s *Service) components() (*classifier.Classifier, *batch.Coordinator, map[types.Partition]repository.Partition) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.classifier, s.coordinator, s.partitions
}

// Predict classifies one product without storing it.
func (s *Service) Predict(ctx context.Context, in features.Input) (classifier.Result, error) {
	c, _, _ := s.components()
	res, err := c.Classify(ctx, in)
	if err == nil {
		s.predictions.Add(1)
	}
	return res, err
}

// CreateProduct classifies one product and stores it in its partition.
func (s *Service) CreateProduct(ctx context.Context, in model.ProductInput) (batch.Routed, error) {
	_, coord, _ := s.components()
	if coord == nil {
		return batch.Routed{}, classifier.ErrModelUnavailable
	}
	routed, err := coord.Route(ctx, in)
	if err == nil {
		s.created.Add(1)
	}
	return routed, err
}

// BulkImport classifies and stores each product independently.
func (s *Service) BulkImport(ctx context.Context, items []model.ProductInput) model.BatchOutcome {
	_, coord, _ := s.components()
	if coord == nil {
		out := model.BatchOutcome{Total: len(items), Errors: make([]model.BatchFailure, 0, len(items))}
		for i, in := range items {
			out.Errors = append(out.Errors, model.BatchFailure{Index: i, ProductName: in.Name, Error: classifier.ErrModelUnavailable.Error()})
		}
		return out
	}
	out := coord.Run(ctx, items)
	s.batches.Add(1)
	s.batchItems.Add(int64(out.Total))
	s.created.Add(int64(out.Succeeded()))
	return out
}

// ListProducts returns up to limit products of one partition, newest first.
func (s *Service) ListProducts(ctx context.Context, p types.Partition, limit int) ([]model.Product, error) {
	_, _, partitions := s.components()
	part, ok := partitions[p]
	if !ok {
		if partitions == nil {
			return nil, fmt.Errorf("list %s: %w", p, ErrNotStarted)
		}
		return nil, fmt.Errorf("%w: %q", routing.ErrUnknownPartition, p)
	}
	return part.List(ctx, limit)
}

// Ready reports whether the artifact bundle is loaded.
func (s *Service) Ready() bool {
	c, _, _ := s.components()
	return c.Ready()
}

// Health reports the model components and pings both partitions concurrently.
func (s *Service) Health(ctx context.Context) model.HealthReport {
	c, _, partitions := s.components()

	report := model.HealthReport{
		ModelLoaded:     c.Ready(),
		ModelComponents: []string{},
		DBHomme:         model.StatusError,
		DBFemme:         model.StatusError,
	}
	for name, present := range c.Components() {
		if present {
			report.ModelComponents = append(report.ModelComponents, name)
		}
	}
	sort.Strings(report.ModelComponents)

	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for name, p := range partitions {
		g.Go(func() error {
			err := p.Ping(gctx)
			metrics.SetPartitionUp(name.String(), err == nil)
			status := model.StatusOK
			if err != nil {
				status = model.StatusError
				s.logger.Warn(ctx, "partition probe failed", logger.String("partition", name.String()), logger.Error(err))
			}
			mu.Lock()
			defer mu.Unlock()
			switch name {
			case types.PartitionHomme:
				report.DBHomme = status
			case types.PartitionFemme:
				report.DBFemme = status
			}
			// A failed probe must not cancel the other partition's probe.
			return nil
		})
	}
	_ = g.Wait()

	report.Status = model.StatusOK
	if !report.Healthy() {
		report.Status = model.StatusDegraded
	}
	return report
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":          s.started,
		"model_path":       s.modelPath,
		"model_loaded":     s.classifier.Ready(),
		"breaker_enabled":  s.breaker != nil,
		"predictions":      s.predictions.Load(),
		"products_created": s.created.Load(),
		"batches":          s.batches.Load(),
		"batch_items":      s.batchItems.Load(),
	}
	if s.started {
		stats["uptime_seconds"] = int64(time.Since(s.startedAt).Seconds())
	}

	drivers := make(map[string]string, len(s.partitionCfg))
	for name, cfg := range s.partitionCfg {
		drivers[name.String()] = driverName(cfg)
	}
	stats["partition_drivers"] = drivers

	breakers := make(map[string]string)
	for name, p := range s.partitions {
		if bp, ok := p.(*repository.BreakerPartition); ok {
			breakers[name.String()] = bp.State().String()
		}
	}
	if len(breakers) > 0 {
		stats["breaker_states"] = breakers
	}
	return stats
}
