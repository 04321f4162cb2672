package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order-lookup/config"
	"order-lookup/internal/ingest"
	"order-lookup/internal/matcher"
	"order-lookup/internal/models"
	"order-lookup/internal/util"

	"go.uber.org/zap"
)

// ErrRowSourceUnavailable is returned when orders cannot be fetched right now
var ErrRowSourceUnavailable = errors.New("order records are temporarily unavailable, please try again later")

// LookupService finds a customer's orders by nickname
type LookupService struct {
	source   RowSource
	cache    RowCache
	cacheTTL time.Duration
	columns  config.ColumnMapping
	backend  string
	logger   *zap.Logger
}

// NewLookupService creates a new lookup service. A nil cache or a zero TTL disables caching.
func NewLookupService(source RowSource, cache RowCache, cfg *config.Config) *LookupService {
	ttl := cfg.Cache.RowTTL
	if ttl > config.MaxRowCacheTTL {
		ttl = config.MaxRowCacheTTL
	}

	return &LookupService{
		source:   source,
		cache:    cache,
		cacheTTL: ttl,
		columns:  cfg.Columns,
		backend:  cfg.Sheet.Backend,
		logger:   util.GetLogger(),
	}
}

// Search returns the orders of every customer whose nickname matches query, in sheet order
func (s *LookupService) Search(ctx context.Context, query string) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "LookupService.Search")
	defer span.End()

	if matcher.IsBlank(query) {
		util.SearchesTotal.WithLabelValues("empty_query").Inc()
		return nil, ingest.ErrEmptyQuery
	}

	rows, err := s.rows(ctx)
	if err != nil {
		util.SearchesTotal.WithLabelValues("unavailable").Inc()
		return nil, err
	}

	orders, err := ingest.BuildOrders(rows, query, s.columns)
	if err != nil {
		util.SearchesTotal.WithLabelValues("empty_query").Inc()
		return nil, err
	}

	util.SearchesTotal.WithLabelValues("ok").Inc()
	util.SearchMatches.Observe(float64(len(orders)))

	s.logger.Debug("Search completed",
		zap.Int("rows", len(rows)),
		zap.Int("orders", len(orders)),
	)
	return orders, nil
}

func (s *LookupService) rows(ctx context.Context) ([]models.Row, error) {
	if s.cachingEnabled() {
		rows, ok, err := s.cache.GetRows(ctx)
		if err != nil {
			s.logger.Warn("Row cache read failed", zap.Error(err))
		} else if ok {
			util.RowCacheHits.Inc()
			return rows, nil
		}
		util.RowCacheMisses.Inc()
	}

	rows, err := s.source.FetchRows(ctx, "")
	if err != nil {
		util.RowSourceFailures.WithLabelValues(s.backend).Inc()
		s.logger.Error("Failed to fetch order rows",
			zap.String("backend", s.backend),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrRowSourceUnavailable, err)
	}

	if s.cachingEnabled() && len(rows) > 0 {
		if err := s.cache.SetRows(ctx, rows, s.cacheTTL); err != nil {
			s.logger.Warn("Row cache write failed", zap.Error(err))
		}
	}
	return rows, nil
}

func (s *LookupService) cachingEnabled() bool {
	return s.cache != nil && s.cacheTTL > 0
}
