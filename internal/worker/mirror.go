package worker

import (
	"context"
	"fmt"
	"time"

	"order-lookup/internal/models"
	"order-lookup/internal/service"
	"order-lookup/internal/util"

	"go.uber.org/zap"
)

// SheetSource is everything the mirror copies from the sheet
type SheetSource interface {
	service.RowSource
	service.AnnouncementSource
}

// Mirror stores a full copy of the order rows and announcements
type Mirror interface {
	ReplaceRows(ctx context.Context, rows []models.Row) error
	ReplaceAnnouncements(ctx context.Context, announcements []models.Announcement) error
}

// MirrorSyncer copies the sheet into the Postgres mirror on an interval
type MirrorSyncer struct {
	source   SheetSource
	mirror   Mirror
	interval time.Duration
	logger   *zap.Logger
}

// NewMirrorSyncer creates a new mirror syncer
func NewMirrorSyncer(source SheetSource, mirror Mirror, interval time.Duration) *MirrorSyncer {
	return &MirrorSyncer{
		source:   source,
		mirror:   mirror,
		interval: interval,
		logger:   util.GetLogger(),
	}
}

// SyncOnce copies the current rows and announcements and returns the row count.
// An empty response leaves that part of the mirror untouched.
func (m *MirrorSyncer) SyncOnce(ctx context.Context) (int, error) {
	ctx, span := util.StartSpan(ctx, "MirrorSyncer.SyncOnce")
	defer span.End()

	rows, err := m.source.FetchRows(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("fetch rows: %w", err)
	}
	if len(rows) > 0 {
		if err := m.mirror.ReplaceRows(ctx, rows); err != nil {
			return 0, err
		}
	}

	announcements, err := m.source.FetchAnnouncements(ctx)
	if err != nil {
		return len(rows), fmt.Errorf("fetch announcements: %w", err)
	}
	if len(announcements) > 0 {
		if err := m.mirror.ReplaceAnnouncements(ctx, announcements); err != nil {
			return len(rows), err
		}
	}
	return len(rows), nil
}

// Start syncs immediately and then on every tick until ctx is cancelled
func (m *MirrorSyncer) Start(ctx context.Context) {
	m.logger.Info("Starting mirror syncer", zap.Duration("interval", m.interval))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if n, err := m.SyncOnce(ctx); err != nil {
			m.logger.Error("Mirror sync failed", zap.Error(err))
		} else {
			m.logger.Debug("Mirror synced", zap.Int("rows", n))
		}

		select {
		case <-ctx.Done():
			m.logger.Info("Mirror syncer stopped")
			return
		case <-ticker.C:
		}
	}
}
