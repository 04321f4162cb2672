package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"order-lookup/internal/models"
	"order-lookup/internal/util"

	"go.uber.org/zap"
)

var (
	// ErrAlreadyLiked is returned when a visitor likes the same announcement twice
	ErrAlreadyLiked = errors.New("announcement already liked")
	// ErrInvalidLike is returned when the announcement or visitor id is missing
	ErrInvalidLike = errors.New("announcement id and visitor id are required")
)

// AnnouncementSource supplies storefront announcements
type AnnouncementSource interface {
	FetchAnnouncements(ctx context.Context) ([]models.Announcement, error)
}

// LikeSink persists an accepted like
type LikeSink interface {
	IncrementLike(ctx context.Context, announcementID string) error
}

// LikeGuard remembers who liked what
type LikeGuard interface {
	MarkLiked(ctx context.Context, announcementID, visitorID string) (bool, error)
	HasLiked(ctx context.Context, announcementID, visitorID string) (bool, error)
}

// LikeDispatcher forwards an accepted like without waiting for it to land
type LikeDispatcher interface {
	DispatchLike(ctx context.Context, announcementID, visitorID string) error
}

// AnnouncementService lists announcements and takes likes
type AnnouncementService struct {
	source     AnnouncementSource
	guard      LikeGuard
	dispatcher LikeDispatcher
	keywords   []string
	logger     *zap.Logger
}

// NewAnnouncementService creates a new announcement service
func NewAnnouncementService(
	source AnnouncementSource,
	guard LikeGuard,
	dispatcher LikeDispatcher,
	importantKeywords []string,
) *AnnouncementService {
	return &AnnouncementService{
		source:     source,
		guard:      guard,
		dispatcher: dispatcher,
		keywords:   importantKeywords,
		logger:     util.GetLogger(),
	}
}

// List returns announcements with important ones first, otherwise in source order.
// When visitorID is set each entry says whether that visitor liked it.
func (s *AnnouncementService) List(ctx context.Context, visitorID string) ([]models.Announcement, error) {
	ctx, span := util.StartSpan(ctx, "AnnouncementService.List")
	defer span.End()

	list, err := s.source.FetchAnnouncements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch announcements: %w", err)
	}

	for i := range list {
		list[i].IsImportant = s.isImportant(list[i].Title)
		if visitorID == "" {
			continue
		}
		liked, err := s.guard.HasLiked(ctx, list[i].ID, visitorID)
		if err != nil {
			s.logger.Warn("Failed to read like state", zap.String("announcement_id", list[i].ID), zap.Error(err))
			continue
		}
		list[i].Liked = liked
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].IsImportant && !list[j].IsImportant
	})
	return list, nil
}

// Like records one like per visitor and forwards it in the background.
// Forwarding failures are logged, never returned.
func (s *AnnouncementService) Like(ctx context.Context, announcementID, visitorID string) error {
	ctx, span := util.StartSpan(ctx, "AnnouncementService.Like")
	defer span.End()

	announcementID = strings.TrimSpace(announcementID)
	visitorID = strings.TrimSpace(visitorID)
	if announcementID == "" || visitorID == "" {
		return ErrInvalidLike
	}

	first, err := s.guard.MarkLiked(ctx, announcementID, visitorID)
	if err != nil {
		return fmt.Errorf("failed to record like: %w", err)
	}
	if !first {
		return ErrAlreadyLiked
	}

	util.LikesAcceptedTotal.Inc()

	if err := s.dispatcher.DispatchLike(ctx, announcementID, visitorID); err != nil {
		util.LikesForwardFailed.WithLabelValues("dispatch").Inc()
		s.logger.Error("Failed to dispatch like",
			zap.String("announcement_id", announcementID),
			zap.Error(err),
		)
	}
	return nil
}

func (s *AnnouncementService) isImportant(title string) bool {
	for _, kw := range s.keywords {
		if kw != "" && strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

// MemoryLikeGuard keeps like state in process
type MemoryLikeGuard struct {
	mu    sync.Mutex
	liked map[string]struct{}
}

// NewMemoryLikeGuard creates an empty in-process guard
func NewMemoryLikeGuard() *MemoryLikeGuard {
	return &MemoryLikeGuard{liked: make(map[string]struct{})}
}

// MarkLiked records the like and reports whether it is the first one
func (g *MemoryLikeGuard) MarkLiked(_ context.Context, announcementID, visitorID string) (bool, error) {
	key := announcementID + "\x00" + visitorID

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.liked[key]; ok {
		return false, nil
	}
	g.liked[key] = struct{}{}
	return true, nil
}

// HasLiked reports whether the visitor liked the announcement
func (g *MemoryLikeGuard) HasLiked(_ context.Context, announcementID, visitorID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.liked[announcementID+"\x00"+visitorID]
	return ok, nil
}

// DirectLikeDispatcher forwards likes to the sink from a goroutine
type DirectLikeDispatcher struct {
	sink    LikeSink
	timeout time.Duration
	wg      sync.WaitGroup
	logger  *zap.Logger
}

// NewDirectLikeDispatcher creates a dispatcher that calls sink directly
func NewDirectLikeDispatcher(sink LikeSink, timeout time.Duration) *DirectLikeDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DirectLikeDispatcher{sink: sink, timeout: timeout, logger: util.GetLogger()}
}

// DispatchLike starts forwarding and returns immediately
func (d *DirectLikeDispatcher) DispatchLike(_ context.Context, announcementID, _ string) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.sink.IncrementLike(ctx, announcementID); err != nil {
			util.LikesForwardFailed.WithLabelValues("sink").Inc()
			d.logger.Error("Failed to forward like",
				zap.String("announcement_id", announcementID),
				zap.Error(err),
			)
		}
	}()
	return nil
}

// Wait blocks until all forwarded likes have finished
func (d *DirectLikeDispatcher) Wait() {
	d.wg.Wait()
}
