package worker

import (
	"context"
	"errors"
	"testing"

	"order-lookup/internal/broker"
	"order-lookup/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLikeSink struct {
	mock.Mock
}

func (m *MockLikeSink) IncrementLike(ctx context.Context, announcementID string) error {
	args := m.Called(ctx, announcementID)
	return args.Error(0)
}

type memoryLedger struct {
	seen map[string]string
}

func (l *memoryLedger) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	_, ok := l.seen[eventID]
	return ok, nil
}

func (l *memoryLedger) MarkEventProcessed(_ context.Context, eventID, eventType string) error {
	l.seen[eventID] = eventType
	return nil
}

func TestLikeWorker_ForwardsOnce(t *testing.T) {
	sink := new(MockLikeSink)
	sink.On("IncrementLike", mock.Anything, "a1").Return(nil).Once()

	ledger := &memoryLedger{seen: map[string]string{}}
	w := NewLikeWorker(nil, sink, ledger)

	event := broker.NewAnnouncementLikedEvent("a1", "v1")
	require.NoError(t, w.HandleAnnouncementLiked(context.Background(), event))
	require.NoError(t, w.HandleAnnouncementLiked(context.Background(), event))

	sink.AssertExpectations(t)
	assert.Equal(t, models.EventTypeAnnouncementLiked, ledger.seen[event.EventID])
}

func TestLikeWorker_SinkFailureNotMarked(t *testing.T) {
	sink := new(MockLikeSink)
	sink.On("IncrementLike", mock.Anything, "a1").Return(errors.New("sheet down"))

	ledger := &memoryLedger{seen: map[string]string{}}
	w := NewLikeWorker(nil, sink, ledger)

	event := broker.NewAnnouncementLikedEvent("a1", "v1")
	err := w.HandleAnnouncementLiked(context.Background(), event)
	assert.Error(t, err)
	assert.Empty(t, ledger.seen)
}

func TestLikeWorker_WithoutLedger(t *testing.T) {
	sink := new(MockLikeSink)
	sink.On("IncrementLike", mock.Anything, "a2").Return(nil).Twice()

	w := NewLikeWorker(nil, sink, nil)
	event := broker.NewAnnouncementLikedEvent("a2", "v1")

	require.NoError(t, w.HandleAnnouncementLiked(context.Background(), event))
	require.NoError(t, w.HandleAnnouncementLiked(context.Background(), event))
	sink.AssertExpectations(t)
}

type fakeSheet struct {
	rows          []models.Row
	announcements []models.Announcement
	err           error
	annErr        error
}

func (f *fakeSheet) FetchRows(context.Context, string) ([]models.Row, error) {
	return f.rows, f.err
}

func (f *fakeSheet) FetchAnnouncements(context.Context) ([]models.Announcement, error) {
	return f.announcements, f.annErr
}

type fakeMirror struct {
	rows             []models.Row
	announcements    []models.Announcement
	calls            int
	announcementSets int
}

func (f *fakeMirror) ReplaceRows(_ context.Context, rows []models.Row) error {
	f.rows = rows
	f.calls++
	return nil
}

func (f *fakeMirror) ReplaceAnnouncements(_ context.Context, announcements []models.Announcement) error {
	f.announcements = announcements
	f.announcementSets++
	return nil
}

func TestMirrorSyncer_SyncOnce(t *testing.T) {
	mirror := &fakeMirror{}
	source := &fakeSheet{rows: []models.Row{{"社群名稱": "Kaguya"}, {"社群名稱": "Victor"}}}

	n, err := NewMirrorSyncer(source, mirror, 0).SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, mirror.rows, 2)
}

func TestMirrorSyncer_EmptySheetKeepsMirror(t *testing.T) {
	mirror := &fakeMirror{}

	n, err := NewMirrorSyncer(&fakeSheet{}, mirror, 0).SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, mirror.calls)
}

func TestMirrorSyncer_SourceError(t *testing.T) {
	mirror := &fakeMirror{}

	_, err := NewMirrorSyncer(&fakeSheet{err: errors.New("timeout")}, mirror, 0).SyncOnce(context.Background())
	assert.Error(t, err)
	assert.Zero(t, mirror.calls)
	assert.Zero(t, mirror.announcementSets)
}

func TestMirrorSyncer_CopiesAnnouncements(t *testing.T) {
	mirror := &fakeMirror{}
	source := &fakeSheet{
		rows: []models.Row{{"社群名稱": "Kaguya"}},
		announcements: []models.Announcement{
			{ID: "1", Title: "重要：出貨時間", Likes: 4},
			{ID: "2", Title: "新團開放"},
		},
	}

	n, err := NewMirrorSyncer(source, mirror, 0).SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, mirror.announcements, 2)
	assert.Equal(t, "1", mirror.announcements[0].ID)
	assert.Equal(t, 4, mirror.announcements[0].Likes)
}

func TestMirrorSyncer_AnnouncementsWithoutRows(t *testing.T) {
	mirror := &fakeMirror{}
	source := &fakeSheet{announcements: []models.Announcement{{ID: "1", Title: "公告"}}}

	n, err := NewMirrorSyncer(source, mirror, 0).SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, mirror.calls)
	assert.Equal(t, 1, mirror.announcementSets)
}

func TestMirrorSyncer_AnnouncementErrorKeepsRows(t *testing.T) {
	mirror := &fakeMirror{}
	source := &fakeSheet{rows: []models.Row{{"社群名稱": "Kaguya"}}, annErr: errors.New("script error")}

	n, err := NewMirrorSyncer(source, mirror, 0).SyncOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, mirror.calls)
	assert.Zero(t, mirror.announcementSets)
}
