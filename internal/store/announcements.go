package store

import (
	"context"
	"errors"
	"fmt"

	"order-lookup/internal/models"

	"github.com/lib/pq"
)

// ErrAnnouncementNotFound is returned when liking an unknown announcement
var ErrAnnouncementNotFound = errors.New("announcement not found")

type announcementRecord struct {
	ID      string `db:"id"`
	Date    string `db:"date"`
	Title   string `db:"title"`
	Content string `db:"content"`
	Likes   int    `db:"likes"`
}

// FetchAnnouncements returns announcements in display position
func (s *Store) FetchAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	var records []announcementRecord
	err := s.db.SelectContext(ctx, &records,
		"SELECT id, date, title, content, likes FROM announcements ORDER BY position, id")
	if err != nil {
		return nil, fmt.Errorf("failed to select announcements: %w", err)
	}

	out := make([]models.Announcement, 0, len(records))
	for _, r := range records {
		out = append(out, models.Announcement{
			ID:      r.ID,
			Date:    r.Date,
			Title:   r.Title,
			Content: r.Content,
			Likes:   r.Likes,
		})
	}
	return out, nil
}

// IncrementLike adds one like to an announcement
func (s *Store) IncrementLike(ctx context.Context, announcementID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE announcements SET likes = likes + 1 WHERE id = $1", announcementID)
	if err != nil {
		return fmt.Errorf("failed to increment likes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrAnnouncementNotFound, announcementID)
	}
	return nil
}

// ReplaceAnnouncements syncs the table with the sheet's list. Positions follow the
// list order, and a row never loses likes counted here since the last sync.
func (s *Store) ReplaceAnnouncements(ctx context.Context, announcements []models.Announcement) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ids := make([]string, 0, len(announcements))
	for i, a := range announcements {
		if a.ID == "" {
			continue
		}
		ids = append(ids, a.ID)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO announcements (id, date, title, content, likes, position)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				date = EXCLUDED.date,
				title = EXCLUDED.title,
				content = EXCLUDED.content,
				likes = GREATEST(announcements.likes, EXCLUDED.likes),
				position = EXCLUDED.position`,
			a.ID, a.Date, a.Title, a.Content, a.Likes, i)
		if err != nil {
			return fmt.Errorf("failed to upsert announcement %s: %w", a.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM announcements WHERE NOT (id = ANY($1))", pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to prune announcements: %w", err)
	}

	return tx.Commit()
}
