package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"order-lookup/internal/models"
	"order-lookup/internal/util"

	"go.uber.org/zap"
)

type sheetRow struct {
	RowNumber int    `db:"row_number"`
	Data      []byte `db:"data"`
}

// FetchRows returns the mirrored order rows in sheet order.
// The query is ignored: the mirror always serves the full table.
func (s *Store) FetchRows(ctx context.Context, _ string) ([]models.Row, error) {
	ctx, span := util.StartSpan(ctx, "Store.FetchRows")
	defer span.End()

	start := time.Now()
	var records []sheetRow
	err := s.db.SelectContext(ctx, &records,
		"SELECT row_number, data FROM sheet_rows ORDER BY row_number")
	util.RowSourceLatency.WithLabelValues("postgres").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to select sheet rows: %w", err)
	}

	rows := make([]models.Row, 0, len(records))
	for _, rec := range records {
		row, err := decodeRow(rec.Data)
		if err != nil {
			util.GetLogger().Warn("Skipping undecodable sheet row",
				zap.Int("row_number", rec.RowNumber),
				zap.Error(err),
			)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReplaceRows swaps the mirrored table for a fresh copy of the sheet
func (s *Store) ReplaceRows(ctx context.Context, rows []models.Row) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sheet_rows"); err != nil {
		return fmt.Errorf("failed to clear sheet rows: %w", err)
	}

	for i, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to encode row %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sheet_rows (row_number, data) VALUES ($1, $2)", i+1, data); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

func decodeRow(data []byte) (models.Row, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var row models.Row
	if err := dec.Decode(&row); err != nil {
		return nil, err
	}
	return row, nil
}
