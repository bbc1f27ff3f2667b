package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	recorddomain "github.com/rollcallhq/rollcall/internal/record/domain"
	"github.com/rollcallhq/rollcall/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 500

type repo struct{}

func Provide() recorddomain.Repository {
	return &repo{}
}

func (r *repo) InsertGeneration(ctx context.Context, conn *gorm.DB, gen *recorddomain.Generation) error {
	err := conn.WithContext(ctx).Exec(
		`INSERT INTO generations (id, session_id, files_processed, rows_ingested, rows_skipped, duplicate_emails, duplicate_phones, duration_ms, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gen.ID,
		gen.SessionID,
		gen.FilesProcessed,
		gen.RowsIngested,
		gen.RowsSkipped,
		gen.DuplicateEmails,
		gen.DuplicatePhones,
		gen.DurationMS,
		gen.Warnings,
		gen.CreatedAt,
	).Error
	if db.IsDuplicateKeyErr(err) {
		return recorddomain.ErrGenerationExists
	}
	return err
}

func (r *repo) InsertRecords(ctx context.Context, conn *gorm.DB, records []recorddomain.Record) error {
	if len(records) == 0 {
		return nil
	}
	return conn.WithContext(ctx).CreateInBatches(records, insertBatchSize).Error
}

func (r *repo) SetCurrentGeneration(ctx context.Context, conn *gorm.DB, id snowflake.ID, at time.Time) error {
	state := recorddomain.AppState{
		Name:      recorddomain.CurrentGenerationKey,
		Value:     id.String(),
		UpdatedAt: at,
	}
	return conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&state).Error
}

func (r *repo) CurrentGenerationID(ctx context.Context, conn *gorm.DB) (snowflake.ID, error) {
	var value string
	err := conn.WithContext(ctx).Raw(
		`SELECT value FROM app_state WHERE name = ?`,
		recorddomain.CurrentGenerationKey,
	).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	if value == "" {
		return 0, nil
	}
	id, err := snowflake.ParseString(value)
	if err != nil {
		return 0, fmt.Errorf("parse current generation id: %w", err)
	}
	return id, nil
}

func (r *repo) FindGeneration(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*recorddomain.Generation, error) {
	var gen recorddomain.Generation
	err := conn.WithContext(ctx).Raw(
		`SELECT id, session_id, files_processed, rows_ingested, rows_skipped, duplicate_emails, duplicate_phones, duration_ms, warnings, created_at
		 FROM generations WHERE id = ?`,
		id,
	).Scan(&gen).Error
	if err != nil {
		return nil, err
	}
	if gen.ID == 0 {
		return nil, nil
	}
	return &gen, nil
}

func (r *repo) ListRecords(ctx context.Context, conn *gorm.DB, generationID snowflake.ID) ([]recorddomain.Record, error) {
	var records []recorddomain.Record
	err := conn.WithContext(ctx).Raw(
		`SELECT generation_id, record_id, position, source_file, row_num, name, email, phone, event_name, activity_type, activity_date, payment_status, amount, raw
		 FROM records WHERE generation_id = ? ORDER BY position ASC`,
		generationID,
	).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) DeleteOtherGenerations(ctx context.Context, conn *gorm.DB, keep snowflake.ID) error {
	if err := conn.WithContext(ctx).Exec(
		`DELETE FROM records WHERE generation_id <> ?`,
		keep,
	).Error; err != nil {
		return err
	}
	return conn.WithContext(ctx).Exec(
		`DELETE FROM generations WHERE id <> ?`,
		keep,
	).Error
}
