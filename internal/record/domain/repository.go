package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertGeneration(ctx context.Context, db *gorm.DB, gen *Generation) error
	InsertRecords(ctx context.Context, db *gorm.DB, records []Record) error
	SetCurrentGeneration(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
	CurrentGenerationID(ctx context.Context, db *gorm.DB) (snowflake.ID, error)
	FindGeneration(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Generation, error)
	ListRecords(ctx context.Context, db *gorm.DB, generationID snowflake.ID) ([]Record, error)
	DeleteOtherGenerations(ctx context.Context, db *gorm.DB, keep snowflake.ID) error
}
