package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Record is one normalized export row. A record belongs to exactly one
// generation; its id is derived from the source file and row number and
// is stable across reloads of the same files.
type Record struct {
	GenerationID  snowflake.ID                          `json:"-" gorm:"column:generation_id;primaryKey;autoIncrement:false;index:idx_records_generation_position,priority:1"`
	ID            string                                `json:"id" gorm:"column:record_id;primaryKey"`
	Position      int                                   `json:"-" gorm:"column:position;not null;index:idx_records_generation_position,priority:2"`
	SourceFile    string                                `json:"source_file" gorm:"column:source_file;not null"`
	RowNum        int                                   `json:"row_num" gorm:"column:row_num;not null"`
	Name          *string                               `json:"name" gorm:"column:name"`
	Email         *string                               `json:"email" gorm:"column:email"`
	Phone         *string                               `json:"phone" gorm:"column:phone"`
	EventName     *string                               `json:"event_name" gorm:"column:event_name"`
	ActivityType  *string                               `json:"activity_type" gorm:"column:activity_type"`
	ActivityDate  *string                               `json:"activity_date" gorm:"column:activity_date"`
	PaymentStatus *string                               `json:"payment_status" gorm:"column:payment_status"`
	Amount        *float64                              `json:"amount" gorm:"column:amount"`
	Raw           datatypes.JSONType[map[string]string] `json:"raw" gorm:"column:raw"`
}

// TableName sets the database table name.
func (Record) TableName() string { return "records" }

// Generation is the bookkeeping row for one completed ingestion run.
type Generation struct {
	ID              snowflake.ID                `json:"id" gorm:"primaryKey;autoIncrement:false"`
	SessionID       string                      `json:"session_id" gorm:"column:session_id;not null"`
	FilesProcessed  int                         `json:"files_processed" gorm:"column:files_processed;not null"`
	RowsIngested    int                         `json:"rows_ingested" gorm:"column:rows_ingested;not null"`
	RowsSkipped     int                         `json:"rows_skipped" gorm:"column:rows_skipped;not null"`
	DuplicateEmails int                         `json:"duplicate_emails" gorm:"column:duplicate_emails;not null"`
	DuplicatePhones int                         `json:"duplicate_phones" gorm:"column:duplicate_phones;not null"`
	DurationMS      int64                       `json:"duration_ms" gorm:"column:duration_ms;not null"`
	Warnings        datatypes.JSONSlice[string] `json:"warnings" gorm:"column:warnings"`
	CreatedAt       time.Time                   `json:"created_at" gorm:"not null"`
}

// TableName sets the database table name.
func (Generation) TableName() string { return "generations" }

// AppState is a single named value, used for the current generation pointer.
type AppState struct {
	Name      string    `gorm:"column:name;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName sets the database table name.
func (AppState) TableName() string { return "app_state" }

// CurrentGenerationKey is the app_state row holding the live generation id.
const CurrentGenerationKey = "current_generation"
