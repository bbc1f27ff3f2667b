package domain

import (
	"context"
	"errors"
)

type Service interface {
	Get(ctx context.Context, id string) (*Response, error)
}

// Response is the full record shape served to the UI, including the
// original parsed row.
type Response struct {
	ID            string            `json:"id"`
	SourceFile    string            `json:"source_file"`
	RowNum        int               `json:"row_num"`
	Name          *string           `json:"name"`
	Email         *string           `json:"email"`
	Phone         *string           `json:"phone"`
	EventName     *string           `json:"event_name"`
	ActivityType  *string           `json:"activity_type"`
	ActivityDate  *string           `json:"activity_date"`
	Amount        *float64          `json:"amount"`
	PaymentStatus *string           `json:"payment_status"`
	Raw           map[string]string `json:"raw"`
}

var (
	ErrInvalidID         = errors.New("invalid_record_id")
	ErrNotFound          = errors.New("record_not_found")
	ErrGenerationExists  = errors.New("generation_exists")
	ErrNoCurrentSnapshot = errors.New("no_current_snapshot")
)
