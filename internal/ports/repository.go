package ports

import (
	"context"

	"krakenWebhook/internal/domain"
)

// AlertJournal is an append-only audit trail of processed alerts.
// The request path only writes to it; nothing reads it back to make decisions.
type AlertJournal interface {
	// Append stores one record and returns its assigned ID.
	Append(ctx context.Context, rec *domain.AlertRecord) (int64, error)
	// Recent returns the newest records first, up to limit.
	Recent(ctx context.Context, limit int) ([]*domain.AlertRecord, error)
}

// NopJournal discards every record.
type NopJournal struct{}

func (NopJournal) Append(ctx context.Context, rec *domain.AlertRecord) (int64, error) {
	return 0, nil
}

func (NopJournal) Recent(ctx context.Context, limit int) ([]*domain.AlertRecord, error) {
	return nil, nil
}
