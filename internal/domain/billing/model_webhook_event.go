package billing

import "time"

// WebhookEvent records every verified provider event by id so redeliveries are
// acknowledged without being applied twice.
type WebhookEvent struct {
	ID              uint   `gorm:"primaryKey"`
	EventID         string `gorm:"column:event_id;type:varchar(255);not null;uniqueIndex:idx_webhook_events_event_id"`
	EventType       string `gorm:"column:event_type;type:varchar(100);not null;index"`
	ProcessedAt     *time.Time
	ProcessingError string `gorm:"type:text"`
	CreatedAt       time.Time
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
