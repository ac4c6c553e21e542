// Package events publishes ingest notifications over NATS for downstream
// consumers.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Event subjects.
const (
	SubjectEventReceived  = "webhook.event.received"
	SubjectEventDuplicate = "webhook.event.duplicate"
)

// IngestNotification announces an ingest decision.
type IngestNotification struct {
	NotificationID uuid.UUID `json:"notification_id"`
	DedupKey       string    `json:"dedup_key"`
	BlobKey        string    `json:"blob_key,omitempty"`
	ReceivedAt     time.Time `json:"received_at"`
}

// Publisher publishes ingest notifications. A nil Publisher is valid and
// publishes nothing, so callers need no guards when NATS is unconfigured.
type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// NewPublisher creates a Publisher over an established NATS connection.
func NewPublisher(nc *nats.Conn, logger *zap.Logger) *Publisher {
	return &Publisher{nc: nc, logger: logger}
}

// EventReceived announces a newly persisted event.
func (p *Publisher) EventReceived(dedupKey, blobKey string) {
	p.publish(SubjectEventReceived, IngestNotification{
		NotificationID: uuid.New(),
		DedupKey:       dedupKey,
		BlobKey:        blobKey,
		ReceivedAt:     time.Now().UTC(),
	})
}

// EventDuplicate announces an absorbed redelivery.
func (p *Publisher) EventDuplicate(dedupKey string) {
	p.publish(SubjectEventDuplicate, IngestNotification{
		NotificationID: uuid.New(),
		DedupKey:       dedupKey,
		ReceivedAt:     time.Now().UTC(),
	})
}

func (p *Publisher) publish(subject string, notification IngestNotification) {
	if p == nil || p.nc == nil {
		return
	}
	data, err := json.Marshal(notification)
	if err != nil {
		p.logger.Warn("failed to marshal notification", zap.Error(err), zap.String("subject", subject))
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish notification", zap.Error(err), zap.String("subject", subject))
		return
	}
	p.logger.Debug("published notification",
		zap.String("subject", subject),
		zap.String("dedup_key", notification.DedupKey),
	)
}
