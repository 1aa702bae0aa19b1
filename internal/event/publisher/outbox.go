// Package publisher persists lifecycle events to the transactional
// outbox that feeds the downstream event bus.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	eventdomain "github.com/northcove/fulfillment/internal/event/domain"
	"github.com/northcove/fulfillment/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OutboxRecord is the persisted form of a published envelope. A relay
// outside this service drains unpublished rows onto the bus, which is
// where at-least-once delivery comes from.
type OutboxRecord struct {
	ID            snowflake.ID   `gorm:"primaryKey"`
	EventID       string         `gorm:"column:event_id;type:text;not null;uniqueIndex"`
	EventType     string         `gorm:"type:text;not null"`
	SchemaVersion string         `gorm:"type:text;not null"`
	Subject       string         `gorm:"type:text;not null;index"`
	Payload       datatypes.JSON `gorm:"type:jsonb;not null"`
	Published     bool           `gorm:"not null;default:false"`
	PublishedAt   *time.Time     `gorm:""`
	EventTime     time.Time      `gorm:"not null"`
	CreatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (OutboxRecord) TableName() string { return "subscription_events" }

type outboxPublisher struct {
	db    *gorm.DB
	genID *snowflake.Node
	log   *zap.Logger
}

func NewOutbox(db *gorm.DB, genID *snowflake.Node, log *zap.Logger) eventdomain.Publisher {
	return &outboxPublisher{
		db:    db,
		genID: genID,
		log:   log.Named("event.publisher"),
	}
}

func (p *outboxPublisher) Publish(ctx context.Context, envelope eventdomain.Envelope) error {
	payload, err := json.Marshal(envelope.Data)
	if err != nil {
		return fmt.Errorf("%w: encode payload: %v", eventdomain.ErrPublishFailed, err)
	}

	record := OutboxRecord{
		ID:            p.genID.Generate(),
		EventID:       envelope.ID,
		EventType:     string(envelope.Type),
		SchemaVersion: envelope.SchemaVersion,
		Subject:       envelope.Subject,
		Payload:       datatypes.JSON(payload),
		EventTime:     envelope.Time,
		CreatedAt:     time.Now().UTC(),
	}

	if err := p.db.WithContext(ctx).Create(&record).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			p.log.Warn("duplicate event id in outbox",
				zap.String("event_id", envelope.ID),
			)
			return fmt.Errorf("%w: duplicate event id %s", eventdomain.ErrPublishFailed, envelope.ID)
		}
		p.log.Error("outbox insert failed",
			zap.String("event_id", envelope.ID),
			zap.String("event_type", string(envelope.Type)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", eventdomain.ErrPublishFailed, err)
	}

	p.log.Info("event published",
		zap.String("event_id", envelope.ID),
		zap.String("event_type", string(envelope.Type)),
		zap.String("subject", envelope.Subject),
	)
	return nil
}
