package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// DeliveryLog is an append-only record of one delivery attempt.
type DeliveryLog struct {
	ID                snowflake.ID      `gorm:"primaryKey" json:"id"`
	InvoiceID         snowflake.ID      `gorm:"not null;index" json:"invoice_id"`
	Channel           string            `gorm:"type:varchar(16);not null" json:"channel"`
	Recipient         string            `gorm:"not null" json:"recipient"`
	Status            string            `gorm:"type:varchar(16);not null" json:"status"`
	ExternalMessageID string            `gorm:"not null;default:''" json:"external_message_id,omitempty"`
	ErrorMessage      string            `gorm:"not null;default:''" json:"error_message,omitempty"`
	Metadata          datatypes.JSONMap `gorm:"not null" json:"metadata,omitempty"`
	CreatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (DeliveryLog) TableName() string { return "invoice_delivery_log" }
