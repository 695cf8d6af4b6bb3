package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicedesk/internal/invoice/numbering"
)

type Client struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null;index" json:"name"`
	Email     string       `gorm:"not null;default:''" json:"email,omitempty"`
	Phone     string       `gorm:"not null;default:''" json:"phone,omitempty"`
	Address   string       `gorm:"not null;default:''" json:"address,omitempty"`
	Country   string       `gorm:"not null;default:''" json:"country,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Client) TableName() string { return "clients" }

// Abbreviation is the code embedded in this client's invoice numbers.
func (c Client) Abbreviation() string {
	return numbering.Abbreviate(c.Name)
}
