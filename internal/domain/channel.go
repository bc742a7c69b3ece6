package domain

import (
	"time"

	"gorm.io/gorm"
)

// Channel module related models

// ChanChannel the generic per-tenant channel record (name/type/default flag).
// The whatsapp subsystem upserts status and phone number into it but the
// record itself is owned by the channels CRUD.
type ChanChannel struct {
	ID          int64          `json:"id,string" form:"id"`
	TenantId    int64          `gorm:"index" json:"tenant_id,string" form:"tenant_id"`
	Name        string         `json:"name" form:"name"`
	Type        string         `json:"type" form:"type"`     // whatsapp, instagram, telegram, email, webchat
	Status      string         `json:"status" form:"status"` // connected, disconnected
	PhoneNumber string         `json:"phone_number" form:"phone_number"`
	IsDefault   bool           `json:"is_default" form:"is_default"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName Specify table name
func (ChanChannel) TableName() string {
	return "chan_channel"
}

// WhatsappSession one tenant's provider session row; the durable source of
// truth for the channel connection manager. The QR payload is deliberately
// absent: it only ever lives in the in-process cache.
type WhatsappSession struct {
	ID              int64     `json:"id,string" form:"id"`
	TenantId        int64     `gorm:"uniqueIndex" json:"tenant_id,string" form:"tenant_id"`
	SessionId       string    `gorm:"uniqueIndex;size:128" json:"session_id" form:"session_id"`
	Status          string    `gorm:"size:32" json:"status" form:"status"` // disconnected, connecting, qr_pending, connected, error
	PhoneNumber     string    `gorm:"size:20" json:"phone_number" form:"phone_number"`
	DisplayName     string    `json:"display_name" form:"display_name"`
	LastUpdateAt    time.Time `json:"last_update_at"`
	LastHeartbeatAt time.Time `json:"last_heartbeat_at"`
	ErrorMessage    string    `json:"error_message"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName Specify table name
func (WhatsappSession) TableName() string {
	return "chan_whatsapp_session"
}

// Channel type and status values
const (
	ChannelTypeWhatsapp  = "whatsapp"
	ChannelTypeInstagram = "instagram"
	ChannelTypeTelegram  = "telegram"
	ChannelTypeEmail     = "email"
	ChannelTypeWebchat   = "webchat"

	ChannelConnected    = "connected"
	ChannelDisconnected = "disconnected"
)
