package domain

import "time"

// Chat module related models

// ChatConversation one thread with a contact over a channel.
type ChatConversation struct {
	ID             int64     `json:"id,string" form:"id"`
	TenantId       int64     `gorm:"index" json:"tenant_id,string" form:"tenant_id"`
	ContactId      int64     `gorm:"index" json:"contact_id,string" form:"contact_id"`
	AssignedOprId  int64     `json:"assigned_opr_id,string" form:"assigned_opr_id"`
	Channel        string    `gorm:"size:20" json:"channel" form:"channel"` // whatsapp, instagram, telegram, email, webchat
	Status         string    `gorm:"size:16" json:"status" form:"status"`   // open, pending, closed
	ExternalId     string    `gorm:"index" json:"external_id" form:"external_id"`
	LastMessage    string    `json:"last_message"`
	LastMessageAt  time.Time `json:"last_message_at"`
	UnreadCount    int       `json:"unread_count"`
	Metadata       string    `json:"metadata" form:"metadata"` // channel extras as JSON text
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName Specify table name
func (ChatConversation) TableName() string {
	return "chat_conversation"
}

// ChatMessage a single message inside a conversation.
type ChatMessage struct {
	ID              int64     `json:"id,string" form:"id"`
	TenantId        int64     `gorm:"index" json:"tenant_id,string" form:"tenant_id"`
	ConversationId  int64     `gorm:"index" json:"conversation_id,string" form:"conversation_id"`
	SenderOprId     int64     `json:"sender_opr_id,string"`     // set when outbound
	SenderContactId int64     `json:"sender_contact_id,string"` // set when inbound
	Direction       string    `gorm:"size:16" json:"direction"` // inbound, outbound
	Type            string    `gorm:"size:16" json:"type"`      // text, image, video, audio, document, template, system
	Content         string    `json:"content" form:"content"`
	Metadata        string    `json:"metadata" form:"metadata"`
	IsRead          bool      `json:"is_read"`
	ReadAt          time.Time `json:"read_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName Specify table name
func (ChatMessage) TableName() string {
	return "chat_message"
}

// Conversation and message enums
const (
	ConversationOpen    = "open"
	ConversationPending = "pending"
	ConversationClosed  = "closed"

	MessageInbound  = "inbound"
	MessageOutbound = "outbound"

	MessageTypeText     = "text"
	MessageTypeImage    = "image"
	MessageTypeVideo    = "video"
	MessageTypeAudio    = "audio"
	MessageTypeDocument = "document"
	MessageTypeTemplate = "template"
	MessageTypeSystem   = "system"
)
