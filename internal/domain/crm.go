package domain

import (
	"time"

	"gorm.io/gorm"
)

// CRM module related models

// CrmContact a person/company record owned by one tenant.
type CrmContact struct {
	ID        int64          `json:"id,string" form:"id" csv:"-"`
	TenantId  int64          `gorm:"index" json:"tenant_id,string" form:"tenant_id" csv:"-"`
	Name      string         `gorm:"index" json:"name" form:"name" csv:"name"`
	Email     string         `json:"email" form:"email" csv:"email"`
	Phone     string         `json:"phone" form:"phone" csv:"phone"`
	AvatarUrl string         `json:"avatar_url" form:"avatar_url" csv:"-"`
	Company   string         `json:"company" form:"company" csv:"company"`
	Position  string         `json:"position" form:"position" csv:"position"`
	Notes     string         `json:"notes" form:"notes" csv:"notes"`
	Status    string         `json:"status" form:"status" csv:"-"` // active, archived
	CreatedAt time.Time      `json:"created_at" csv:"-"`
	UpdatedAt time.Time      `json:"updated_at" csv:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-" csv:"-"`
}

// TableName Specify table name
func (CrmContact) TableName() string {
	return "crm_contact"
}

// CrmPipeline a sales pipeline with ordered stages.
type CrmPipeline struct {
	ID        int64     `json:"id,string" form:"id"`
	TenantId  int64     `gorm:"index" json:"tenant_id,string" form:"tenant_id"`
	Name      string    `json:"name" form:"name"`
	IsDefault bool      `json:"is_default" form:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (CrmPipeline) TableName() string {
	return "crm_pipeline"
}

type CrmPipelineStage struct {
	ID         int64     `json:"id,string" form:"id"`
	TenantId   int64     `gorm:"index" json:"tenant_id,string" form:"tenant_id"`
	PipelineId int64     `gorm:"index" json:"pipeline_id,string" form:"pipeline_id"`
	Name       string    `json:"name" form:"name"`
	Sort       int       `json:"sort" form:"sort"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName Specify table name
func (CrmPipelineStage) TableName() string {
	return "crm_pipeline_stage"
}

// CrmDeal an opportunity moving through pipeline stages.
type CrmDeal struct {
	ID         int64     `json:"id,string" form:"id"`
	TenantId   int64     `gorm:"index" json:"tenant_id,string" form:"tenant_id"`
	PipelineId int64     `gorm:"index" json:"pipeline_id,string" form:"pipeline_id"`
	StageId    int64     `gorm:"index" json:"stage_id,string" form:"stage_id"`
	ContactId  int64     `gorm:"index" json:"contact_id,string" form:"contact_id"`
	OwnerId    int64     `json:"owner_id,string" form:"owner_id"`
	Title      string    `json:"title" form:"title"`
	Value      float64   `json:"value" form:"value"`
	Currency   string    `gorm:"size:8" json:"currency" form:"currency"`
	Status     string    `gorm:"size:16" json:"status" form:"status"` // open, won, lost
	ClosedAt   time.Time `json:"closed_at"`
	Remark     string    `json:"remark" form:"remark"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName Specify table name
func (CrmDeal) TableName() string {
	return "crm_deal"
}

type CrmTask struct {
	ID         int64     `json:"id,string" form:"id"`
	TenantId   int64     `gorm:"index" json:"tenant_id,string" form:"tenant_id"`
	ContactId  int64     `json:"contact_id,string" form:"contact_id"`
	DealId     int64     `json:"deal_id,string" form:"deal_id"`
	AssigneeId int64     `json:"assignee_id,string" form:"assignee_id"`
	Title      string    `json:"title" form:"title"`
	DueAt      time.Time `json:"due_at" form:"due_at"`
	Done       bool      `json:"done" form:"done"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName Specify table name
func (CrmTask) TableName() string {
	return "crm_task"
}

type CrmTag struct {
	ID        int64     `json:"id,string" form:"id"`
	TenantId  int64     `gorm:"index" json:"tenant_id,string" form:"tenant_id"`
	Name      string    `json:"name" form:"name"`
	Color     string    `gorm:"size:16" json:"color" form:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (CrmTag) TableName() string {
	return "crm_tag"
}
