package domain

import "time"

// Billing module related models

// BillingPlan a subscription tier with usage limits.
type BillingPlan struct {
	ID          int64     `json:"id,string" form:"id"`
	Code        string    `gorm:"index" json:"code" form:"code"`
	Name        string    `json:"name" form:"name"`
	Price       float64   `json:"price" form:"price"` // monthly price in main currency units
	MaxOprs     int       `json:"max_oprs" form:"max_oprs"`
	MaxContacts int       `json:"max_contacts" form:"max_contacts"`
	MaxChannels int       `json:"max_channels" form:"max_channels"`
	Remark      string    `json:"remark" form:"remark"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName Specify table name
func (BillingPlan) TableName() string {
	return "billing_plan"
}

// BillingSubscription links one tenant to its active plan.
type BillingSubscription struct {
	ID        int64     `json:"id,string" form:"id"`
	TenantId  int64     `gorm:"uniqueIndex" json:"tenant_id,string" form:"tenant_id"`
	PlanId    int64     `gorm:"index" json:"plan_id,string" form:"plan_id"`
	Status    string    `gorm:"size:16" json:"status" form:"status"` // active, past_due, canceled
	PeriodEnd time.Time `json:"period_end"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (BillingSubscription) TableName() string {
	return "billing_subscription"
}
