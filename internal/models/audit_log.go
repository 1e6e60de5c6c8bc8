package models

import "time"

// AuditLog records one admin mutation of inventory, settings or accounts.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AdminID    int64     `gorm:"not null;index" json:"admin_id"`
	Action     string    `gorm:"size:100;not null;index" json:"action"`
	Resource   string    `gorm:"size:100;index" json:"resource"`
	ResourceID string    `gorm:"size:100;index" json:"resource_id"`
	Metadata   string    `gorm:"type:text" json:"metadata"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
