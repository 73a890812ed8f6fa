package model

import "time"

// CredentialSlot is one unit of a product's finite pool of access secrets.
// A slot is consumed at most once: the assigned flag flips true exactly when
// the allocator claims it and never flips back.
type CredentialSlot struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement"`
	ProductID  uint64     `gorm:"column:product_id;index;not null"`
	LoginEmail string     `gorm:"column:login_email;size:255;not null"`
	LoginPass  string     `gorm:"column:login_pass;size:255;not null"`
	Assigned   bool       `gorm:"column:assigned;index;not null;default:false"`
	AssignedAt *time.Time `gorm:"column:assigned_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime"`
}

func (CredentialSlot) TableName() string {
	return "credential_slots"
}
