package model

import "time"

// FlaggedImageHash records the content hash of a screenshot that was flagged,
// rejected, or consumed by a verified payment, so identical resubmissions
// short-circuit before OCR runs.
type FlaggedImageHash struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Hash      string    `gorm:"column:hash;size:64;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (FlaggedImageHash) TableName() string {
	return "flagged_image_hashes"
}
