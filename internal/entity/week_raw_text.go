package entity

import "time"

// WeekRawText is the original pasted (or feed-ingested) recommendation text
// for one week, kept verbatim for audit and re-extraction.
type WeekRawText struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	WeekID    string    `gorm:"size:8;not null;uniqueIndex" json:"week_id"`
	RawText   string    `gorm:"type:text" json:"raw_text"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
