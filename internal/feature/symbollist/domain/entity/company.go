// Package entity defines the domain models for the symbollist feature.
package entity

import "time"

// Company is one tracked ticker with the name shown next to it.
// The gorm tags describe the optional remote roster table.
type Company struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	Symbol      string    `gorm:"size:20;not null;uniqueIndex" json:"symbol"`
	DisplayName string    `gorm:"size:255;not null" json:"display_name"`
	IsActive    bool      `gorm:"not null;default:true" json:"-"`
	SortKey     int       `gorm:"not null;default:0" json:"-"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
}
