package revisions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Change classifications for a revision's triggering mutation.
const (
	ChangeSectionAdded    = "section_added"
	ChangeSectionRemoved  = "section_removed"
	ChangeSectionModified = "section_modified"
	ChangeThemeUpdated    = "theme_updated"
	ChangeManualSave      = "manual_save"
)

// PageRevision is an immutable, checksummed snapshot of a page's sections and
// theme settings. Rows are only ever created by Create and deleted by Delete
// or Cleanup; restore_available is the single mutable field.
type PageRevision struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	PageID string `gorm:"type:uuid;not null;index:idx_page_revisions_page" json:"page_id"`
	UserID uint   `gorm:"not null" json:"user_id"`

	// Strictly increasing per page, starting at 1, never reused.
	VersionNumber int `gorm:"not null;index:idx_page_revisions_page" json:"version_number"`

	SectionsSnapshot datatypes.JSON `gorm:"type:jsonb;not null" json:"sections_snapshot,omitempty"`
	ThemeSnapshot    datatypes.JSON `gorm:"type:jsonb;not null;column:theme_snapshot" json:"theme_settings_snapshot,omitempty"`

	ChangeType        string `gorm:"not null;index" json:"change_type"`
	ChangeDescription string `json:"change_description"`

	Checksum string `gorm:"not null" json:"checksum"`
	FileSize int    `json:"file_size"`

	RestoreAvailable bool `gorm:"not null;default:true" json:"restore_available"`

	CreatedAt time.Time `json:"created_at"`
}

func (r *PageRevision) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Summary is the listing view of a revision: everything except the snapshot
// payloads, to bound list response sizes.
type Summary struct {
	ID                string    `json:"id"`
	PageID            string    `json:"page_id"`
	UserID            uint      `json:"user_id"`
	VersionNumber     int       `json:"version_number"`
	ChangeType        string    `json:"change_type"`
	ChangeDescription string    `json:"change_description"`
	Checksum          string    `json:"checksum"`
	FileSize          int       `json:"file_size"`
	RestoreAvailable  bool      `json:"restore_available"`
	CreatedAt         time.Time `json:"created_at"`
}

// Comparison is the coarse delta between two revisions.
type Comparison struct {
	PageID string `json:"page_id"`

	VersionA int `json:"version_a"`
	VersionB int `json:"version_b"`

	SectionCountA     int  `json:"section_count_a"`
	SectionCountB     int  `json:"section_count_b"`
	SectionCountDelta int  `json:"section_count_delta"`
	ThemeChanged      bool `json:"theme_changed"`
}
