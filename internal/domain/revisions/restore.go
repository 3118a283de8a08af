package revisions

import (
	"fmt"
	"time"

	"storefront-app/internal/domain/pages"
	"storefront-app/internal/platform/logger"

	"gorm.io/gorm"
)

// RestoreResult summarizes a completed restore.
type RestoreResult struct {
	PageID              string    `json:"page_id"`
	SectionCount        int       `json:"section_count"`
	UpdatedAt           time.Time `json:"updated_at"`
	RestoredFromVersion int       `json:"restored_from_version"`
	BackupVersion       int       `json:"backup_version"`

	// False when the post-restore marker revision could not be written; the
	// restore itself has still taken effect.
	RevisionRecorded bool `json:"revision_recorded"`

	// False when the target snapshot's checksum did not verify. The restore
	// proceeds anyway; the flag is surfaced so an operator can investigate.
	IntegrityOK bool `json:"integrity_ok"`
}

// Restore overwrites the live page with a prior revision's snapshot.
//
// Step order matters: the current state is backed up as a new revision before
// anything is overwritten, and that backup is committed independently, so a
// failed restore never destroys the pre-restore state. A failure writing the
// trailing marker revision is reported, not fatal: the restore has already
// taken effect at that point.
func Restore(db *gorm.DB, log *logger.Logger, pageID string, userID uint, revisionID string) (*RestoreResult, error) {
	target, integrityOK, err := Get(db, pageID, revisionID)
	if err != nil {
		return nil, err
	}
	if !target.RestoreAvailable {
		return nil, pages.NotRestorable("revision version %d is marked non-restorable", target.VersionNumber)
	}
	if !integrityOK {
		log.Warn("restoring from revision with checksum mismatch",
			"page_id", pageID, "revision_id", revisionID, "version", target.VersionNumber)
	}

	var page pages.Page
	if err := db.First(&page, "id = ?", pageID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pages.NotFound("page %s not found", pageID)
		}
		return nil, fmt.Errorf("load page: %w", err)
	}
	liveSections, err := pages.LoadSections(db, pageID)
	if err != nil {
		return nil, err
	}

	// Backup the live state first, committed on its own: evidence for a retry
	// must survive any later failure.
	backup, err := Create(db, pageID, userID,
		pages.SnapshotSections(liveSections), page.ThemeSettings,
		fmt.Sprintf("Backup before restoring to version %d", target.VersionNumber),
		ChangeManualSave)
	if err != nil {
		return nil, fmt.Errorf("backup current state: %w", err)
	}

	snaps, err := pages.DecodeSectionsSnapshot(target.SectionsSnapshot)
	if err != nil {
		return nil, fmt.Errorf("decode target snapshot: %w", err)
	}
	theme, err := pages.DecodeThemeSnapshot(target.ThemeSnapshot)
	if err != nil {
		return nil, fmt.Errorf("decode target theme: %w", err)
	}
	rows := pages.RowsFromSnapshot(pageID, snaps)

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("section_id IN (?)",
			tx.Model(&pages.Section{}).Select("id").Where("page_id = ?", pageID),
		).Delete(&pages.Block{}).Error; err != nil {
			return fmt.Errorf("clear blocks: %w", err)
		}
		if err := tx.Where("page_id = ?", pageID).Delete(&pages.Section{}).Error; err != nil {
			return fmt.Errorf("clear sections: %w", err)
		}
		for i := range rows {
			if err := tx.Create(&rows[i]).Error; err != nil {
				return fmt.Errorf("restore section: %w", err)
			}
		}
		return tx.Model(&pages.Page{}).
			Where("id = ?", pageID).
			Updates(map[string]interface{}{"theme_settings": target.ThemeSnapshot}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("apply snapshot: %w", err)
	}

	if err := db.First(&page, "id = ?", pageID).Error; err != nil {
		return nil, fmt.Errorf("reload page: %w", err)
	}

	result := &RestoreResult{
		PageID:              pageID,
		SectionCount:        len(rows),
		UpdatedAt:           page.UpdatedAt,
		RestoredFromVersion: target.VersionNumber,
		BackupVersion:       backup.VersionNumber,
		RevisionRecorded:    true,
		IntegrityOK:         integrityOK,
	}

	desc := fmt.Sprintf("Restored to version %d", target.VersionNumber)
	if target.ChangeDescription != "" {
		desc = fmt.Sprintf("%s: %s", desc, target.ChangeDescription)
	}
	if _, err := Create(db, pageID, userID, snaps, theme, desc, ChangeManualSave); err != nil {
		// The live page is already restored; the history is just missing its
		// marker. Log for reconciliation and report partial success.
		log.Error("restore applied but marker revision failed",
			"page_id", pageID, "restored_from", target.VersionNumber, "error", err)
		result.RevisionRecorded = false
	}

	return result, nil
}
