package revisions

import (
	"fmt"

	"gorm.io/gorm"
)

// DefaultKeepCount bounds revision history per page when no explicit cap is
// configured.
const DefaultKeepCount = 50

// Cleanup trims a page's revision log down to the newest keep entries and
// returns how many were deleted. keep below 1 is clamped to 1 so the newest
// revision can never be swept. Idempotent: a second run deletes nothing.
func Cleanup(db *gorm.DB, pageID string, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}

	// The keep-th newest revision is the retention cutoff; anything with a
	// lower version number goes.
	var cutoff PageRevision
	err := db.Where("page_id = ?", pageID).
		Order("version_number DESC").
		Offset(keep - 1).
		Limit(1).
		First(&cutoff).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil // fewer than keep revisions
	}
	if err != nil {
		return 0, fmt.Errorf("find retention cutoff: %w", err)
	}

	res := db.Delete(&PageRevision{}, "page_id = ? AND version_number < ?", pageID, cutoff.VersionNumber)
	if res.Error != nil {
		return 0, fmt.Errorf("delete stale revisions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CleanupAll runs retention over every page that has revisions. Used by the
// optional background sweep.
func CleanupAll(db *gorm.DB, keep int) (int64, error) {
	var pageIDs []string
	if err := db.Model(&PageRevision{}).Distinct("page_id").Pluck("page_id", &pageIDs).Error; err != nil {
		return 0, fmt.Errorf("list pages with revisions: %w", err)
	}

	var total int64
	for _, id := range pageIDs {
		n, err := Cleanup(db, id, keep)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
