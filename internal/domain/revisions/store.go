package revisions

import (
	"bytes"
	"encoding/json"
	"fmt"

	"storefront-app/internal/domain/pages"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
	Revision store
	--------------
	Append-only history per page. Create is the only write path for snapshot
	content; version numbers are count(existing)+1 and never reused, even
	after deletions.
*/

// Create appends a new revision for the page. The snapshot pair is serialized,
// checksummed and sized at write time; the stored copy is independent of the
// live tree.
func Create(tx *gorm.DB, pageID string, userID uint, sections []pages.SectionSnapshot, theme datatypes.JSONMap, description, changeType string) (*PageRevision, error) {
	var count int64
	if err := tx.Model(&PageRevision{}).Where("page_id = ?", pageID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count revisions: %w", err)
	}

	sectionsJSON, themeJSON, err := pages.EncodeSnapshot(sections, theme)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	sum, err := pages.Checksum(sectionsJSON, themeJSON)
	if err != nil {
		return nil, fmt.Errorf("checksum snapshot: %w", err)
	}

	rev := PageRevision{
		PageID:            pageID,
		UserID:            userID,
		VersionNumber:     int(count) + 1,
		SectionsSnapshot:  datatypes.JSON(sectionsJSON),
		ThemeSnapshot:     datatypes.JSON(themeJSON),
		ChangeType:        changeType,
		ChangeDescription: description,
		Checksum:          sum,
		FileSize:          len(sectionsJSON) + len(themeJSON),
		RestoreAvailable:  true,
	}
	if err := tx.Create(&rev).Error; err != nil {
		return nil, fmt.Errorf("create revision: %w", err)
	}
	return &rev, nil
}

// List returns revision summaries newest-first, optionally filtered by change
// type, plus the total matching count. page is 1-based.
func List(db *gorm.DB, pageID string, page, limit int, changeType string) ([]Summary, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	q := db.Model(&PageRevision{}).Where("page_id = ?", pageID)
	if changeType != "" {
		q = q.Where("change_type = ?", changeType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count revisions: %w", err)
	}

	var out []Summary
	err := q.Select("id, page_id, user_id, version_number, change_type, change_description, checksum, file_size, restore_available, created_at").
		Order("version_number DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list revisions: %w", err)
	}
	return out, total, nil
}

// Get loads a full revision including snapshots. The stored checksum is
// recomputed against the snapshot; a mismatch is reported through the second
// return value, not as an error, and the revision is still returned.
func Get(db *gorm.DB, pageID, revisionID string) (*PageRevision, bool, error) {
	var rev PageRevision
	err := db.First(&rev, "id = ? AND page_id = ?", revisionID, pageID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, pages.NotFound("revision %s not found for page", revisionID)
	}
	if err != nil {
		return nil, false, fmt.Errorf("load revision: %w", err)
	}

	sum, err := pages.Checksum(rev.SectionsSnapshot, rev.ThemeSnapshot)
	if err != nil {
		return &rev, false, nil
	}
	return &rev, sum == rev.Checksum, nil
}

// Delete removes a non-latest revision. The newest revision of a page is
// never deletable, so at least one recovery point always survives.
func Delete(tx *gorm.DB, pageID, revisionID string) error {
	var rev PageRevision
	err := tx.First(&rev, "id = ? AND page_id = ?", revisionID, pageID).Error
	if err == gorm.ErrRecordNotFound {
		return pages.NotFound("revision %s not found for page", revisionID)
	}
	if err != nil {
		return fmt.Errorf("load revision: %w", err)
	}

	var latest PageRevision
	if err := tx.Where("page_id = ?", pageID).Order("version_number DESC").First(&latest).Error; err != nil {
		return fmt.Errorf("load latest revision: %w", err)
	}
	if latest.ID == rev.ID {
		return pages.Forbidden("the newest revision (version %d) cannot be deleted", rev.VersionNumber)
	}

	if err := tx.Delete(&PageRevision{}, "id = ?", rev.ID).Error; err != nil {
		return fmt.Errorf("delete revision: %w", err)
	}
	return nil
}

// MarkRestoreAvailable flips the only mutable field of a revision.
func MarkRestoreAvailable(db *gorm.DB, pageID, revisionID string, available bool) error {
	res := db.Model(&PageRevision{}).
		Where("id = ? AND page_id = ?", revisionID, pageID).
		Update("restore_available", available)
	if res.Error != nil {
		return fmt.Errorf("update revision: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return pages.NotFound("revision %s not found for page", revisionID)
	}
	return nil
}

// Compare returns the section-count delta between two revisions of the same
// page and whether their theme snapshots differ. Intentionally coarse; not a
// field-level diff.
func Compare(db *gorm.DB, pageID, idA, idB string) (*Comparison, error) {
	revA, _, err := Get(db, pageID, idA)
	if err != nil {
		return nil, err
	}
	revB, _, err := Get(db, pageID, idB)
	if err != nil {
		return nil, err
	}

	countA, err := sectionCount(revA.SectionsSnapshot)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", idA, err)
	}
	countB, err := sectionCount(revB.SectionsSnapshot)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", idB, err)
	}

	themeChanged, err := themesDiffer(revA.ThemeSnapshot, revB.ThemeSnapshot)
	if err != nil {
		return nil, err
	}

	return &Comparison{
		PageID:            pageID,
		VersionA:          revA.VersionNumber,
		VersionB:          revB.VersionNumber,
		SectionCountA:     countA,
		SectionCountB:     countB,
		SectionCountDelta: countB - countA,
		ThemeChanged:      themeChanged,
	}, nil
}

func sectionCount(raw []byte) (int, error) {
	snaps, err := pages.DecodeSectionsSnapshot(raw)
	if err != nil {
		return 0, err
	}
	return len(snaps), nil
}

// themesDiffer compares serialized themes structurally: both sides are
// canonicalized so stored key order cannot produce a false positive.
func themesDiffer(a, b []byte) (bool, error) {
	ca, err := canonical(a)
	if err != nil {
		return false, err
	}
	cb, err := canonical(b)
	if err != nil {
		return false, err
	}
	return !bytes.Equal(ca, cb), nil
}

func canonical(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return []byte("null"), nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
