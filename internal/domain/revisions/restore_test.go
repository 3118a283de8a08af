package revisions

import (
	"testing"

	"storefront-app/internal/domain/pages"
	"storefront-app/internal/platform/logger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func addLiveSection(t *testing.T, db *gorm.DB, page *pages.Page, input pages.AddSectionInput) *pages.Section {
	t.Helper()
	var sec *pages.Section
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		sec, err = pages.AddSection(tx, page, input)
		return err
	})
	if err != nil {
		t.Fatalf("add section: %v", err)
	}
	return sec
}

func snapshotLive(t *testing.T, db *gorm.DB, pageID string) []pages.SectionSnapshot {
	t.Helper()
	sections, err := pages.LoadSections(db, pageID)
	if err != nil {
		t.Fatalf("load sections: %v", err)
	}
	return pages.SnapshotSections(sections)
}

func TestRestoreBringsBackSnapshot(t *testing.T) {
	db := testDB(t)
	page := makePage(t, db)

	hero := addLiveSection(t, db, page, pages.AddSectionInput{
		Type: pages.SectionHero,
		Blocks: []pages.BlockInput{
			{Type: "heading", Content: datatypes.JSON(`{"text":"Welcome"}`)},
		},
	})
	footer := addLiveSection(t, db, page, pages.AddSectionInput{Type: pages.SectionFooter})

	target := createRevision(t, db, page.ID, snapshotLive(t, db, page.ID), page.ThemeSettings, "good state", ChangeManualSave)

	// Drift: drop the footer and repaint the theme.
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := pages.RemoveSection(tx, page, footer.ID)
		return err
	})
	if err != nil {
		t.Fatalf("remove footer: %v", err)
	}
	err = db.Model(&pages.Page{}).Where("id = ?", page.ID).
		Update("theme_settings", datatypes.JSONMap{"primary_color": "#000000"}).Error
	if err != nil {
		t.Fatalf("repaint theme: %v", err)
	}

	result, err := Restore(db, logger.L(), page.ID, 1, target.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if result.RestoredFromVersion != 1 || result.BackupVersion != 2 {
		t.Fatalf("versions: restored_from=%d backup=%d", result.RestoredFromVersion, result.BackupVersion)
	}
	if !result.RevisionRecorded || !result.IntegrityOK {
		t.Fatalf("flags: recorded=%v integrity=%v", result.RevisionRecorded, result.IntegrityOK)
	}
	if result.SectionCount != 2 {
		t.Fatalf("section count = %d, want 2", result.SectionCount)
	}

	// Live tree matches the snapshot, same section and block identities.
	sections, err := pages.LoadSections(db, page.ID)
	if err != nil {
		t.Fatalf("reload sections: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("restored %d sections, want 2", len(sections))
	}
	if sections[0].ID != hero.ID || sections[1].ID != footer.ID {
		t.Fatal("restore must preserve section identities from the snapshot")
	}
	if len(sections[0].Blocks) != 1 || sections[0].Blocks[0].ID != hero.Blocks[0].ID {
		t.Fatal("restore must preserve block identities from the snapshot")
	}

	var reloaded pages.Page
	if err := db.First(&reloaded, "id = ?", page.ID).Error; err != nil {
		t.Fatalf("reload page: %v", err)
	}
	if reloaded.ThemeSettings["primary_color"] != "#112233" {
		t.Fatalf("theme not restored: %v", reloaded.ThemeSettings)
	}

	// History: target, backup, marker.
	out, total, err := List(db, page.ID, 1, 20, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("revision count = %d, want 3", total)
	}
	if out[0].VersionNumber != 3 || out[1].VersionNumber != 2 {
		t.Fatalf("unexpected history: %+v", out)
	}
}

func TestRestoreBlockedWhenNotRestorable(t *testing.T) {
	db := testDB(t)
	page := makePage(t, db)
	addLiveSection(t, db, page, pages.AddSectionInput{Type: pages.SectionHero})

	rev := createRevision(t, db, page.ID, snapshotLive(t, db, page.ID), page.ThemeSettings, "save", ChangeManualSave)
	if err := MarkRestoreAvailable(db, page.ID, rev.ID, false); err != nil {
		t.Fatalf("mark: %v", err)
	}

	_, err := Restore(db, logger.L(), page.ID, 1, rev.ID)
	if !pages.IsKind(err, pages.KindNotRestorable) {
		t.Fatalf("got %v, want not_restorable", err)
	}

	// Refused restore must leave no trace: no backup, no marker.
	_, total, err := List(db, page.ID, 1, 20, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 {
		t.Fatalf("revision count = %d after refused restore, want 1", total)
	}
}

func TestRestoreProceedsOnChecksumMismatch(t *testing.T) {
	db := testDB(t)
	page := makePage(t, db)
	addLiveSection(t, db, page, pages.AddSectionInput{Type: pages.SectionHero})

	rev := createRevision(t, db, page.ID, snapshotLive(t, db, page.ID), page.ThemeSettings, "save", ChangeManualSave)

	// Corrupt the stored checksum; the snapshot itself stays intact.
	err := db.Model(&PageRevision{}).Where("id = ?", rev.ID).
		Update("checksum", "deadbeef").Error
	if err != nil {
		t.Fatalf("corrupt checksum: %v", err)
	}

	result, err := Restore(db, logger.L(), page.ID, 1, rev.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if result.IntegrityOK {
		t.Fatal("integrity flag must report the mismatch")
	}
	if result.SectionCount != 1 {
		t.Fatalf("restore did not apply: %d sections", result.SectionCount)
	}
}
