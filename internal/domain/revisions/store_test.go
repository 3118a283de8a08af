package revisions

import (
	"testing"

	"storefront-app/internal/domain/pages"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&pages.Page{}, &pages.Section{}, &pages.Block{}, &PageRevision{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func makePage(t *testing.T, db *gorm.DB) *pages.Page {
	t.Helper()
	page := pages.Page{
		UserID:        1,
		Slug:          "landing",
		Title:         "Landing",
		PageType:      pages.PageTypeCustom,
		ThemeSettings: datatypes.JSONMap{"primary_color": "#112233"},
	}
	if err := db.Create(&page).Error; err != nil {
		t.Fatalf("create page: %v", err)
	}
	return &page
}

func snapWith(types ...string) []pages.SectionSnapshot {
	out := make([]pages.SectionSnapshot, len(types))
	for i, typ := range types {
		out[i] = pages.SectionSnapshot{
			SectionID: typ + "-id",
			Type:      typ,
			Order:     i,
			Visible:   true,
		}
	}
	return out
}

func createRevision(t *testing.T, db *gorm.DB, pageID string, snaps []pages.SectionSnapshot, theme datatypes.JSONMap, desc, changeType string) *PageRevision {
	t.Helper()
	rev, err := Create(db, pageID, 1, snaps, theme, desc, changeType)
	if err != nil {
		t.Fatalf("create revision: %v", err)
	}
	return rev
}

func TestCreateAssignsSequentialVersions(t *testing.T) {
	db := testDB(t)
	page := makePage(t, db)

	for want := 1; want <= 3; want++ {
		rev := createRevision(t, db, page.ID, snapWith(pages.SectionHero), page.ThemeSettings, "save", ChangeManualSave)
		if rev.VersionNumber != want {
			t.Fatalf("version = %d, want %d", rev.VersionNumber, want)
		}
		if rev.Checksum == "" {
			t.Fatal("checksum must be stored")
		}
		if rev.FileSize <= 0 {
			t.Fatalf("file size = %d, want > 0", rev.FileSize)
		}
		if !rev.RestoreAvailable {
			t.Fatal("new revisions must be restorable")
		}
	}
}

func TestVersionNumbersNeverReusedAfterDelete(t *testing.T) {
	db := testDB(t)
	page := makePage(t, db)

	v1 := createRevision(t, db, page.ID, snapWith(pages.SectionHero), nil, "first", ChangeManualSave)
	v2 := createRevision(t, db, page.ID, snapWith(pages.SectionHero, pages.SectionFooter), nil, "second", ChangeSectionAdded)

	if err := Delete(db, page.ID, v1.ID); err != nil {
		t.Fatalf("delete v1: %v", err)
	}

	// One row remains; the next version must still be 3, not 2.
	v3 := createRevision(t, db, page.ID, snapWith(pages.SectionFooter), nil, "third", ChangeSectionRemoved)
	if v3.VersionNumber == v2.VersionNumber {
		t.Fatalf("version %d reused after delete", v3.VersionNumber)
	}

	// Surviving revisions keep their numbers.
	got, _, err := Get(db, page.ID, v2.ID)
	if err != nil {
		t.Fatalf("get v2: %v", err)
	}
	if got.VersionNumber != 2 {
		t.Fatalf("v2 renumbered to %d", got.VersionNumber)
	}
}

func TestDeleteNewestForbidden(t *testing.T) {
	db := testDB(t)
	page := makePage(t, db)

	createRevision(t, db, page.ID, snapWith(pages.SectionHero), nil, "first", ChangeManualSave)
	newest := createRevision(t, db, page.ID, snapWith(pages.SectionHero), nil, "second", ChangeManualSave)

	err := Delete(db, page.ID, newest.ID)
	if !pages.IsKind(err, pages.KindForbidden) {
		t.Fatalf("got %v, want forbidden", err)
	}

	var count int64
	db.Model(&PageRevision{}).Where("page_id = ?", page.ID).Count(&count)
	if count != 2 {
		t.Fatalf("revision count = %d after refused delete, want 2", count)
	}
}

func TestGetReportsIntegrity(t *testing.T) {
	db := testDB(t)
	page := makePage(t, db)
	rev := createRevision(t, db, page.ID, snapWith(pages.SectionHero), page.ThemeSettings, "save", ChangeManualSave)

	_, ok, err := Get(db, page.ID, rev.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("fresh revision must verify")
	}

	// Tamper with the stored snapshot behind the checksum's back.
	err = db.Model(&PageRevision{}).Where("id = ?", rev.ID).
		Update("sections_snapshot", datatypes.JSON(`[]`)).Error
	if err != nil {
		t.Fatalf("tamper: %v", err)
	}

	got, ok, err := Get(db, page.ID, rev.ID)
	if err != nil {
		t.Fatalf("get after tamper: %v", err)
	}
	if ok {
		t.Fatal("tampered snapshot must fail verification")
	}
	if got == nil {
		t.Fatal("tampered revision must still be returned")
	}
}

func TestGetUnknownRevision(t *testing.T) {
	db := testDB(t)
	page := makePage(t, db)

	_, _, err := Get(db, page.ID, "00000000-0000-0000-0000-000000000000")
	if !pages.IsKind(err, pages.KindNotFound) {
		t.Fatalf("got %v, want not_found", err)
	}
}

func TestListPaginationAndFilter(t *testing.T) {
	db := testDB(t)
	page := makePage(t, db)

	createRevision(t, db, page.ID, snapWith(pages.SectionHero), nil, "v1", ChangeManualSave)
	createRevision(t, db, page.ID, snapWith(pages.SectionHero), nil, "v2", ChangeSectionAdded)
	createRevision(t, db, page.ID, snapWith(pages.SectionHero), nil, "v3", ChangeSectionAdded)
	createRevision(t, db, page.ID, snapWith(pages.SectionHero), nil, "v4", ChangeThemeUpdated)

	out, total, err := List(db, page.ID, 1, 2, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 4 {
		t.Fatalf("total = %d, want 4", total)
	}
	if len(out) != 2 || out[0].VersionNumber != 4 || out[1].VersionNumber != 3 {
		t.Fatalf("page 1 wrong: %+v", out)
	}

	out, _, err = List(db, page.ID, 2, 2, "")
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(out) != 2 || out[0].VersionNumber != 2 || out[1].VersionNumber != 1 {
		t.Fatalf("page 2 wrong: %+v", out)
	}

	out, total, err = List(db, page.ID, 1, 20, ChangeSectionAdded)
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if total != 2 || len(out) != 2 {
		t.Fatalf("filter total = %d, rows = %d, want 2/2", total, len(out))
	}
	for _, s := range out {
		if s.ChangeType != ChangeSectionAdded {
			t.Fatalf("filter leaked change type %s", s.ChangeType)
		}
	}
}

func TestMarkRestoreAvailable(t *testing.T) {
	db := testDB(t)
	page := makePage(t, db)
	rev := createRevision(t, db, page.ID, snapWith(pages.SectionHero), nil, "save", ChangeManualSave)

	if err := MarkRestoreAvailable(db, page.ID, rev.ID, false); err != nil {
		t.Fatalf("mark: %v", err)
	}
	got, _, err := Get(db, page.ID, rev.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RestoreAvailable {
		t.Fatal("flag not cleared")
	}

	err = MarkRestoreAvailable(db, page.ID, "00000000-0000-0000-0000-000000000000", true)
	if !pages.IsKind(err, pages.KindNotFound) {
		t.Fatalf("got %v, want not_found", err)
	}
}

func TestCompare(t *testing.T) {
	db := testDB(t)
	page := makePage(t, db)

	a := createRevision(t, db, page.ID, snapWith(pages.SectionHero),
		datatypes.JSONMap{"primary_color": "#112233"}, "one section", ChangeManualSave)
	b := createRevision(t, db, page.ID, snapWith(pages.SectionHero, pages.SectionGallery, pages.SectionFooter),
		datatypes.JSONMap{"primary_color": "#ffffff"}, "three sections", ChangeSectionAdded)

	cmp, err := Compare(db, page.ID, a.ID, b.ID)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if cmp.VersionA != 1 || cmp.VersionB != 2 {
		t.Fatalf("versions = %d/%d", cmp.VersionA, cmp.VersionB)
	}
	if cmp.SectionCountA != 1 || cmp.SectionCountB != 3 || cmp.SectionCountDelta != 2 {
		t.Fatalf("counts = %d/%d delta %d", cmp.SectionCountA, cmp.SectionCountB, cmp.SectionCountDelta)
	}
	if !cmp.ThemeChanged {
		t.Fatal("theme change not detected")
	}

	// Same revision on both sides: no differences.
	cmp, err = Compare(db, page.ID, a.ID, a.ID)
	if err != nil {
		t.Fatalf("self compare: %v", err)
	}
	if cmp.SectionCountDelta != 0 || cmp.ThemeChanged {
		t.Fatalf("self compare reported differences: %+v", cmp)
	}
}
