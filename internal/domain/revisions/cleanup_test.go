package revisions

import (
	"testing"

	"storefront-app/internal/domain/pages"
)

func TestCleanupKeepsNewest(t *testing.T) {
	db := testDB(t)
	page := makePage(t, db)

	for i := 0; i < 8; i++ {
		createRevision(t, db, page.ID, snapWith(pages.SectionHero), nil, "save", ChangeManualSave)
	}

	deleted, err := Cleanup(db, page.ID, 3)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 5 {
		t.Fatalf("deleted = %d, want 5", deleted)
	}

	out, total, err := List(db, page.ID, 1, 20, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("survivors = %d, want 3", total)
	}
	for i, want := range []int{8, 7, 6} {
		if out[i].VersionNumber != want {
			t.Fatalf("survivor %d has version %d, want %d", i, out[i].VersionNumber, want)
		}
	}
}

func TestCleanupIdempotent(t *testing.T) {
	db := testDB(t)
	page := makePage(t, db)

	for i := 0; i < 5; i++ {
		createRevision(t, db, page.ID, snapWith(pages.SectionHero), nil, "save", ChangeManualSave)
	}

	if _, err := Cleanup(db, page.ID, 2); err != nil {
		t.Fatalf("first cleanup: %v", err)
	}
	deleted, err := Cleanup(db, page.ID, 2)
	if err != nil {
		t.Fatalf("second cleanup: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("second run deleted %d, want 0", deleted)
	}
}

func TestCleanupClampsKeepToOne(t *testing.T) {
	db := testDB(t)
	page := makePage(t, db)

	createRevision(t, db, page.ID, snapWith(pages.SectionHero), nil, "first", ChangeManualSave)
	newest := createRevision(t, db, page.ID, snapWith(pages.SectionFooter), nil, "second", ChangeManualSave)

	deleted, err := Cleanup(db, page.ID, 0)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	out, total, err := List(db, page.ID, 1, 20, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || out[0].ID != newest.ID {
		t.Fatal("newest revision must survive keep=0")
	}
}

func TestCleanupNoopBelowCap(t *testing.T) {
	db := testDB(t)
	page := makePage(t, db)

	createRevision(t, db, page.ID, snapWith(pages.SectionHero), nil, "only", ChangeManualSave)

	deleted, err := Cleanup(db, page.ID, 10)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("deleted = %d, want 0", deleted)
	}
}

func TestCleanupAllSweepsEveryPage(t *testing.T) {
	db := testDB(t)
	a := makePage(t, db)
	b := pages.Page{UserID: 1, Slug: "second", Title: "Second", PageType: pages.PageTypeCustom}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("create second page: %v", err)
	}

	for i := 0; i < 4; i++ {
		createRevision(t, db, a.ID, snapWith(pages.SectionHero), nil, "save", ChangeManualSave)
		createRevision(t, db, b.ID, snapWith(pages.SectionFooter), nil, "save", ChangeManualSave)
	}

	deleted, err := CleanupAll(db, 2)
	if err != nil {
		t.Fatalf("cleanup all: %v", err)
	}
	if deleted != 4 {
		t.Fatalf("deleted = %d, want 4", deleted)
	}
	for _, pageID := range []string{a.ID, b.ID} {
		_, total, err := List(db, pageID, 1, 20, "")
		if err != nil {
			t.Fatalf("list %s: %v", pageID, err)
		}
		if total != 2 {
			t.Fatalf("page %s kept %d revisions, want 2", pageID, total)
		}
	}
}
