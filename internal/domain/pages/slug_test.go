package pages

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Summer Sale!", "summer-sale"},
		{"  Holiday   2026  ", "holiday-2026"},
		{"Black//Friday--Deals", "blackfriday-deals"},
		{"!!!", "page"},
		{"already-a-slug", "already-a-slug"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEnsureUniqueSlugSuffixesPerOwner(t *testing.T) {
	db := testDB(t)

	create := func(userID uint, slug string) {
		t.Helper()
		page := Page{UserID: userID, Slug: slug, Title: slug, PageType: PageTypeCustom}
		if err := db.Create(&page).Error; err != nil {
			t.Fatalf("create page: %v", err)
		}
	}
	create(1, "landing")
	create(1, "landing-2")

	got, err := EnsureUniqueSlug(db, 1, "landing")
	if err != nil {
		t.Fatalf("ensure slug: %v", err)
	}
	if got != "landing-3" {
		t.Fatalf("got %q, want landing-3", got)
	}

	// A different owner can reuse the slug untouched.
	got, err = EnsureUniqueSlug(db, 2, "landing")
	if err != nil {
		t.Fatalf("ensure slug: %v", err)
	}
	if got != "landing" {
		t.Fatalf("got %q, want landing", got)
	}
}
