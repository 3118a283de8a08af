package pages

import (
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

var (
	nonSlug   = regexp.MustCompile(`[^a-z0-9\-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

// Slugify generates a URL-safe base slug from a page title.
// Example: "Summer Sale!" -> "summer-sale"
func Slugify(title string) string {
	base := strings.ToLower(strings.TrimSpace(title))
	base = strings.ReplaceAll(base, " ", "-")
	base = nonSlug.ReplaceAllString(base, "")
	base = multiDash.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")

	if base == "" {
		base = "page"
	}
	return base
}

// EnsureUniqueSlug returns base if no page of the owner uses it yet, otherwise
// base-2, base-3, ... until a free slug is found.
func EnsureUniqueSlug(db *gorm.DB, userID uint, base string) (string, error) {
	slug := base
	for n := 2; ; n++ {
		var count int64
		if err := db.Model(&Page{}).
			Where("user_id = ? AND slug = ?", userID, slug).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}
