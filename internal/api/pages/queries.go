package pages

import (
	domain "storefront-app/internal/domain/pages"

	"gorm.io/gorm"
)

func userPagesQuery(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&domain.Page{}).Where("user_id = ?", userID)
}

// preloadTree loads sections and their blocks in display order.
func preloadTree(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_index ASC")
		}).
		Preload("Sections.Blocks", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_index ASC")
		})
}

// loadOwnedPage fetches a page with its full tree, scoped to the owner.
func loadOwnedPage(db *gorm.DB, userID uint, pageID string) (*domain.Page, error) {
	var page domain.Page
	err := preloadTree(userPagesQuery(db, userID)).
		First(&page, "id = ?", pageID).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}
