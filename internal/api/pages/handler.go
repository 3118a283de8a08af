package pages

import (
	"fmt"
	"net/http"

	"storefront-app/config"
	"storefront-app/database"
	domain "storefront-app/internal/domain/pages"
	"storefront-app/internal/domain/revisions"
	"storefront-app/internal/platform/logger"
	"storefront-app/internal/realtime"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func mustUserID(c *gin.Context) (uint, bool) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return userID, true
}

func respondEngineError(c *gin.Context, err error) {
	switch {
	case domain.IsKind(err, domain.KindNotFound) || err == gorm.ErrRecordNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case domain.IsKind(err, domain.KindForbidden) || domain.IsKind(err, domain.KindNotRestorable):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case domain.IsKind(err, domain.KindInvalidIndex) || domain.IsKind(err, domain.KindInvalidPermutation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.L().Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// ------------------------------
// GET /pages
// ------------------------------
func ListPages(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var list []domain.Page
	err := userPagesQuery(database.DB, userID).
		Order("updated_at DESC").
		Find(&list).Error
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pages": list})
}

// ------------------------------
// GET /pages/:id
// ------------------------------
func GetPage(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	page, err := loadOwnedPage(database.DB, userID, c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// ------------------------------
// POST /pages
// ------------------------------
func CreatePage(c *gin.Context) {
	var req CreatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	pageType := req.PageType
	if pageType == "" {
		pageType = domain.PageTypeCustom
	}

	var page domain.Page
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		slug, err := domain.EnsureUniqueSlug(tx, userID, domain.Slugify(req.Title))
		if err != nil {
			return err
		}

		page = domain.Page{
			UserID:        userID,
			Slug:          slug,
			Title:         req.Title,
			PageType:      pageType,
			ThemeSettings: req.ThemeSettings,
		}
		if err := tx.Create(&page).Error; err != nil {
			return err
		}

		for i, payload := range req.Sections {
			sec := payload.toRow(page.ID, i)
			if err := tx.Create(&sec).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	recorded := appendRevision(&page, userID, revisions.ChangeManualSave, "Page created")

	created, err := loadOwnedPage(database.DB, userID, page.ID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"page": created, "revision_recorded": recorded})
}

// ------------------------------
// PUT /pages/:id  (editor bulk save)
// ------------------------------
func UpdatePage(c *gin.Context) {
	var req UpdatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	page, err := loadOwnedPage(database.DB, userID, c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if req.Title != nil {
			updates["title"] = *req.Title
		}
		if req.PageType != nil {
			updates["page_type"] = *req.PageType
		}
		if req.ThemeSettings != nil {
			updates["theme_settings"] = themeMap(req.ThemeSettings)
		}
		if len(updates) > 0 {
			if err := tx.Model(&domain.Page{}).Where("id = ?", page.ID).Updates(updates).Error; err != nil {
				return err
			}
		}

		if req.Sections != nil {
			if err := tx.Where("section_id IN (?)",
				tx.Model(&domain.Section{}).Select("id").Where("page_id = ?", page.ID),
			).Delete(&domain.Block{}).Error; err != nil {
				return err
			}
			if err := tx.Where("page_id = ?", page.ID).Delete(&domain.Section{}).Error; err != nil {
				return err
			}
			for i, payload := range *req.Sections {
				sec := payload.toRow(page.ID, i)
				if err := tx.Create(&sec).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	updated, err := loadOwnedPage(database.DB, userID, page.ID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	changeType, description := classifySave(req)
	recorded := true
	if changeType != "" {
		recorded = appendRevision(updated, userID, changeType, description)
	}

	broadcastPage(updated)
	c.JSON(http.StatusOK, gin.H{"page": updated, "revision_recorded": recorded})
}

// ------------------------------
// POST /pages/:id/publish
// ------------------------------
func PublishPage(c *gin.Context) {
	var req PublishPageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Publish == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "publish required"})
		return
	}

	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	page, err := loadOwnedPage(database.DB, userID, c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"published": *req.Publish}
		if *req.Publish {
			updates["version"] = gorm.Expr("version + 1")
		}
		if req.Activate && *req.Publish {
			// At most one active page per owner.
			if err := tx.Model(&domain.Page{}).
				Where("user_id = ? AND id <> ?", userID, page.ID).
				Update("is_active", false).Error; err != nil {
				return err
			}
			updates["is_active"] = true
		}
		if !*req.Publish {
			updates["is_active"] = false
		}
		return tx.Model(&domain.Page{}).Where("id = ?", page.ID).Updates(updates).Error
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	updated, err := loadOwnedPage(database.DB, userID, page.ID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"page": updated})
}

// ------------------------------
// POST /pages/:id/duplicate
// ------------------------------
func DuplicatePage(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	page, err := loadOwnedPage(database.DB, userID, c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}

	var dup domain.Page
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		slug, err := domain.EnsureUniqueSlug(tx, userID, page.Slug+"-copy")
		if err != nil {
			return err
		}

		dup = domain.Page{
			UserID:        userID,
			Slug:          slug,
			Title:         page.Title + " (copy)",
			PageType:      page.PageType,
			ThemeSettings: page.ThemeSettings,
		}
		if err := tx.Create(&dup).Error; err != nil {
			return err
		}

		// Fresh IDs throughout: the copy is a new tree, not shared rows.
		for _, snap := range domain.SnapshotSections(page.Sections) {
			snap.SectionID = ""
			for i := range snap.Blocks {
				snap.Blocks[i].BlockID = ""
			}
			rows := domain.RowsFromSnapshot(dup.ID, []domain.SectionSnapshot{snap})
			rows[0].SortIndex = snap.Order
			if err := tx.Create(&rows[0]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	recorded := appendRevision(&dup, userID, revisions.ChangeManualSave,
		fmt.Sprintf("Duplicated from %q", page.Title))

	created, err := loadOwnedPage(database.DB, userID, dup.ID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"page": created, "revision_recorded": recorded})
}

// ------------------------------
// DELETE /pages/:id
// ------------------------------
func DeletePage(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	page, err := loadOwnedPage(database.DB, userID, c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("section_id IN (?)",
			tx.Model(&domain.Section{}).Select("id").Where("page_id = ?", page.ID),
		).Delete(&domain.Block{}).Error; err != nil {
			return err
		}
		if err := tx.Where("page_id = ?", page.ID).Delete(&domain.Section{}).Error; err != nil {
			return err
		}
		if err := tx.Where("page_id = ?", page.ID).Delete(&revisions.PageRevision{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Page{}, "id = ?", page.ID).Error
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ------------------------------
// helpers
// ------------------------------

// appendRevision snapshots the page's current tree as a new revision and runs
// opportunistic retention. The returned bool means "history is current": true
// after a successful append AND after a skipped no-op save whose snapshot
// already equals the latest revision. A failure here never rolls back the
// page mutation; it is logged and reported as revision_recorded=false.
func appendRevision(page *domain.Page, userID uint, changeType, description string) bool {
	sections, err := domain.LoadSections(database.DB, page.ID)
	if err != nil {
		logger.L().Error("revision snapshot load failed", "page_id", page.ID, "error", err)
		return false
	}

	var current domain.Page
	if err := database.DB.First(&current, "id = ?", page.ID).Error; err != nil {
		logger.L().Error("revision snapshot load failed", "page_id", page.ID, "error", err)
		return false
	}

	snaps := domain.SnapshotSections(sections)

	// No-op saves are not history: skip when nothing changed since the
	// latest revision.
	if sectionsJSON, themeJSON, err := domain.EncodeSnapshot(snaps, current.ThemeSettings); err == nil {
		if sum, err := domain.Checksum(sectionsJSON, themeJSON); err == nil {
			var latest revisions.PageRevision
			if err := database.DB.Where("page_id = ?", page.ID).
				Order("version_number DESC").First(&latest).Error; err == nil && latest.Checksum == sum {
				return true
			}
		}
	}

	_, err = revisions.Create(database.DB, page.ID, userID, snaps, current.ThemeSettings, description, changeType)
	if err != nil {
		logger.L().Error("revision append failed", "page_id", page.ID, "change_type", changeType, "error", err)
		return false
	}

	if _, err := revisions.Cleanup(database.DB, page.ID, config.RevisionKeep()); err != nil {
		logger.L().Warn("revision cleanup failed", "page_id", page.ID, "error", err)
	}
	return true
}

func broadcastPage(page *domain.Page) {
	realtime.Publish(page.UserID, realtime.PagePayload{
		PageID:        page.ID,
		PageType:      page.PageType,
		Sections:      page.Sections,
		ThemeSettings: page.ThemeSettings,
	})
}

func classifySave(req UpdatePageRequest) (changeType, description string) {
	switch {
	case req.Sections != nil && req.ThemeSettings != nil:
		return revisions.ChangeManualSave, "Page saved"
	case req.ThemeSettings != nil:
		return revisions.ChangeThemeUpdated, "Theme settings updated"
	case req.Sections != nil:
		return revisions.ChangeSectionModified, "Sections updated"
	default:
		return "", "" // metadata-only update, no snapshot-worthy change
	}
}
