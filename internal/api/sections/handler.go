package sections

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
	"gorm.io/datatypes"
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
	case domain.IsKind(err, domain.KindInvalidIndex):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case domain.IsKind(err, domain.KindInvalidPermutation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.L().Error("section request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

func loadOwnedPage(userID uint, pageID string) (*domain.Page, error) {
	var page domain.Page
	err := database.DB.Where("user_id = ?", userID).First(&page, "id = ?", pageID).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// ------------------------------
// POST /pages/:id/sections
// ------------------------------
func AddSection(c *gin.Context) {
	var req AddSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	page, err := loadOwnedPage(userID, c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}

	if req.InsertAt != nil {
		logClampedInsert(page.ID, *req.InsertAt)
	}

	var sec *domain.Section
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		sec, err = domain.AddSection(tx, page, domain.AddSectionInput{
			Type:     req.Type,
			Visible:  req.Visible,
			Settings: datatypes.JSON(req.Settings),
			Blocks:   blockInputs(req.Blocks),
			InsertAt: req.InsertAt,
		})
		return err
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	recorded := afterMutation(page, userID, revisions.ChangeSectionAdded,
		fmt.Sprintf("Added %s section", sec.Type))

	c.JSON(http.StatusCreated, gin.H{"section": sec, "revision_recorded": recorded})
}

// ------------------------------
// PUT /pages/:id/sections/:sectionId
// ------------------------------
func UpdateSection(c *gin.Context) {
	var req UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	page, err := loadOwnedPage(userID, c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}

	var sec *domain.Section
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		patch := domain.SectionPatch{
			Type:     req.Type,
			Visible:  req.Visible,
			Settings: req.Settings,
		}
		if req.Blocks != nil {
			inputs := blockInputs(*req.Blocks)
			patch.Blocks = &inputs
		}
		sec, err = domain.UpdateSection(tx, page, c.Param("sectionId"), patch)
		return err
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	recorded := afterMutation(page, userID, revisions.ChangeSectionModified,
		fmt.Sprintf("Updated %s section", sec.Type))

	c.JSON(http.StatusOK, gin.H{"section": sec, "revision_recorded": recorded})
}

// ------------------------------
// DELETE /pages/:id/sections/:sectionId
// ------------------------------
func DeleteSection(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	page, err := loadOwnedPage(userID, c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}

	var removed *domain.Section
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		removed, err = domain.RemoveSection(tx, page, c.Param("sectionId"))
		return err
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	recorded := afterMutation(page, userID, revisions.ChangeSectionRemoved,
		fmt.Sprintf("Removed %s section", removed.Type))

	c.JSON(http.StatusOK, gin.H{"section": removed, "revision_recorded": recorded})
}

// ------------------------------
// POST /pages/:id/sections/:sectionId/duplicate
// ------------------------------
func DuplicateSection(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	page, err := loadOwnedPage(userID, c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}

	var clone *domain.Section
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		clone, err = domain.DuplicateSection(tx, page, c.Param("sectionId"))
		return err
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	recorded := afterMutation(page, userID, revisions.ChangeSectionModified,
		fmt.Sprintf("Duplicated %s section", clone.Type))

	c.JSON(http.StatusCreated, gin.H{"section": clone, "revision_recorded": recorded})
}

// ------------------------------
// PUT /pages/:id/sections  (reorder)
// ------------------------------
func ReorderSections(c *gin.Context) {
	var req ReorderSectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.SectionIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "section_ids required"})
		return
	}

	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	page, err := loadOwnedPage(userID, c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}

	var ordered []domain.Section
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		ordered, err = domain.ReorderSections(tx, page, req.SectionIDs)
		return err
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	recorded := afterMutation(page, userID, revisions.ChangeSectionModified, "Reordered sections")

	c.JSON(http.StatusOK, gin.H{"sections": ordered, "revision_recorded": recorded})
}

// ------------------------------
// helpers
// ------------------------------

// afterMutation is the common tail of every section mutation: snapshot the
// committed tree as a revision, trim history, and notify connected viewers.
// The tree mutation is never rolled back for a revision failure; the handler
// reports revision_recorded=false instead.
func afterMutation(page *domain.Page, userID uint, changeType, description string) bool {
	recorded := true

	sections, err := domain.LoadSections(database.DB, page.ID)
	if err != nil {
		logger.L().Error("revision snapshot load failed", "page_id", page.ID, "error", err)
		return false
	}

	_, err = revisions.Create(database.DB, page.ID, userID,
		domain.SnapshotSections(sections), page.ThemeSettings, description, changeType)
	if err != nil {
		logger.L().Error("revision append failed",
			"page_id", page.ID, "change_type", changeType, "error", err)
		recorded = false
	}

	if _, err := revisions.Cleanup(database.DB, page.ID, config.RevisionKeep()); err != nil {
		logger.L().Warn("revision cleanup failed", "page_id", page.ID, "error", err)
	}

	realtime.Publish(userID, realtime.PagePayload{
		PageID:        page.ID,
		PageType:      page.PageType,
		Sections:      sections,
		ThemeSettings: page.ThemeSettings,
	})

	return recorded
}

func logClampedInsert(pageID string, insertAt int) {
	var count int64
	if err := database.DB.Model(&domain.Section{}).Where("page_id = ?", pageID).Count(&count).Error; err != nil {
		return
	}
	if insertAt > int(count) {
		logger.L().Warn("insert index past end, clamping to append",
			"page_id", pageID, "insert_at", insertAt, "section_count", count)
	}
}

func blockInputs(payloads []BlockPayload) []domain.BlockInput {
	out := make([]domain.BlockInput, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, domain.BlockInput{
			BlockID:  p.BlockID,
			Type:     p.Type,
			Content:  datatypes.JSON(p.Content),
			Settings: datatypes.JSON(p.Settings),
		})
	}
	return out
}
