package revisions

import (
	"net/http"
	"strconv"

	"storefront-app/config"
	"storefront-app/database"
	domain "storefront-app/internal/domain/pages"
	rev "storefront-app/internal/domain/revisions"
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
	case domain.IsKind(err, domain.KindForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case domain.IsKind(err, domain.KindNotRestorable):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		logger.L().Error("revision request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// ownedPage verifies the page exists and belongs to the caller before any
// revision operation runs; the revision store itself never checks ownership.
func ownedPage(c *gin.Context, userID uint) (*domain.Page, bool) {
	var page domain.Page
	err := database.DB.Where("user_id = ?", userID).First(&page, "id = ?", c.Param("id")).Error
	if err != nil {
		respondEngineError(c, err)
		return nil, false
	}
	return &page, true
}

// ------------------------------
// GET /pages/:id/revisions
// ------------------------------
func ListRevisions(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	page, ok := ownedPage(c, userID)
	if !ok {
		return
	}

	pageNum, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	changeType := c.Query("change_type")

	list, total, err := rev.List(database.DB, page.ID, pageNum, limit, changeType)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"revisions": list,
		"total":     total,
		"page":      pageNum,
	})
}

// ------------------------------
// GET /pages/:id/revision/:revisionId
// ------------------------------
func GetRevision(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	page, ok := ownedPage(c, userID)
	if !ok {
		return
	}

	revision, integrityOK, err := rev.Get(database.DB, page.ID, c.Param("revisionId"))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	if !integrityOK {
		logger.L().Warn("revision checksum mismatch",
			"page_id", page.ID, "revision_id", revision.ID, "version", revision.VersionNumber)
	}

	c.JSON(http.StatusOK, gin.H{"revision": revision, "integrity_ok": integrityOK})
}

// ------------------------------
// POST /pages/:id/revisions  (manual save)
// ------------------------------
func CreateRevision(c *gin.Context) {
	var req CreateRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	page, ok := ownedPage(c, userID)
	if !ok {
		return
	}

	sections, err := domain.LoadSections(database.DB, page.ID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	description := req.Description
	if description == "" {
		description = "Manual save"
	}

	revision, err := rev.Create(database.DB, page.ID, userID,
		domain.SnapshotSections(sections), page.ThemeSettings, description, rev.ChangeManualSave)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"revision": revision})
}

// ------------------------------
// DELETE /pages/:id/revision/:revisionId
// ------------------------------
func DeleteRevision(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	page, ok := ownedPage(c, userID)
	if !ok {
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return rev.Delete(tx, page.ID, c.Param("revisionId"))
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ------------------------------
// POST /pages/:id/revision/:revisionId/restore
// ------------------------------
func RestoreRevision(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	page, ok := ownedPage(c, userID)
	if !ok {
		return
	}

	result, err := rev.Restore(database.DB, logger.L(), page.ID, userID, c.Param("revisionId"))
	if err != nil {
		respondEngineError(c, err)
		return
	}

	sections, err := domain.LoadSections(database.DB, page.ID)
	if err == nil {
		realtime.Publish(userID, realtime.PagePayload{
			PageID:        page.ID,
			PageType:      page.PageType,
			Sections:      sections,
			ThemeSettings: page.ThemeSettings,
		})
	}

	c.JSON(http.StatusOK, result)
}

// ------------------------------
// GET /pages/:id/revisions/compare?a=&b=
// ------------------------------
func CompareRevisions(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	page, ok := ownedPage(c, userID)
	if !ok {
		return
	}

	idA := c.Query("a")
	idB := c.Query("b")
	if idA == "" || idB == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query params a and b required"})
		return
	}

	comparison, err := rev.Compare(database.DB, page.ID, idA, idB)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, comparison)
}

// ------------------------------
// POST /pages/:id/revisions/cleanup
// ------------------------------
func CleanupRevisions(c *gin.Context) {
	var req CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	page, ok := ownedPage(c, userID)
	if !ok {
		return
	}

	keep := config.RevisionKeep()
	if req.KeepCount != nil {
		keep = *req.KeepCount
	}

	deleted, err := rev.Cleanup(database.DB, page.ID, keep)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// ------------------------------
// PUT /admin/pages/:id/revision/:revisionId/restorable
// ------------------------------
func MarkRestorable(c *gin.Context) {
	var req MarkRestorableRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RestoreAvailable == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "restore_available required"})
		return
	}

	if _, ok := mustUserID(c); !ok {
		return
	}

	// Admin route: not scoped to the caller's own pages.
	var page domain.Page
	if err := database.DB.First(&page, "id = ?", c.Param("id")).Error; err != nil {
		respondEngineError(c, err)
		return
	}

	if err := rev.MarkRestoreAvailable(database.DB, page.ID, c.Param("revisionId"), *req.RestoreAvailable); err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
