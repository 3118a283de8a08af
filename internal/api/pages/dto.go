package pages

import (
	"encoding/json"

	domain "storefront-app/internal/domain/pages"

	"gorm.io/datatypes"
)

// ---------- requests

type BlockPayload struct {
	BlockID  string          `json:"block_id"`
	Type     string          `json:"type" binding:"required"`
	Content  json.RawMessage `json:"content"`
	Settings json.RawMessage `json:"settings"`
}

type SectionPayload struct {
	SectionID string          `json:"section_id"`
	Type      string          `json:"type" binding:"required"`
	Visible   *bool           `json:"visible"`
	Settings  json.RawMessage `json:"settings"`
	Blocks    []BlockPayload  `json:"blocks"`
}

type CreatePageRequest struct {
	Title         string                 `json:"title" binding:"required"`
	PageType      string                 `json:"page_type"`
	ThemeSettings map[string]interface{} `json:"theme_settings"`
	Sections      []SectionPayload       `json:"sections"`
}

// UpdatePageRequest is the editor's bulk save: sections replace the whole
// tree when present, theme settings replace the theme document when present.
type UpdatePageRequest struct {
	Title         *string                `json:"title"`
	PageType      *string                `json:"page_type"`
	ThemeSettings map[string]interface{} `json:"theme_settings"`
	Sections      *[]SectionPayload      `json:"sections"`
}

type PublishPageRequest struct {
	Publish *bool `json:"publish" binding:"required"`

	// When true the page becomes the owner's single active page.
	Activate bool `json:"activate"`
}

// ---------- conversions

func (p SectionPayload) toRow(pageID string, sortIndex int) domain.Section {
	visible := true
	if p.Visible != nil {
		visible = *p.Visible
	}
	sec := domain.Section{
		ID:        p.SectionID,
		PageID:    pageID,
		Type:      p.Type,
		SortIndex: sortIndex,
		Visible:   visible,
		Settings:  jsonOrEmpty(p.Settings),
	}
	for i, b := range p.Blocks {
		sec.Blocks = append(sec.Blocks, domain.Block{
			ID:        b.BlockID,
			Type:      b.Type,
			SortIndex: i,
			Content:   jsonOrEmpty(b.Content),
			Settings:  jsonOrEmpty(b.Settings),
		})
	}
	return sec
}

func jsonOrEmpty(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON(`{}`)
	}
	return datatypes.JSON(raw)
}

func themeMap(m map[string]interface{}) datatypes.JSONMap {
	if m == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(m)
}
