package pages

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
	Section tree store
	------------------
	- CRUD over one page's ordered section/block tree.
	- Every operation leaves sort_index dense 0..N-1 for the page (and for
	  blocks within each section) or fails without touching the tree.
	- All functions expect to run inside a caller-owned transaction; on error
	  the caller rolls back, so no partial renumbering is ever visible.
*/

type BlockInput struct {
	BlockID  string         `json:"block_id"`
	Type     string         `json:"type"`
	Content  datatypes.JSON `json:"content"`
	Settings datatypes.JSON `json:"settings"`
}

type AddSectionInput struct {
	Type     string
	Visible  *bool
	Settings datatypes.JSON
	Blocks   []BlockInput

	// Nil appends. An index past the end clamps to append; negative fails.
	InsertAt *int
}

type SectionPatch struct {
	Type    *string
	Visible *bool

	// Merged into existing settings per top-level key.
	Settings map[string]interface{}

	// Non-nil replaces the section's blocks wholesale.
	Blocks *[]BlockInput
}

// AddSection inserts a new section with a fresh ID. Out-of-range insert
// indexes clamp to append; negative indexes fail with an invalid-index error.
func AddSection(tx *gorm.DB, page *Page, input AddSectionInput) (*Section, error) {
	var count int64
	if err := tx.Model(&Section{}).Where("page_id = ?", page.ID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count sections: %w", err)
	}

	pos := int(count)
	if input.InsertAt != nil {
		if *input.InsertAt < 0 {
			return nil, InvalidIndex("insert index %d is negative", *input.InsertAt)
		}
		if *input.InsertAt < pos {
			pos = *input.InsertAt
		}
	}

	if pos < int(count) {
		if err := tx.Model(&Section{}).
			Where("page_id = ? AND sort_index >= ?", page.ID, pos).
			UpdateColumn("sort_index", gorm.Expr("sort_index + 1")).Error; err != nil {
			return nil, fmt.Errorf("shift sections: %w", err)
		}
	}

	visible := true
	if input.Visible != nil {
		visible = *input.Visible
	}

	sec := Section{
		ID:        uuid.NewString(),
		PageID:    page.ID,
		Type:      input.Type,
		SortIndex: pos,
		Visible:   visible,
		Settings:  orEmptyJSON(input.Settings),
		Blocks:    blocksFromInputs(input.Blocks),
	}
	if err := tx.Create(&sec).Error; err != nil {
		return nil, fmt.Errorf("create section: %w", err)
	}
	return &sec, nil
}

// UpdateSection merges settings shallowly, replaces blocks wholesale when
// provided, and toggles type/visibility.
func UpdateSection(tx *gorm.DB, page *Page, sectionID string, patch SectionPatch) (*Section, error) {
	sec, err := findSection(tx, page.ID, sectionID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Type != nil {
		updates["type"] = *patch.Type
	}
	if patch.Visible != nil {
		updates["visible"] = *patch.Visible
	}

	if len(patch.Settings) > 0 {
		merged := map[string]interface{}{}
		if len(sec.Settings) > 0 {
			if err := json.Unmarshal(sec.Settings, &merged); err != nil {
				return nil, fmt.Errorf("decode section settings: %w", err)
			}
		}
		for k, v := range patch.Settings {
			merged[k] = v
		}
		raw, err := json.Marshal(merged)
		if err != nil {
			return nil, fmt.Errorf("encode section settings: %w", err)
		}
		updates["settings"] = datatypes.JSON(raw)
	}

	if len(updates) > 0 {
		if err := tx.Model(&Section{}).Where("id = ?", sec.ID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update section: %w", err)
		}
	}

	if patch.Blocks != nil {
		if err := tx.Where("section_id = ?", sec.ID).Delete(&Block{}).Error; err != nil {
			return nil, fmt.Errorf("clear blocks: %w", err)
		}
		for _, b := range blocksFromInputs(*patch.Blocks) {
			b.SectionID = sec.ID
			if err := tx.Create(&b).Error; err != nil {
				return nil, fmt.Errorf("create block: %w", err)
			}
		}
	}

	return findSection(tx, page.ID, sectionID)
}

// RemoveSection deletes a section (and its blocks) and closes the order gap.
func RemoveSection(tx *gorm.DB, page *Page, sectionID string) (*Section, error) {
	sec, err := findSection(tx, page.ID, sectionID)
	if err != nil {
		return nil, err
	}

	if err := tx.Where("section_id = ?", sec.ID).Delete(&Block{}).Error; err != nil {
		return nil, fmt.Errorf("delete blocks: %w", err)
	}
	if err := tx.Delete(&Section{}, "id = ?", sec.ID).Error; err != nil {
		return nil, fmt.Errorf("delete section: %w", err)
	}
	if err := tx.Model(&Section{}).
		Where("page_id = ? AND sort_index > ?", page.ID, sec.SortIndex).
		UpdateColumn("sort_index", gorm.Expr("sort_index - 1")).Error; err != nil {
		return nil, fmt.Errorf("renumber sections: %w", err)
	}
	return sec, nil
}

// DuplicateSection deep-clones a section and all its blocks with fresh IDs
// and inserts the clone immediately after the original.
func DuplicateSection(tx *gorm.DB, page *Page, sectionID string) (*Section, error) {
	sec, err := findSection(tx, page.ID, sectionID)
	if err != nil {
		return nil, err
	}

	clonePos := sec.SortIndex + 1
	if err := tx.Model(&Section{}).
		Where("page_id = ? AND sort_index >= ?", page.ID, clonePos).
		UpdateColumn("sort_index", gorm.Expr("sort_index + 1")).Error; err != nil {
		return nil, fmt.Errorf("shift sections: %w", err)
	}

	clone := Section{
		ID:        uuid.NewString(),
		PageID:    page.ID,
		Type:      sec.Type,
		SortIndex: clonePos,
		Visible:   sec.Visible,
		Settings:  orEmptyJSON(append(datatypes.JSON{}, sec.Settings...)),
	}
	for i, b := range sec.Blocks {
		clone.Blocks = append(clone.Blocks, Block{
			ID:        uuid.NewString(),
			Type:      b.Type,
			SortIndex: i,
			Content:   orEmptyJSON(append(datatypes.JSON{}, b.Content...)),
			Settings:  orEmptyJSON(append(datatypes.JSON{}, b.Settings...)),
		})
	}
	if err := tx.Create(&clone).Error; err != nil {
		return nil, fmt.Errorf("create section clone: %w", err)
	}
	return &clone, nil
}

// ReorderSections applies a new order. The supplied ID list must be exactly a
// permutation of the page's current section IDs.
func ReorderSections(tx *gorm.DB, page *Page, orderedIDs []string) ([]Section, error) {
	var current []Section
	if err := tx.Where("page_id = ?", page.ID).Order("sort_index ASC").Find(&current).Error; err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}

	have := make(map[string]bool, len(current))
	for _, s := range current {
		have[s.ID] = true
	}
	supplied := make(map[string]bool, len(orderedIDs))
	var extra []string
	for _, id := range orderedIDs {
		if supplied[id] {
			extra = append(extra, id) // duplicate
			continue
		}
		supplied[id] = true
		if !have[id] {
			extra = append(extra, id)
		}
	}
	var missing []string
	for _, s := range current {
		if !supplied[s.ID] {
			missing = append(missing, s.ID)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return nil, InvalidPermutation(missing, extra)
	}

	for i, id := range orderedIDs {
		if err := tx.Model(&Section{}).
			Where("id = ? AND page_id = ?", id, page.ID).
			UpdateColumn("sort_index", i).Error; err != nil {
			return nil, fmt.Errorf("reorder sections: %w", err)
		}
	}

	return LoadSections(tx, page.ID)
}

// LoadSections returns the page's tree in order, blocks included.
func LoadSections(tx *gorm.DB, pageID string) ([]Section, error) {
	var sections []Section
	err := tx.Where("page_id = ?", pageID).
		Order("sort_index ASC").
		Preload("Blocks", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_index ASC")
		}).
		Find(&sections).Error
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	return sections, nil
}

func findSection(tx *gorm.DB, pageID, sectionID string) (*Section, error) {
	var sec Section
	err := tx.Preload("Blocks", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_index ASC")
	}).First(&sec, "id = ? AND page_id = ?", sectionID, pageID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, NotFound("section %s not found on page", sectionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load section: %w", err)
	}
	return &sec, nil
}

func blocksFromInputs(inputs []BlockInput) []Block {
	out := make([]Block, 0, len(inputs))
	for i, in := range inputs {
		id := in.BlockID
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, Block{
			ID:        id,
			Type:      in.Type,
			SortIndex: i,
			Content:   orEmptyJSON(in.Content),
			Settings:  orEmptyJSON(in.Settings),
		})
	}
	return out
}

func orEmptyJSON(raw datatypes.JSON) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON(`{}`)
	}
	return raw
}
