package pages

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// SectionSnapshot is the serialized form of a section inside a revision.
// It carries values only, never row references, so mutating the live tree
// after a snapshot is taken cannot change it.
type SectionSnapshot struct {
	SectionID string          `json:"section_id"`
	Type      string          `json:"type"`
	Order     int             `json:"order"`
	Visible   bool            `json:"visible"`
	Settings  json.RawMessage `json:"settings"`
	Blocks    []BlockSnapshot `json:"blocks"`
}

type BlockSnapshot struct {
	BlockID  string          `json:"block_id"`
	Type     string          `json:"type"`
	Order    int             `json:"order"`
	Content  json.RawMessage `json:"content"`
	Settings json.RawMessage `json:"settings"`
}

// SnapshotSections deep-copies a live section tree into snapshot values.
// Sections and blocks are expected in sort_index order.
func SnapshotSections(sections []Section) []SectionSnapshot {
	out := make([]SectionSnapshot, 0, len(sections))
	for _, s := range sections {
		blocks := make([]BlockSnapshot, 0, len(s.Blocks))
		for _, b := range s.Blocks {
			blocks = append(blocks, BlockSnapshot{
				BlockID:  b.ID,
				Type:     b.Type,
				Order:    b.SortIndex,
				Content:  copyRaw(b.Content),
				Settings: copyRaw(b.Settings),
			})
		}
		out = append(out, SectionSnapshot{
			SectionID: s.ID,
			Type:      s.Type,
			Order:     s.SortIndex,
			Visible:   s.Visible,
			Settings:  copyRaw(s.Settings),
			Blocks:    blocks,
		})
	}
	return out
}

// RowsFromSnapshot rebuilds live section rows from a snapshot. Section and
// block IDs are preserved: a restore brings back the same section identities
// the snapshot captured.
func RowsFromSnapshot(pageID string, snaps []SectionSnapshot) []Section {
	out := make([]Section, 0, len(snaps))
	for i, s := range snaps {
		blocks := make([]Block, 0, len(s.Blocks))
		for j, b := range s.Blocks {
			blocks = append(blocks, Block{
				ID:        b.BlockID,
				SectionID: s.SectionID,
				Type:      b.Type,
				SortIndex: j,
				Content:   datatypes.JSON(copyRaw(b.Content)),
				Settings:  datatypes.JSON(copyRaw(b.Settings)),
			})
		}
		out = append(out, Section{
			ID:        s.SectionID,
			PageID:    pageID,
			Type:      s.Type,
			SortIndex: i,
			Visible:   s.Visible,
			Settings:  datatypes.JSON(copyRaw(s.Settings)),
			Blocks:    blocks,
		})
	}
	return out
}

// EncodeSnapshot serializes a snapshot pair for storage. The returned byte
// slices are what revisions persist, checksum, and size.
func EncodeSnapshot(sections []SectionSnapshot, theme datatypes.JSONMap) (sectionsJSON, themeJSON []byte, err error) {
	if sections == nil {
		sections = []SectionSnapshot{}
	}
	sectionsJSON, err = json.Marshal(sections)
	if err != nil {
		return nil, nil, err
	}
	if theme == nil {
		theme = datatypes.JSONMap{}
	}
	themeJSON, err = json.Marshal(theme)
	if err != nil {
		return nil, nil, err
	}
	return sectionsJSON, themeJSON, nil
}

// DecodeSectionsSnapshot parses a stored sections snapshot.
func DecodeSectionsSnapshot(raw []byte) ([]SectionSnapshot, error) {
	if len(raw) == 0 {
		return []SectionSnapshot{}, nil
	}
	var snaps []SectionSnapshot
	if err := json.Unmarshal(raw, &snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

// DecodeThemeSnapshot parses a stored theme snapshot.
func DecodeThemeSnapshot(raw []byte) (datatypes.JSONMap, error) {
	if len(raw) == 0 {
		return datatypes.JSONMap{}, nil
	}
	var m datatypes.JSONMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func copyRaw(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
