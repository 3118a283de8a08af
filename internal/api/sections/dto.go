package sections

import "encoding/json"

type BlockPayload struct {
	BlockID  string          `json:"block_id"`
	Type     string          `json:"type" binding:"required"`
	Content  json.RawMessage `json:"content"`
	Settings json.RawMessage `json:"settings"`
}

type AddSectionRequest struct {
	Type     string          `json:"type" binding:"required"`
	Visible  *bool           `json:"visible"`
	Settings json.RawMessage `json:"settings"`
	Blocks   []BlockPayload  `json:"blocks"`

	// Omitted appends; past-the-end clamps to append; negative is rejected.
	InsertAt *int `json:"insert_at"`
}

type UpdateSectionRequest struct {
	Type     *string                `json:"type"`
	Visible  *bool                  `json:"visible"`
	Settings map[string]interface{} `json:"settings"`
	Blocks   *[]BlockPayload        `json:"blocks"`
}

type ReorderSectionsRequest struct {
	SectionIDs []string `json:"section_ids" binding:"required"` // ordered list
}
