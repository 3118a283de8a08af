package pages

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Checksum returns a deterministic content digest over a serialized
// (sections, themeSettings) pair. Both inputs are canonicalized first, so key
// order inside opaque blobs does not affect the digest while any field value,
// order index, or added/removed element does.
func Checksum(sectionsJSON, themeJSON []byte) (string, error) {
	canonSections, err := canonicalJSON(sectionsJSON)
	if err != nil {
		return "", fmt.Errorf("canonicalize sections: %w", err)
	}
	canonTheme, err := canonicalJSON(themeJSON)
	if err != nil {
		return "", fmt.Errorf("canonicalize theme: %w", err)
	}

	h := sha256.New()
	h.Write(canonSections)
	h.Write([]byte{0})
	h.Write(canonTheme)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// canonicalJSON round-trips raw JSON through interface{} so that object keys
// come back sorted at every depth (encoding/json sorts map keys on marshal).
func canonicalJSON(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return []byte("null"), nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
