package model

import (
	"encoding/json"
)

// BrandTemplate is a brand-guideline page preset. Section content is
// static design configuration consumed as-is by the renderer.
type BrandTemplate struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Palette  []string        `json:"palette,omitempty"`
	Sections json.RawMessage `json:"sections,omitempty"`
}

// ListTemplatesResponse is the response for listing brand templates.
type ListTemplatesResponse struct {
	APIResponse
	Templates []BrandTemplate `json:"templates"`
}
