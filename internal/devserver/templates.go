package devserver

import (
	"encoding/json"

	"github.com/atelierhq/client-platform/internal/model"
)

// brandTemplates are the built-in brand-guideline page presets. The
// section content is opaque design configuration consumed as-is.
var brandTemplates = []model.BrandTemplate{
	{
		ID:      "minimal-mono",
		Name:    "Minimal Mono",
		Palette: []string{"#0A0A0A", "#FAFAFA", "#8A8A8A"},
		Sections: json.RawMessage(`[
			{"type":"cover","layout":"centered"},
			{"type":"logo","variants":["primary","mono","reversed"]},
			{"type":"typography","scale":"1.250"},
			{"type":"color","swatches":"grid"}
		]`),
	},
	{
		ID:      "editorial-warm",
		Name:    "Editorial Warm",
		Palette: []string{"#2B1F18", "#F5EFE6", "#C46A3D", "#7A8C6E"},
		Sections: json.RawMessage(`[
			{"type":"cover","layout":"split"},
			{"type":"voice","columns":2},
			{"type":"typography","scale":"1.333"},
			{"type":"imagery","treatment":"duotone"}
		]`),
	},
	{
		ID:      "studio-bold",
		Name:    "Studio Bold",
		Palette: []string{"#101828", "#FDB022", "#F4F4F5"},
		Sections: json.RawMessage(`[
			{"type":"cover","layout":"full-bleed"},
			{"type":"logo","variants":["primary","icon"]},
			{"type":"color","swatches":"stack"},
			{"type":"applications","mockups":["card","signage","web"]}
		]`),
	},
}
