package layout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/rs/zerolog/log"
)

// simpleKeyMap converts human-readable style keys into the storage format's
// namespaced compound keys. Typography keys, gap, padding, margin, background
// and borderRadius are handled separately.
var simpleKeyMap = map[string]string{
	"display":             "_display",
	"flexDirection":       "_direction",
	"alignItems":          "_alignItems",
	"justifyContent":      "_justifyContent",
	"flexWrap":            "_flexWrap",
	"alignSelf":           "_alignSelf",
	"flexGrow":            "_flexGrow",
	"flexShrink":          "_flexShrink",
	"order":               "_order",
	"width":               "_width",
	"minWidth":            "_widthMin",
	"maxWidth":            "_widthMax",
	"height":              "_height",
	"minHeight":           "_heightMin",
	"maxHeight":           "_heightMax",
	"position":            "_position",
	"top":                 "_top",
	"right":               "_right",
	"bottom":              "_bottom",
	"left":                "_left",
	"zIndex":              "_zIndex",
	"overflow":            "_overflow",
	"cursor":              "_cursor",
	"opacity":             "_opacity",
	"boxShadow":           "_boxShadow",
	"gridTemplateColumns": "_gridTemplateColumns",
	"gridTemplateRows":    "_gridTemplateRows",
	"gridAutoFlow":        "_gridAutoFlow",
	"objectFit":           "_objectFit",
	"transition":          "_cssTransition",
}

// typographyKeys are merged into one nested typography settings object instead
// of being emitted as sibling settings.
var typographyKeys = map[string]struct{}{
	"color":         {},
	"fontSize":      {},
	"fontWeight":    {},
	"lineHeight":    {},
	"letterSpacing": {},
	"textAlign":     {},
	"fontFamily":    {},
	"textTransform": {},
}

const (
	settingTypography   = "_typography"
	settingTransition   = "_cssTransition"
	defaultTransition   = "all 0.3s ease"
	settingDirectionKey = "_direction"

	// Hidden marker recording which direction was inferred and by which
	// rule, for troubleshooting generated layouts.
	settingDirectionInference = "_directionInference"
)

// TranslateStyles maps a flat set of human-readable style keys onto the
// storage format's verbose nested settings. Children are consulted only for
// flex-direction inference. Keys already in the native `_`-prefixed namespace
// pass through unchanged.
func TranslateStyles(styles map[string]any, kind ElementKind, children []StructureNode) map[string]any {
	settings := map[string]any{}

	// typography objects keyed by outer suffix ("" or ":hover")
	typography := map[string]map[string]any{}
	hoverSeen := false

	keys := make([]string, 0, len(styles))
	for k := range styles {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := styles[key]

		if strings.HasPrefix(key, "_") {
			settings[key] = value
			continue
		}

		base := key
		breakpoint := ""
		if idx := strings.Index(base, ":"); idx >= 0 {
			breakpoint = base[idx+1:]
			base = base[:idx]
		}
		hover := false
		if strings.HasSuffix(base, "Hover") && len(base) > len("Hover") {
			base = strings.TrimSuffix(base, "Hover")
			hover = true
			hoverSeen = true
		}

		suffix := ""
		switch {
		case hover:
			suffix = ":hover"
		case breakpoint != "":
			suffix = ":" + breakpoint
		}

		if _, ok := typographyKeys[base]; ok {
			outer := ""
			if hover {
				outer = ":hover"
			}
			obj, ok := typography[outer]
			if !ok {
				obj = map[string]any{}
				typography[outer] = obj
			}
			subKey := strcase.ToKebab(base)
			if !hover && breakpoint != "" {
				// Responsive typography nests the breakpoint suffix
				// inside the typography object.
				subKey = subKey + ":" + breakpoint
			}
			if base == "color" {
				obj[subKey] = map[string]any{"hex": sanitizeToString(value)}
			} else {
				obj[subKey] = SanitizeValue(value)
			}
			continue
		}

		switch base {
		case "gap":
			translateGap(settings, kind, suffix, value)
		case "padding":
			settings["_padding"+suffix] = sideSettings(value, kind == KindSection)
		case "margin":
			settings["_margin"+suffix] = marginSettings(value)
		case "background", "backgroundColor":
			settings["_background"+suffix] = map[string]any{
				"color": map[string]any{"hex": sanitizeToString(value)},
			}
		case "borderRadius":
			settings["_border"+suffix] = map[string]any{
				"radius": sideSettings(value, false),
			}
		default:
			mapped, ok := simpleKeyMap[base]
			if !ok {
				log.Debug().Str("key", key).Msg("styles: skipping unknown style key")
				continue
			}
			settings[mapped+suffix] = SanitizeValue(value)
		}
	}

	for outer, obj := range typography {
		settings[settingTypography+outer] = obj
	}

	applyDirectionDefaults(settings, styles, children)

	if hoverSeen {
		if _, ok := settings[settingTransition]; !ok {
			settings[settingTransition] = defaultTransition
		}
	}

	return settings
}

// translateGap fans a simple gap out to all three directional gap settings.
// Sliders have a native slide-gap concept, for which the simple value passes
// straight through.
func translateGap(settings map[string]any, kind ElementKind, suffix string, value any) {
	v := SanitizeValue(value)
	if kind == KindSlider {
		settings["gap"+suffix] = v
		return
	}
	settings["_rowGap"+suffix] = v
	settings["_columnGap"+suffix] = v
	settings["_gridGap"+suffix] = v
}

// sideSettings accepts either a scalar applied to all four sides or a per-side
// object. sectionMode drops left/right entirely: horizontal section padding
// breaks responsive gutters, so it is never honored for sections.
func sideSettings(value any, sectionMode bool) map[string]any {
	out := map[string]any{}
	switch tv := value.(type) {
	case map[string]any:
		for _, side := range []string{"top", "right", "bottom", "left"} {
			if sv, ok := tv[side]; ok {
				out[side] = SanitizeValue(sv)
			}
		}
	default:
		v := SanitizeValue(value)
		out["top"] = v
		out["right"] = v
		out["bottom"] = v
		out["left"] = v
	}
	if sectionMode {
		delete(out, "left")
		delete(out, "right")
	}
	return out
}

// marginSettings handles the "auto" horizontal-centering idiom before falling
// back to regular side handling.
func marginSettings(value any) map[string]any {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "auto" {
		return map[string]any{"left": "auto", "right": "auto"}
	}
	return sideSettings(value, false)
}

// applyDirectionDefaults fills in a flex direction when display:flex was
// requested without one, and centers row layouts vertically unless the caller
// already aligned them. Leaving the direction unset produces default stacking
// behavior in the renderer, which is usually wrong for generated layouts.
func applyDirectionDefaults(settings, styles map[string]any, children []StructureNode) {
	display, _ := styles["display"].(string)
	_, hasExplicitDir := styles["flexDirection"]
	_, hasAlign := styles["alignItems"]

	if display == "flex" && !hasExplicitDir {
		dir, reason := InferDirection(children, styles)
		settings[settingDirectionKey] = string(dir)
		settings[settingDirectionInference] = fmt.Sprintf("%s (%s)", dir, reason)
		if dir == DirectionRow && !hasAlign {
			settings["_alignItems"] = "center"
		}
		return
	}

	if explicit, _ := styles["flexDirection"].(string); explicit == string(DirectionRow) && !hasAlign {
		settings["_alignItems"] = "center"
	}
}
