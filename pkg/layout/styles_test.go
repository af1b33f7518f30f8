package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateStylesSectionPaddingInvariant(t *testing.T) {
	t.Parallel()

	styles := map[string]any{
		"padding": map[string]any{
			"top":    "80",
			"right":  "120",
			"bottom": "80",
			"left":   "120",
		},
	}

	settings := TranslateStyles(styles, KindSection, nil)

	pad, ok := settings["_padding"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "80", pad["top"])
	assert.Equal(t, "80", pad["bottom"])
	assert.NotContains(t, pad, "left")
	assert.NotContains(t, pad, "right")
}

func TestTranslateStylesSectionScalarPadding(t *testing.T) {
	t.Parallel()

	settings := TranslateStyles(map[string]any{"padding": "40px"}, KindSection, nil)

	pad := settings["_padding"].(map[string]any)
	assert.Equal(t, "40", pad["top"])
	assert.Equal(t, "40", pad["bottom"])
	assert.NotContains(t, pad, "left")
	assert.NotContains(t, pad, "right")
}

func TestTranslateStylesBlockPaddingKeepsAllSides(t *testing.T) {
	t.Parallel()

	settings := TranslateStyles(map[string]any{"padding": "20px"}, KindBlock, nil)

	pad := settings["_padding"].(map[string]any)
	assert.Equal(t, map[string]any{"top": "20", "right": "20", "bottom": "20", "left": "20"}, pad)
}

func TestTranslateStylesGapFanOut(t *testing.T) {
	t.Parallel()

	settings := TranslateStyles(map[string]any{"gap": "24px"}, KindBlock, nil)

	assert.Equal(t, "24", settings["_rowGap"])
	assert.Equal(t, "24", settings["_columnGap"])
	assert.Equal(t, "24", settings["_gridGap"])
	assert.NotContains(t, settings, "gap")
}

func TestTranslateStylesSliderNativeGap(t *testing.T) {
	t.Parallel()

	settings := TranslateStyles(map[string]any{"gap": "24px"}, KindSlider, nil)

	assert.Equal(t, "24", settings["gap"])
	assert.NotContains(t, settings, "_rowGap")
	assert.NotContains(t, settings, "_columnGap")
	assert.NotContains(t, settings, "_gridGap")
}

func TestTranslateStylesMarginAuto(t *testing.T) {
	t.Parallel()

	settings := TranslateStyles(map[string]any{"margin": "auto"}, KindBlock, nil)

	assert.Equal(t, map[string]any{"left": "auto", "right": "auto"}, settings["_margin"])
}

func TestTranslateStylesTypographyMerged(t *testing.T) {
	t.Parallel()

	styles := map[string]any{
		"color":         "#222222",
		"fontSize":      "18px",
		"fontWeight":    "600",
		"textAlign":     "center",
		"letterSpacing": "0.5px",
	}

	settings := TranslateStyles(styles, KindHeading, nil)

	typo, ok := settings[settingTypography].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"hex": "#222222"}, typo["color"])
	assert.Equal(t, "18", typo["font-size"])
	assert.Equal(t, "600", typo["font-weight"])
	assert.Equal(t, "center", typo["text-align"])
	assert.Equal(t, "0.5", typo["letter-spacing"])

	assert.NotContains(t, settings, "color")
	assert.NotContains(t, settings, "fontSize")
}

func TestTranslateStylesResponsiveBreakpoints(t *testing.T) {
	t.Parallel()

	styles := map[string]any{
		"padding:mobile":  "16px",
		"fontSize:mobile": "14px",
		"gap:tablet":      "12px",
	}

	settings := TranslateStyles(styles, KindBlock, nil)

	pad := settings["_padding:mobile"].(map[string]any)
	assert.Equal(t, "16", pad["top"])

	typo := settings[settingTypography].(map[string]any)
	assert.Equal(t, "14", typo["font-size:mobile"])

	assert.Equal(t, "12", settings["_rowGap:tablet"])
	assert.Equal(t, "12", settings["_columnGap:tablet"])
	assert.Equal(t, "12", settings["_gridGap:tablet"])
}

func TestTranslateStylesHoverVariantsInjectTransition(t *testing.T) {
	t.Parallel()

	styles := map[string]any{
		"backgroundColor":      "#ffffff",
		"backgroundColorHover": "#eeeeee",
		"colorHover":           "#000000",
	}

	settings := TranslateStyles(styles, KindButton, nil)

	bg := settings["_background:hover"].(map[string]any)
	assert.Equal(t, map[string]any{"hex": "#eeeeee"}, bg["color"])

	typoHover := settings[settingTypography+":hover"].(map[string]any)
	assert.Equal(t, map[string]any{"hex": "#000000"}, typoHover["color"])

	assert.Equal(t, defaultTransition, settings[settingTransition])
}

func TestTranslateStylesExplicitTransitionWins(t *testing.T) {
	t.Parallel()

	styles := map[string]any{
		"colorHover": "#000000",
		"transition": "opacity 0.2s linear",
	}

	settings := TranslateStyles(styles, KindButton, nil)
	assert.Equal(t, "opacity 0.2s linear", settings[settingTransition])
}

func TestTranslateStylesNativeKeysPassThrough(t *testing.T) {
	t.Parallel()

	styles := map[string]any{
		"_direction": "row",
		"_cssId":     "hero",
	}

	settings := TranslateStyles(styles, KindBlock, nil)
	assert.Equal(t, "row", settings["_direction"])
	assert.Equal(t, "hero", settings["_cssId"])
}

func TestTranslateStylesInfersFlexDirection(t *testing.T) {
	t.Parallel()

	children := nodes("button", "button")
	settings := TranslateStyles(map[string]any{"display": "flex"}, KindBlock, children)

	assert.Equal(t, "flex", settings["_display"])
	assert.Equal(t, "row", settings[settingDirectionKey])
	assert.Equal(t, "row (button-group)", settings[settingDirectionInference])
	assert.Equal(t, "center", settings["_alignItems"])
}

func TestTranslateStylesExplicitDirectionSkipsInference(t *testing.T) {
	t.Parallel()

	styles := map[string]any{"display": "flex", "flexDirection": "column"}
	settings := TranslateStyles(styles, KindBlock, nodes("button", "button"))

	assert.Equal(t, "column", settings["_direction"])
	assert.NotContains(t, settings, settingDirectionInference)
	assert.NotContains(t, settings, "_alignItems")
}

func TestTranslateStylesExplicitRowDefaultsAlignItems(t *testing.T) {
	t.Parallel()

	styles := map[string]any{"display": "flex", "flexDirection": "row"}
	settings := TranslateStyles(styles, KindBlock, nil)

	assert.Equal(t, "center", settings["_alignItems"])
}

func TestTranslateStylesIdempotent(t *testing.T) {
	t.Parallel()

	styles := map[string]any{
		"display":        "flex",
		"gap":            "24px",
		"padding":        map[string]any{"top": "80", "left": "40"},
		"colorHover":     "#111111",
		"fontSize":       "16px",
		"margin":         "auto",
		"width":          "100%",
		"padding:mobile": "8px",
	}

	first := TranslateStyles(styles, KindBlock, nodes("icon", "text"))
	second := TranslateStyles(styles, KindBlock, nodes("icon", "text"))
	assert.Equal(t, first, second)
}
