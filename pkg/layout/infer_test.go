package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func nodes(types ...string) []StructureNode {
	out := make([]StructureNode, 0, len(types))
	for _, t := range types {
		out = append(out, StructureNode{Type: t})
	}
	return out
}

func TestInferDirection(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		children   []StructureNode
		styles     map[string]any
		want       Direction
		wantReason string
	}{
		{"no children", nil, nil, DirectionColumn, "no-children"},
		{"button group", nodes("button", "button"), nil, DirectionRow, "button-group"},
		{"three buttons", nodes("button", "button", "button"), nil, DirectionRow, "button-group"},
		{"icon label", nodes("icon", "text"), nil, DirectionRow, "icon-label"},
		{"icon heading", nodes("icon", "heading"), nil, DirectionRow, "icon-label"},
		{"icon label too many siblings", nodes("icon", "text", "text", "image"), nil, DirectionColumn, "default-stack"},
		{"social icons present", nodes("heading", "social-icons"), nil, DirectionRow, "social-row"},
		{"media plus cta", nodes("image", "button"), nil, DirectionRow, "media-cta"},
		{"media plus cta too large", nodes("image", "button", "text", "text"), nil, DirectionColumn, "default-stack"},
		{"center hint", nodes("text", "text"), map[string]any{"alignItems": "center"}, DirectionRow, "center-hint"},
		{"center hint too many", nodes("text", "text", "text", "text"), map[string]any{"alignItems": "center"}, DirectionColumn, "default-stack"},
		{"wrap hint", nodes("text", "text", "text", "text"), map[string]any{"flexWrap": "wrap"}, DirectionRow, "wrap-hint"},
		{"plain stack", nodes("heading", "text", "button"), nil, DirectionColumn, "default-stack"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dir, reason := InferDirection(tc.children, tc.styles)
			assert.Equal(t, tc.want, dir)
			assert.Equal(t, tc.wantReason, reason)
		})
	}
}

func TestInferDirectionIsDeterministic(t *testing.T) {
	t.Parallel()

	children := nodes("icon", "heading")
	styles := map[string]any{"flexWrap": "wrap"}
	dir1, reason1 := InferDirection(children, styles)
	for i := 0; i < 50; i++ {
		dir, reason := InferDirection(children, styles)
		assert.Equal(t, dir1, dir)
		assert.Equal(t, reason1, reason)
	}
}
