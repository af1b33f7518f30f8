package layout

// Direction is a flex layout direction.
type Direction string

const (
	DirectionRow    Direction = "row"
	DirectionColumn Direction = "column"
)

// InferDirection guesses whether an implicit flex container should lay out as
// a row or a column, based on the kinds of its children and a few sibling
// style hints. It is a pure function: identical inputs always yield the same
// answer. The second return value names the rule that fired, for the hidden
// debug marker the translator records.
//
// This is a heuristic, not a guarantee. Callers that need a specific layout
// must set flexDirection explicitly; perfect inference for arbitrary content
// is a non-goal.
func InferDirection(children []StructureNode, styles map[string]any) (Direction, string) {
	if len(children) == 0 {
		return DirectionColumn, "no-children"
	}

	var buttons, icons, texts, images, socials int
	for _, c := range children {
		switch c.Kind() {
		case KindButton:
			buttons++
		case KindIcon:
			icons++
		case KindHeading, KindText, KindTextBasic:
			texts++
		case KindImage:
			images++
		case KindSocialIcons:
			socials++
		}
	}

	// Two or more buttons is the canonical call-to-action group.
	if buttons >= 2 {
		return DirectionRow, "button-group"
	}
	// Icon plus label, small group.
	if icons == 1 && texts == 1 && len(children) <= 3 {
		return DirectionRow, "icon-label"
	}
	if socials > 0 {
		return DirectionRow, "social-row"
	}
	// Media next to its call to action.
	if images == 1 && buttons == 1 && len(children) <= 3 {
		return DirectionRow, "media-cta"
	}
	if v, ok := styles["alignItems"]; ok && v == "center" && len(children) <= 3 {
		return DirectionRow, "center-hint"
	}
	if _, ok := styles["flexWrap"]; ok {
		return DirectionRow, "wrap-hint"
	}

	// Stacks, cards, forms, and anything structurally complex default to
	// vertical.
	return DirectionColumn, "default-stack"
}
