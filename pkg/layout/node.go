package layout

// ElementKind is the closed set of element types the structure builder knows
// how to lower. Unknown type strings fall back to KindBlock, which renders as
// a generic container.
type ElementKind string

const (
	KindSection     ElementKind = "section"
	KindContainer   ElementKind = "container"
	KindBlock       ElementKind = "block"
	KindDiv         ElementKind = "div"
	KindHeading     ElementKind = "heading"
	KindText        ElementKind = "text"
	KindTextBasic   ElementKind = "text-basic"
	KindTextLink    ElementKind = "text-link"
	KindButton      ElementKind = "button"
	KindImage       ElementKind = "image"
	KindIcon        ElementKind = "icon"
	KindVideo       ElementKind = "video"
	KindDivider     ElementKind = "divider"
	KindList        ElementKind = "list"
	KindCounter     ElementKind = "counter"
	KindCountdown   ElementKind = "countdown"
	KindShortcode   ElementKind = "shortcode"
	KindSocialIcons ElementKind = "social-icons"
	KindForm        ElementKind = "form"
	KindSlider      ElementKind = "slider-nested"
	KindAccordion   ElementKind = "accordion-nested"
	KindTabs        ElementKind = "tabs-nested"
	KindCustomHTML  ElementKind = "custom-html-css-script"
)

var knownKinds = map[ElementKind]struct{}{
	KindSection:     {},
	KindContainer:   {},
	KindBlock:       {},
	KindDiv:         {},
	KindHeading:     {},
	KindText:        {},
	KindTextBasic:   {},
	KindTextLink:    {},
	KindButton:      {},
	KindImage:       {},
	KindIcon:        {},
	KindVideo:       {},
	KindDivider:     {},
	KindList:        {},
	KindCounter:     {},
	KindCountdown:   {},
	KindShortcode:   {},
	KindSocialIcons: {},
	KindForm:        {},
	KindSlider:      {},
	KindAccordion:   {},
	KindTabs:        {},
	KindCustomHTML:  {},
}

// KindOf maps a free-form type string onto the closed element kind set,
// falling back to KindBlock for anything it does not recognize.
func KindOf(s string) ElementKind {
	k := ElementKind(s)
	if _, ok := knownKinds[k]; ok {
		return k
	}
	return KindBlock
}

// IsKnownKind reports whether s names one of the supported element kinds.
func IsKnownKind(s string) bool {
	_, ok := knownKinds[ElementKind(s)]
	return ok
}

// IconDescriptor is the structured form an icon node may carry instead of a
// bare class string.
type IconDescriptor struct {
	Library string `json:"library,omitempty"`
	Icon    string `json:"icon,omitempty"`
}

// StructureNode is the simplified, hierarchical description of one visual
// element as authored by the agent. It is transient input; Build lowers a tree
// of these into the flat, id-linked form the storage format requires.
type StructureNode struct {
	Type     string          `json:"type"`
	Content  string          `json:"content,omitempty"`
	Link     string          `json:"link,omitempty"`
	Tag      string          `json:"tag,omitempty"`
	Label    string          `json:"label,omitempty"`
	Styles   map[string]any  `json:"styles,omitempty"`
	Children []StructureNode `json:"children,omitempty"`

	// Kind-specific payloads, copied into settings verbatim by the builder.
	Icon        *IconDescriptor `json:"icon,omitempty"`
	CountTo     any             `json:"countTo,omitempty"`
	Date        string          `json:"date,omitempty"`
	Fields      any             `json:"fields,omitempty"`
	Items       any             `json:"items,omitempty"`
	Icons       any             `json:"icons,omitempty"`
	EmailAction any             `json:"emailAction,omitempty"`
}

// Kind returns the node's element kind after fallback normalization.
func (n *StructureNode) Kind() ElementKind {
	return KindOf(n.Type)
}

// RenderedElement is the flattened, parent-referencing form of a structure
// node. A build result is a list of these, valid as a forest when reassembled
// by id.
type RenderedElement struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Parent   string         `json:"parent"`
	Children []string       `json:"children"`
	Settings map[string]any `json:"settings"`
}

// RootParentID is the sentinel parent reference for top-level elements.
const RootParentID = "0"
