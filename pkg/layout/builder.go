package layout

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultMaxDepth bounds recursion on agent-supplied trees. Pathological
// nesting beyond this is rejected instead of consuming stack.
const DefaultMaxDepth = 32

// Builder lowers a StructureNode tree into the flat, parent-referencing
// element list the storage format requires.
type Builder struct {
	maxDepth int
	newID    func() string
}

type BuilderOption func(*Builder)

func WithMaxDepth(depth int) BuilderOption {
	return func(b *Builder) { b.maxDepth = depth }
}

// WithIDGenerator overrides id allocation, mainly for deterministic tests.
func WithIDGenerator(fn func() string) BuilderOption {
	return func(b *Builder) { b.newID = fn }
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		maxDepth: DefaultMaxDepth,
		newID:    newElementID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func newElementID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// StructureWarning records a malformed construct the builder handled
// leniently instead of failing.
type StructureWarning struct {
	ElementID string `json:"element_id"`
	Message   string `json:"message"`
}

// BuildResult holds the lowered form of one structure tree: the root element's
// id plus every element of the tree in depth-first order.
type BuildResult struct {
	RootID   string             `json:"root_id"`
	Elements []RenderedElement  `json:"elements"`
	Warnings []StructureWarning `json:"warnings,omitempty"`
}

// Build lowers node and all of its descendants. parentID is the id the root
// element should reference as its owner; pass RootParentID (or "") for
// top-level content.
//
// Build is a best-effort lowering: it does not validate semantic style
// correctness, and unknown element types become generic containers rather
// than errors. The only failure is exceeding the maximum nesting depth.
func (b *Builder) Build(node StructureNode, parentID string) (*BuildResult, error) {
	if parentID == "" {
		parentID = RootParentID
	}
	result := &BuildResult{}
	rootID, elements, err := b.build(node, parentID, 0, result)
	if err != nil {
		return nil, err
	}
	result.RootID = rootID
	result.Elements = elements
	return result, nil
}

func (b *Builder) build(node StructureNode, parentID string, depth int, result *BuildResult) (string, []RenderedElement, error) {
	if depth >= b.maxDepth {
		return "", nil, errors.Errorf("structure exceeds maximum nesting depth of %d", b.maxDepth)
	}

	id := b.newID()
	kind := node.Kind()
	if !IsKnownKind(node.Type) {
		log.Debug().Str("type", node.Type).Str("id", id).Msg("builder: unknown element type, lowering as generic block")
	}

	settings := TranslateStyles(node.Styles, kind, node.Children)
	lowerContent(&node, kind, settings)

	el := RenderedElement{
		ID:       id,
		Name:     string(kind),
		Parent:   parentID,
		Children: []string{},
		Settings: settings,
	}

	childSubtrees := make([][]RenderedElement, 0, len(node.Children))
	for _, child := range node.Children {
		childID, subtree, err := b.build(child, id, depth+1, result)
		if err != nil {
			return "", nil, err
		}
		el.Children = append(el.Children, childID)
		childSubtrees = append(childSubtrees, subtree)
	}

	switch kind {
	case KindSlider:
		postProcessSlider(childSubtrees)
	case KindAccordion:
		postProcessAccordion(childSubtrees)
	case KindTabs:
		if warning := postProcessTabs(id, childSubtrees); warning != nil {
			result.Warnings = append(result.Warnings, *warning)
		}
	}

	elements := make([]RenderedElement, 0, 1+len(childSubtrees))
	elements = append(elements, el)
	for _, subtree := range childSubtrees {
		elements = append(elements, subtree...)
	}
	return id, elements, nil
}

// lowerContent applies the per-kind content handling: text-bearing kinds place
// content in a text slot, media kinds wrap references, and the data-driven
// kinds copy their named payload fields into settings untranslated.
func lowerContent(node *StructureNode, kind ElementKind, settings map[string]any) {
	if node.Label != "" {
		settings["label"] = node.Label
	}

	switch kind {
	case KindHeading:
		settings["text"] = node.Content
		tag := node.Tag
		if tag == "" {
			tag = "h2"
		}
		settings["tag"] = tag
	case KindText, KindTextBasic:
		settings["text"] = node.Content
	case KindTextLink:
		settings["text"] = node.Content
		applyLink(node, settings)
	case KindButton:
		settings["text"] = node.Content
		applyLink(node, settings)
	case KindImage:
		settings["image"] = map[string]any{
			"url":      node.Content,
			"external": true,
		}
	case KindIcon:
		lowerIcon(node, settings)
	case KindVideo:
		settings["videoUrl"] = node.Content
	case KindCounter:
		settings["countTo"] = node.CountTo
	case KindCountdown:
		settings["date"] = node.Date
	case KindShortcode:
		settings["shortcode"] = node.Content
	case KindList:
		settings["items"] = node.Items
	case KindSocialIcons:
		settings["icons"] = node.Icons
	case KindForm:
		settings["fields"] = node.Fields
		if node.EmailAction != nil {
			settings["actions"] = []any{"email"}
			settings["emailAction"] = node.EmailAction
		}
	case KindCustomHTML:
		// Raw content, verbatim and unescaped. Reaching this path requires
		// the permission-checked content-generation ability.
		settings["code"] = node.Content
	}
}

func applyLink(node *StructureNode, settings map[string]any) {
	if node.Link == "" {
		return
	}
	settings["link"] = map[string]any{
		"type": "external",
		"url":  node.Link,
	}
}

// lowerIcon accepts either a structured descriptor or a bare class string,
// normalizes the icon library from known class-name prefixes, and writes both
// the legacy class slot and the canonical icon object.
func lowerIcon(node *StructureNode, settings map[string]any) {
	library, class := "", ""
	if node.Icon != nil {
		library, class = node.Icon.Library, node.Icon.Icon
	}
	if class == "" {
		class = node.Content
	}
	if library == "" {
		library = iconLibraryForClass(class)
	}
	settings["iconClass"] = class
	settings["icon"] = map[string]any{
		"library": library,
		"icon":    class,
	}
}

func iconLibraryForClass(class string) string {
	switch {
	case strings.Contains(class, "fa-brands") || strings.HasPrefix(class, "fab "):
		return "fontawesomeBrands"
	case strings.Contains(class, "fa-regular") || strings.HasPrefix(class, "far "):
		return "fontawesomeRegular"
	case strings.Contains(class, "fa-solid") || strings.HasPrefix(class, "fas ") || strings.HasPrefix(class, "fa-"):
		return "fontawesomeSolid"
	case strings.HasPrefix(class, "ti-"):
		return "themify"
	case strings.HasPrefix(class, "ion-"):
		return "ionicons"
	default:
		return "fontawesomeSolid"
	}
}

// postProcessSlider labels each slide sequentially unless the author already
// named it.
func postProcessSlider(slides [][]RenderedElement) {
	for i := range slides {
		root := subtreeRoot(slides[i])
		if root == nil {
			continue
		}
		if _, ok := root.Settings["label"]; !ok {
			root.Settings["label"] = fmt.Sprintf("Slide %d", i+1)
		}
	}
}

// postProcessAccordion tags the first two children of every item as title and
// content via marker classes. Titles get a forced horizontal layout so the
// expand indicator sits next to the label.
func postProcessAccordion(items [][]RenderedElement) {
	for i := range items {
		item := items[i]
		root := subtreeRoot(item)
		if root == nil {
			continue
		}
		if len(root.Children) >= 1 {
			if title := findElement(item, root.Children[0]); title != nil {
				title.Settings["_cssClasses"] = "accordion-title-wrapper"
				title.Settings["_direction"] = string(DirectionRow)
			}
		}
		if len(root.Children) >= 2 {
			if content := findElement(item, root.Children[1]); content != nil {
				content.Settings["_cssClasses"] = "accordion-content-wrapper"
			}
		}
	}
}

// postProcessTabs tags the menu and pane children with positional role
// markers. Tabs require exactly two children (a menu block and a content
// block); with fewer the tagging is skipped silently, matching the
// storage format's leniency, but the occurrence is logged so malformed agent
// output stays observable.
func postProcessTabs(tabsID string, blocks [][]RenderedElement) *StructureWarning {
	if len(blocks) < 2 {
		log.Warn().
			Str("tabs_id", tabsID).
			Int("children", len(blocks)).
			Msg("builder: tabs element needs a menu block and a content block, skipping role tagging")
		return &StructureWarning{
			ElementID: tabsID,
			Message:   fmt.Sprintf("tabs element has %d children, needs a menu block and a content block; role tagging skipped", len(blocks)),
		}
	}

	var warning *StructureWarning
	if len(blocks) > 2 {
		log.Warn().
			Str("tabs_id", tabsID).
			Int("children", len(blocks)).
			Msg("builder: tabs element has extra children, tagging the first two only")
		warning = &StructureWarning{
			ElementID: tabsID,
			Message:   fmt.Sprintf("tabs element has %d children, tagging the first two only", len(blocks)),
		}
	}

	tagPositional(blocks[0], "tab-title")
	tagPositional(blocks[1], "tab-pane")
	return warning
}

func tagPositional(block []RenderedElement, marker string) {
	root := subtreeRoot(block)
	if root == nil {
		return
	}
	for i, childID := range root.Children {
		if child := findElement(block, childID); child != nil {
			child.Settings["_cssClasses"] = fmt.Sprintf("%s %s-%d", marker, marker, i+1)
		}
	}
}

func subtreeRoot(subtree []RenderedElement) *RenderedElement {
	if len(subtree) == 0 {
		return nil
	}
	return &subtree[0]
}

func findElement(subtree []RenderedElement, id string) *RenderedElement {
	for i := range subtree {
		if subtree[i].ID == id {
			return &subtree[i]
		}
	}
	return nil
}
