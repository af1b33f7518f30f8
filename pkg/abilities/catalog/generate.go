package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wrightlabs/pagewright/pkg/abilities"
	"github.com/wrightlabs/pagewright/pkg/content"
	"github.com/wrightlabs/pagewright/pkg/events"
	"github.com/wrightlabs/pagewright/pkg/layout"
)

// Actions the editing client understands for generated content.
const (
	ActionReplace = "replace"
	ActionAppend  = "append"
	ActionPrepend = "prepend"
)

// GenerateContentInput takes the structure as a free-form object rather than
// a typed tree: the schema stays flat for the model, and the builder is
// already lenient about whatever shape arrives.
type GenerateContentInput struct {
	Structure  map[string]any `json:"structure" jsonschema:"required" jsonschema_description:"Nested element tree to lower into flat editor elements"`
	ActionType string         `json:"action_type,omitempty" jsonschema:"enum=replace,enum=append,enum=prepend" jsonschema_description:"How the client should apply the content. Defaults to replace"`
	PostID     int            `json:"post_id,omitempty" jsonschema_description:"Target post. Zero means the client's currently open post"`
}

func (in GenerateContentInput) structureNode() (layout.StructureNode, error) {
	raw, err := json.Marshal(in.Structure)
	if err != nil {
		return layout.StructureNode{}, err
	}
	var node layout.StructureNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return layout.StructureNode{}, err
	}
	return node, nil
}

type GeneratedContent struct {
	Content []layout.RenderedElement `json:"content"`
}

type ContentInfo struct {
	Type         string `json:"type"`
	ElementCount int    `json:"element_count"`
	RootID       string `json:"root_id"`
}

type GenerateContentOutput struct {
	Success     bool             `json:"success"`
	Message     string           `json:"message"`
	ContentJSON GeneratedContent `json:"content_json"`
	ContentInfo ContentInfo      `json:"content_info"`
}

// RegisterGenerateAbility wires content/generate: the ability that lowers a
// nested structure into flat editor elements and hands them to the client as
// a command. The server never writes the generated content itself; applying
// it is the client's job.
func RegisterGenerateAbility(registry abilities.Registry, builder *layout.Builder) error {
	def, err := abilities.NewFromFunc(
		"content/generate",
		"Generate editor content from a nested structure description and send it to the editing client.",
		func(ctx context.Context, input GenerateContentInput) (*abilities.Result, error) {
			action := input.ActionType
			if action == "" {
				action = ActionReplace
			}
			switch action {
			case ActionReplace, ActionAppend, ActionPrepend:
			default:
				return nil, abilities.NewValidationError("content/generate", "action_type",
					fmt.Sprintf("unknown action type %q", action))
			}

			node, err := input.structureNode()
			if err != nil {
				return nil, abilities.NewValidationError("content/generate", "structure", err.Error())
			}

			result, err := builder.Build(node, "")
			if err != nil {
				return nil, err
			}
			for _, warning := range result.Warnings {
				events.PublishEventToContext(ctx, events.NewStructureWarningEvent(
					events.EventMetadata{}, warning.ElementID, warning.Message))
			}

			out := GenerateContentOutput{
				Success: true,
				Message: fmt.Sprintf("generated %d elements", len(result.Elements)),
				ContentJSON: GeneratedContent{
					Content: result.Elements,
				},
				ContentInfo: ContentInfo{
					Type:         node.Type,
					ElementCount: len(result.Elements),
					RootID:       result.RootID,
				},
			}
			return &abilities.Result{
				Data:                    out,
				RequiresClientExecution: true,
				ClientCommand: &abilities.ClientCommand{
					Type:     "apply_content",
					Content:  out.ContentJSON,
					Position: action,
					PostID:   input.PostID,
				},
			}, nil
		},
		abilities.WithCapability(CapabilityEdit),
		abilities.WithOutputType(GenerateContentOutput{}),
	)
	if err != nil {
		return err
	}
	return registry.Register(def)
}

// RegisterAll wires the complete built-in catalogue.
func RegisterAll(registry abilities.Registry, store content.Store, builder *layout.Builder) error {
	if err := RegisterPostAbilities(registry, store); err != nil {
		return err
	}
	return RegisterGenerateAbility(registry, builder)
}
