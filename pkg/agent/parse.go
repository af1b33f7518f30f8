package agent

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/wrightlabs/pagewright/pkg/abilities"
)

// Plan is the machine-readable part of an assistant reply: the abilities the
// model wants executed, in order.
type Plan struct {
	Abilities []PlannedCall `json:"abilities"`
}

type PlannedCall struct {
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// Calls converts the plan into executor calls, assigning positional ids.
func (p Plan) Calls(turnID string) []abilities.Call {
	calls := make([]abilities.Call, 0, len(p.Abilities))
	for i, planned := range p.Abilities {
		input := planned.Input
		if len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		calls = append(calls, abilities.Call{
			ID:    callID(turnID, i),
			Name:  planned.Name,
			Input: input,
		})
	}
	return calls
}

func callID(turnID string, index int) string {
	return fmt.Sprintf("%s-%d", turnID, index)
}

// ExtractPlan pulls the ability plan out of an assistant reply. The reply is
// markdown; the plan lives in the first fenced json code block. A reply with
// no json block, or a block that does not decode into the plan shape, yields
// an empty plan: prose-only replies are a normal end of turn, not an error.
func ExtractPlan(reply string) Plan {
	block := extractJSONBlock(reply)
	if block == nil {
		return Plan{}
	}

	var plan Plan
	if err := json.Unmarshal(block, &plan); err != nil {
		log.Warn().Err(err).Msg("agent: reply contained a json block that is not an ability plan")
		return Plan{}
	}
	return plan
}

// ExtractCorrection pulls a corrected input object out of a remediation
// reply. Returns nil when the reply holds no decodable json object.
func ExtractCorrection(reply string) json.RawMessage {
	block := extractJSONBlock(reply)
	if block == nil {
		return nil
	}
	var probe map[string]any
	if err := json.Unmarshal(block, &probe); err != nil {
		log.Warn().Err(err).Msg("agent: correction reply json block is not an object")
		return nil
	}
	return block
}

func extractJSONBlock(reply string) json.RawMessage {
	source := []byte(reply)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var block []byte
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || block != nil {
			return ast.WalkContinue, nil
		}
		fenced, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if lang := fenced.Language(source); !bytes.Equal(lang, []byte("json")) {
			return ast.WalkContinue, nil
		}
		var buf bytes.Buffer
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			segment := lines.At(i)
			buf.Write(segment.Value(source))
		}
		block = buf.Bytes()
		return ast.WalkSkipChildren, nil
	})

	return block
}

// ContainsCannotFix reports whether the model declared it cannot repair a
// failing ability input.
func ContainsCannotFix(reply string) bool {
	return bytes.Contains([]byte(reply), []byte(CannotFixMarker))
}
