package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wrightlabs/pagewright/pkg/abilities"
)

// CannotFixMarker is the token the model is instructed to emit when it judges
// a failing ability input unrepairable. Seeing it short-circuits the retry
// loop for that ability.
const CannotFixMarker = "CANNOT_FIX"

const systemPreamble = `You are a page building assistant. You design page structures and manage stored posts by invoking abilities.

To invoke abilities, reply with a single fenced json code block of the form:

` + "```json" + `
{"abilities": [{"name": "<ability-name>", "input": {...}}]}
` + "```" + `

Abilities run strictly in the order you list them. If you have nothing to execute, reply in plain prose.

Available abilities:
%s

When asked to correct a failing ability input, reply with a json block containing only the corrected input object. If the input cannot be repaired, reply with the single word %s.`

// SystemPrompt renders the loop's system message from the registered
// abilities so the model always sees the catalogue it can actually call.
func SystemPrompt(registry abilities.Registry) string {
	defs := registry.List()
	lines := make([]string, 0, len(defs))
	for _, def := range defs {
		lines = append(lines, fmt.Sprintf("- %s: %s", def.Name, def.Description))
	}
	sort.Strings(lines)
	return fmt.Sprintf(systemPreamble, strings.Join(lines, "\n"), CannotFixMarker)
}

// remediationHints maps recognizable failure signatures to a concrete
// instruction appended to the correction request. Unrecognized failures get
// no hint and the model works from the raw error text alone.
var remediationHints = []struct {
	substring string
	hint      string
}{
	{"is required", "Add the missing required field to the input."},
	{"additional property", "Remove the unexpected field from the input."},
	{"invalid type", "Fix the type of the offending field; check strings versus numbers."},
	{"maximum nesting depth", "Flatten the structure; remove unnecessary wrapper containers."},
	{"unknown action type", "Use one of: replace, append, prepend."},
	{"post not found", "Call posts/list first to find a valid post id."},
}

// CorrectionPrompt builds the message asking the model to repair a failed
// ability input.
func CorrectionPrompt(call abilities.Call, abErr *abilities.AbilityError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The ability %q failed with error: %s\n", call.Name, abErr.Message)
	if abErr.Field != "" {
		fmt.Fprintf(&b, "Offending field: %s\n", abErr.Field)
	}
	fmt.Fprintf(&b, "The input was:\n```json\n%s\n```\n", string(call.Input))
	for _, h := range remediationHints {
		if strings.Contains(strings.ToLower(abErr.Message), h.substring) {
			fmt.Fprintf(&b, "Hint: %s\n", h.hint)
			break
		}
	}
	fmt.Fprintf(&b, "Reply with a json block containing only the corrected input object, or %s if it cannot be repaired.", CannotFixMarker)
	return b.String()
}
