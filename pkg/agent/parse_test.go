package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlanFromFencedBlock(t *testing.T) {
	t.Parallel()
	reply := "I'll create the post first.\n\n```json\n{\"abilities\":[{\"name\":\"posts/create\",\"input\":{\"title\":\"Home\"}}]}\n```\n\nDone."
	plan := ExtractPlan(reply)
	require.Len(t, plan.Abilities, 1)
	assert.Equal(t, "posts/create", plan.Abilities[0].Name)
	assert.JSONEq(t, `{"title":"Home"}`, string(plan.Abilities[0].Input))
}

func TestExtractPlanProseOnly(t *testing.T) {
	t.Parallel()
	plan := ExtractPlan("Sure, here's what I'd recommend for the layout.")
	assert.Empty(t, plan.Abilities)
}

func TestExtractPlanIgnoresNonJSONFences(t *testing.T) {
	t.Parallel()
	reply := "```go\npackage main\n```\n\n```json\n{\"abilities\":[{\"name\":\"posts/list\"}]}\n```"
	plan := ExtractPlan(reply)
	require.Len(t, plan.Abilities, 1)
	assert.Equal(t, "posts/list", plan.Abilities[0].Name)
}

func TestExtractPlanMalformedBlockYieldsNoAbilities(t *testing.T) {
	t.Parallel()
	plan := ExtractPlan("```json\n{\"abilities\": [{\"name\": \n```")
	assert.Empty(t, plan.Abilities)
}

func TestExtractPlanUsesFirstBlockOnly(t *testing.T) {
	t.Parallel()
	reply := "```json\n{\"abilities\":[{\"name\":\"posts/list\"}]}\n```\n```json\n{\"abilities\":[{\"name\":\"posts/create\"}]}\n```"
	plan := ExtractPlan(reply)
	require.Len(t, plan.Abilities, 1)
	assert.Equal(t, "posts/list", plan.Abilities[0].Name)
}

func TestPlanCallsDefaultsEmptyInput(t *testing.T) {
	t.Parallel()
	plan := ExtractPlan("```json\n{\"abilities\":[{\"name\":\"posts/list\"}]}\n```")
	calls := plan.Calls("turn-1")
	require.Len(t, calls, 1)
	assert.Equal(t, "turn-1-0", calls[0].ID)
	assert.JSONEq(t, `{}`, string(calls[0].Input))
}

func TestExtractCorrection(t *testing.T) {
	t.Parallel()
	corrected := ExtractCorrection("Here's the fix:\n```json\n{\"title\":\"Fixed\"}\n```")
	require.NotNil(t, corrected)
	assert.JSONEq(t, `{"title":"Fixed"}`, string(corrected))

	assert.Nil(t, ExtractCorrection("no block here"))
	assert.Nil(t, ExtractCorrection("```json\n[1,2,3]\n```"))
}

func TestContainsCannotFix(t *testing.T) {
	t.Parallel()
	assert.True(t, ContainsCannotFix("CANNOT_FIX"))
	assert.True(t, ContainsCannotFix("I'm afraid this is CANNOT_FIX territory."))
	assert.False(t, ContainsCannotFix("let me try again"))
}
