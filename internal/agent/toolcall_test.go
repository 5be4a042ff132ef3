package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToolCallNone(t *testing.T) {
	directive := ParseToolCall("All done, nothing left to do.")
	assert.Equal(t, NoToolCall, directive.Kind)
}

func TestParseToolCallWellFormed(t *testing.T) {
	directive := ParseToolCall(`I'll read the file first.
<tool>read_file</tool><params>{"path":"a.txt"}</params>`)

	require.Equal(t, ToolCallFound, directive.Kind)
	assert.Equal(t, "read_file", directive.Name)
	assert.Equal(t, map[string]any{"path": "a.txt"}, directive.Params)
}

func TestParseToolCallWhitespaceBetweenTags(t *testing.T) {
	directive := ParseToolCall("<tool>git_status</tool>\n<params>{}</params>")

	require.Equal(t, ToolCallFound, directive.Kind)
	assert.Equal(t, "git_status", directive.Name)
	assert.Empty(t, directive.Params)
}

func TestParseToolCallFirstMatchOnly(t *testing.T) {
	content := `<tool>read_file</tool><params>{"path":"a.txt"}</params>
<tool>write_file</tool><params>{"path":"b.txt","content":"x"}</params>`

	directive := ParseToolCall(content)

	require.Equal(t, ToolCallFound, directive.Kind)
	assert.Equal(t, "read_file", directive.Name)
	assert.Equal(t, "a.txt", directive.Params["path"])
}

func TestParseToolCallRepairsSloppyJSON(t *testing.T) {
	// Trailing comma and single quotes, the kind of JSON models emit.
	directive := ParseToolCall(`<tool>read_file</tool><params>{'path': 'a.txt',}</params>`)

	require.Equal(t, ToolCallFound, directive.Kind)
	assert.Equal(t, "a.txt", directive.Params["path"])
}

func TestParseToolCallMalformedDegradesToEmptyParams(t *testing.T) {
	directive := ParseToolCall(`<tool>read_file</tool><params>[1, 2, 3]</params>`)

	require.Equal(t, MalformedToolCall, directive.Kind)
	assert.Equal(t, "read_file", directive.Name)
	assert.NotNil(t, directive.Params)
	assert.Empty(t, directive.Params)
}

func TestParseToolCallEmptyParamsBlock(t *testing.T) {
	directive := ParseToolCall(`<tool>git_status</tool><params></params>`)

	// An empty params block is not valid JSON; it degrades to empty params
	// rather than failing the run.
	assert.Equal(t, "git_status", directive.Name)
	assert.NotNil(t, directive.Params)
	assert.Empty(t, directive.Params)
}

func TestParseToolCallIgnoresUnclosedTags(t *testing.T) {
	directive := ParseToolCall(`<tool>read_file</tool> some prose without params`)
	assert.Equal(t, NoToolCall, directive.Kind)
}
