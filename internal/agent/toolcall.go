package agent

import (
	"encoding/json"
	"regexp"

	"github.com/kaptinlin/jsonrepair"
)

// DirectiveKind classifies the outcome of scanning a model response for a
// tool-call directive.
type DirectiveKind int

const (
	// NoToolCall means the response carries no directive and is final output.
	NoToolCall DirectiveKind = iota
	// ToolCallFound means a directive with parseable parameters was found.
	ToolCallFound
	// MalformedToolCall means a directive was found but its parameter JSON
	// could not be parsed even after repair. The executor substitutes empty
	// parameters rather than failing the run.
	MalformedToolCall
)

// ToolDirective is the parsed form of the first tool-call directive embedded
// in a model response. Additional directives in the same response are
// ignored.
type ToolDirective struct {
	Kind      DirectiveKind
	Name      string
	Params    map[string]any
	RawParams string
}

// toolCallPattern matches the engine-defined wire format
// <tool>NAME</tool><params>JSON</params>. The params group is matched
// non-greedily so trailing prose after the directive is left alone.
var toolCallPattern = regexp.MustCompile(`(?s)<tool>([a-zA-Z0-9_-]+)</tool>\s*<params>(.*?)</params>`)

// ParseToolCall scans content for the first tool-call directive. Malformed
// parameter JSON first goes through jsonrepair; only when repair fails too
// does the directive degrade to MalformedToolCall.
func ParseToolCall(content string) ToolDirective {
	match := toolCallPattern.FindStringSubmatch(content)
	if match == nil {
		return ToolDirective{Kind: NoToolCall}
	}

	name := match[1]
	raw := match[2]

	if params, ok := decodeParams(raw); ok {
		return ToolDirective{Kind: ToolCallFound, Name: name, Params: params, RawParams: raw}
	}
	return ToolDirective{Kind: MalformedToolCall, Name: name, Params: map[string]any{}, RawParams: raw}
}

func decodeParams(raw string) (map[string]any, bool) {
	var params map[string]any
	if err := json.Unmarshal([]byte(raw), &params); err == nil {
		if params == nil {
			params = map[string]any{}
		}
		return params, true
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(repaired), &params); err != nil {
		return nil, false
	}
	if params == nil {
		params = map[string]any{}
	}
	return params, true
}
