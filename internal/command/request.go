package command

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// Request is one decoded command. The JSON form is
// {"command": "playAnimation", "args": ["meltdown"]}.
type Request struct {
	Command string            `json:"command"`
	Args    []json.RawMessage `json:"args,omitempty"`
	// Source names the transport the request arrived on.
	Source string `json:"-"`
}

// ParseText parses the text form of a command: the operation name followed
// by positional arguments, split with shell quoting rules. Tokens that are
// valid JSON (numbers, booleans, arrays) are passed through; anything else
// is treated as a string.
func ParseText(line string) (Request, error) {
	tokens, err := shlex.Split(line)
	if err != nil {
		return Request{}, fmt.Errorf("failed to split command line: %w", err)
	}
	if len(tokens) == 0 {
		return Request{}, fmt.Errorf("empty command")
	}

	req := Request{Command: tokens[0]}
	for _, tok := range tokens[1:] {
		req.Args = append(req.Args, TextArg(tok))
	}
	return req, nil
}

// TextArg encodes one text-mode token as a JSON argument. Tokens that are
// valid JSON other than null are passed through; everything else becomes a
// string.
func TextArg(tok string) json.RawMessage {
	trimmed := strings.TrimSpace(tok)
	if trimmed != "" && trimmed != "null" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	quoted, _ := json.Marshal(tok)
	return quoted
}

// ParseJSON decodes the JSON form of a command.
func ParseJSON(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("failed to decode command: %w", err)
	}
	if req.Command == "" {
		return Request{}, fmt.Errorf("missing required field: command")
	}
	return req, nil
}

// Format renders req in the text form accepted by ParseText.
func Format(req Request) string {
	parts := []string{req.Command}
	for _, raw := range req.Args {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			parts = append(parts, quote(s))
			continue
		}
		parts = append(parts, string(raw))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\#") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
