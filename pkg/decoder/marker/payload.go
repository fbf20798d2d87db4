package marker

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Token payloads carried inside markers. Field names follow the wire format.

type toolStepStart struct {
	ID       string         `json:"id"`
	ToolName string         `json:"toolName"`
	Input    map[string]any `json:"input"`
}

type toolStepEnd struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Output map[string]any `json:"output"`
	Error  string         `json:"error"`
}

type toolResult struct {
	ToolName string         `json:"toolName"`
	Output   map[string]any `json:"output"`
}

// decodeBase64 decodes a payload with either padded or raw standard
// encoding. Some producers strip padding.
func decodeBase64(payload string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return raw, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
}

// decodeText decodes a base64 payload carrying plain UTF-8 text.
func decodeText(payload string) (string, error) {
	raw, err := decodeBase64(payload)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", errInvalidUTF8
	}
	return string(raw), nil
}

// decodeJSON decodes a base64 payload carrying a JSON object.
func decodeJSON(payload string, v any) error {
	raw, err := decodeBase64(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// decodeResultJSON decodes a tool result payload. The legacy TOOL_RESULT
// marker carries raw JSON, TOOL_RESULT_B64 carries base64 JSON; either way
// the other encoding is tried as a fallback because old producers mixed
// them up.
func decodeResultJSON(tag Tag, payload string, v any) error {
	if tag == TagToolResult {
		if err := json.Unmarshal([]byte(payload), v); err == nil {
			return nil
		}
		return decodeJSON(payload, v)
	}
	if err := decodeJSON(payload, v); err == nil {
		return nil
	}
	return json.Unmarshal([]byte(payload), v)
}

type decodeError string

func (e decodeError) Error() string {
	return string(e)
}

const errInvalidUTF8 = decodeError("payload is not valid utf-8")
