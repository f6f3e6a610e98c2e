package llm

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

var (
	ErrEmptyResponse = errors.New("empty model response")
	// ErrMalformedOutput is returned when a response that must contain
	// a JSON object cannot be decoded, after trying both the
	// fence-stripped and the raw form.
	ErrMalformedOutput = errors.New("malformed model output: expected JSON object")
)

// DecodeObject extracts and decodes the outermost JSON object from a
// model response. Known markdown code fences are stripped first; if the
// fenced candidate does not contain a parseable object the raw text is
// tried as a whole. Partial or best-effort string slicing never happens
// silently: failure is always ErrMalformedOutput.
func DecodeObject(raw string, v interface{}) error {
	payload, err := extractJSONPayload(raw)
	if err != nil {
		return err
	}

	decoder := json.NewDecoder(strings.NewReader(payload))
	decoder.UseNumber()

	if err := decoder.Decode(v); err != nil {
		return errors.Join(ErrMalformedOutput, err)
	}
	if err := ensureEOF(decoder); err != nil {
		return errors.Join(ErrMalformedOutput, err)
	}
	return nil
}

// DecodeStringMap decodes a flat JSON object into a string map,
// coercing non-string scalar values and mapping null to "".
func DecodeStringMap(raw string) (map[string]string, error) {
	var generic map[string]interface{}
	if err := DecodeObject(raw, &generic); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(generic))
	for k, v := range generic {
		switch typed := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = typed
		case json.Number:
			out[k] = typed.String()
		case bool:
			if typed {
				out[k] = "true"
			} else {
				out[k] = "false"
			}
		default:
			// Nested values are re-serialized rather than dropped.
			data, err := json.Marshal(typed)
			if err != nil {
				return nil, errors.Join(ErrMalformedOutput, err)
			}
			out[k] = string(data)
		}
	}
	return out, nil
}

func extractJSONPayload(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyResponse
	}

	candidate := trimmed
	if strings.HasPrefix(trimmed, "```") {
		start := strings.Index(trimmed, "```")
		if start != -1 {
			end := strings.Index(trimmed[start+3:], "```")
			if end != -1 {
				content := trimmed[start+3 : start+3+end]
				if idx := strings.Index(content, "\n"); idx != -1 {
					content = content[idx+1:]
				}
				candidate = strings.TrimSpace(content)
			}
		}
	}

	if payload, ok := findJSONObject(candidate); ok {
		return payload, nil
	}
	if payload, ok := findJSONObject(trimmed); ok {
		return payload, nil
	}
	return "", ErrMalformedOutput
}

// findJSONObject locates the outermost balanced {...} span, tracking
// string literals and escapes so braces inside values don't confuse it.
func findJSONObject(input string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(input); i++ {
		ch := input[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		if ch == '{' {
			if depth == 0 {
				start = i
			}
			depth++
			continue
		}
		if ch == '}' {
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				return input[start : i+1], true
			}
		}
	}
	return "", false
}

func ensureEOF(decoder *json.Decoder) error {
	var extra interface{}
	if err := decoder.Decode(&extra); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return errors.New("unexpected trailing JSON content")
}
