package llm

import (
	"errors"
	"strings"
)

// ErrNoJSONObject indicates the model reply contained no brace-delimited object.
var ErrNoJSONObject = errors.New("no JSON object in model response")

// ExtractJSONObject locates the first balanced brace-delimited substring in a
// raw model reply. Models intermittently wrap JSON in prose; interpretation of
// the reply is an explicit parsing step with its own failure, never assumed.
func ExtractJSONObject(raw string) (string, error) {
	start := strings.Index(raw, "{")
	if start < 0 {
		return "", ErrNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSONObject
}
