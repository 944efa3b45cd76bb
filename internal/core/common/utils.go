package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSONObject is returned when a model reply holds no JSON object.
var ErrNoJSONObject = errors.New("no JSON object in reply")

// ParseJSON decodes the first JSON object found in an LLM reply into T.
// Markdown fences and prose around the object are ignored.
func ParseJSON[T any](reply string) (T, error) {
	var out T
	body, err := extractObject(reply)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return out, fmt.Errorf("decode reply object %q: %w", truncate(body, 200), err)
	}
	return out, nil
}

func extractObject(reply string) (string, error) {
	s := strings.TrimSpace(reply)
	if fenced, ok := strings.CutPrefix(s, "```"); ok {
		// Drop the language tag line and the closing fence.
		if nl := strings.IndexByte(fenced, '\n'); nl >= 0 {
			fenced = fenced[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(fenced), "```")
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: %q", ErrNoJSONObject, truncate(reply, 200))
	}
	return s[start : end+1], nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
