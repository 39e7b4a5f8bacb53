package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StringList accepts either a JSON array of strings or a single
// comma-separated string and always holds the trimmed, non-empty entries.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = StringList{}
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		*l = normalizeList(items)
		return nil
	}

	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return fmt.Errorf("expected string or array of strings: %w", err)
	}
	*l = normalizeList(strings.Split(joined, ","))
	return nil
}

func normalizeList(items []string) StringList {
	out := make(StringList, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
