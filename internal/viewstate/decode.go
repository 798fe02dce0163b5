package viewstate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/princekumarofficial/challenge-tracker/internal/types"
)

// Counters and ids are pushed either bare (5, "abc") or wrapped in an object
// ({"level": 5}, {"id": "abc"}) depending on the emitter. Both are accepted.

func decodeCount(ev *types.Event, key string) (*int, error) {
	data := bytes.TrimSpace(ev.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	if data[0] != '{' {
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", ev.Type, err)
		}
		return &n, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", ev.Type, err)
	}
	raw, ok := obj[key]
	if !ok {
		return nil, nil
	}
	var n *int
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("invalid %s.%s: %w", ev.Type, key, err)
	}
	return n, nil
}

func decodeID(ev *types.Event, keys ...string) (string, error) {
	data := bytes.TrimSpace(ev.Data)
	if len(data) == 0 {
		return "", fmt.Errorf("empty %s payload", ev.Type)
	}

	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return "", fmt.Errorf("invalid %s payload: %w", ev.Type, err)
		}
		return id, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", fmt.Errorf("invalid %s payload: %w", ev.Type, err)
	}
	for _, k := range append(keys, "id", "_id") {
		var id string
		if raw, ok := obj[k]; ok && json.Unmarshal(raw, &id) == nil && id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("%s payload carries no id", ev.Type)
}
