package query

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

const paramSep = "#"

// Key identifies a cached request: an endpoint plus its normalized parameters.
type Key string

// NewKey builds a deterministic key. Parameters are encoded with map keys in
// lexicographic order at every level, so the order in which they were set does
// not affect key equality.
func NewKey(endpoint string, params map[string]any) Key {
	endpoint = strings.TrimSuffix(endpoint, "/")
	if len(params) == 0 {
		return Key(endpoint)
	}

	data, err := json.Marshal(params)
	if err != nil {
		// fmt prints maps sorted by key too
		data = []byte(fmt.Sprint(params))
	}

	return Key(endpoint + paramSep + string(data))
}

func (k Key) Endpoint() string {
	endpoint, _, _ := strings.Cut(string(k), paramSep)

	return endpoint
}

// Matches reports whether the key's endpoint is pattern or lies below it.
func (k Key) Matches(pattern string) bool {
	pattern = strings.TrimSuffix(pattern, "/")
	endpoint := k.Endpoint()

	return endpoint == pattern || strings.HasPrefix(endpoint, pattern+"/")
}

// FedPath is the key prefix of the federation endpoints of a workspace.
func FedPath(workspaceID string) string {
	return path.Join("/fed", strings.TrimSpace(workspaceID))
}

// ProjectPath is the key prefix of the project endpoints of a workspace.
func ProjectPath(workspaceID string) string {
	return path.Join("/projects", strings.TrimSpace(workspaceID))
}
