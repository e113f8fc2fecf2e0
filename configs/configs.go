// Package configs loads the library's configuration documents. Local files
// may be JSON or YAML and are merged with NG_-prefixed environment
// overrides; remote documents arrive AES-encrypted (see LoadRemote).
// Snapshots are immutable: Get returns the current document and per-call
// overrides are realized by building fresh values, never by mutating a
// shared one.
package configs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix marks environment variables that override configuration keys.
// Nested keys are addressed with a double underscore: NG_SERVER__PORT=8080
// sets server.port.
const EnvPrefix = "NG_"

// Manager holds an atomically swappable configuration snapshot.
type Manager struct {
	current atomic.Value // map[string]any
	source  string
}

// Load reads a local JSON or YAML file (chosen by extension) and applies
// environment overrides. A missing file is an error: local configuration
// is explicit, not optional.
func Load(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config file %s", path)
	}

	doc := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrapf(err, "parsing YAML config %s", path)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrapf(err, "parsing JSON config %s", path)
		}
	}

	applyEnvOverrides(doc, os.Environ())

	m := &Manager{source: "local:" + path}
	m.current.Store(doc)
	return m, nil
}

// Get returns the current configuration snapshot. Callers must not mutate
// the returned map.
func (m *Manager) Get() map[string]any {
	return m.current.Load().(map[string]any)
}

// Source describes where the configuration was loaded from.
func (m *Manager) Source() string {
	return m.source
}

// GetString resolves a dotted key path to a string value, with ok=false
// when the path is absent or not a string.
func (m *Manager) GetString(path string) (string, bool) {
	node := any(m.Get())
	for _, part := range strings.Split(path, ".") {
		obj, ok := node.(map[string]any)
		if !ok {
			return "", false
		}
		node, ok = obj[part]
		if !ok {
			return "", false
		}
	}
	s, ok := node.(string)
	return s, ok
}

// applyEnvOverrides writes NG_-prefixed variables into the document,
// splitting nested keys on double underscores. Key matching is
// case-insensitive against lowercased document keys.
func applyEnvOverrides(doc map[string]any, environ []string) {
	for _, entry := range environ {
		key, value, found := strings.Cut(entry, "=")
		if !found || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		parts := strings.Split(strings.TrimPrefix(key, EnvPrefix), "__")
		node := doc
		for i, part := range parts {
			name := strings.ToLower(part)
			if i == len(parts)-1 {
				node[name] = value
				break
			}
			child, ok := node[name].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[name] = child
			}
			node = child
		}
	}
}
