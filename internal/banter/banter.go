// Package banter holds the static event-category to message-template
// mapping used to narrate rounds. Templates carry [name] placeholders that
// are substituted before any text leaves the engine.
package banter

import (
	_ "embed"
	"encoding/json"
	"math/rand"
	"strings"
)

//go:embed banter.json
var defaultTable []byte

// Table maps event categories to message templates.
type Table struct {
	pools map[string][]string
}

// Load returns the built-in banter table.
func Load() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		// The embedded table is validated by tests; an empty table still
		// narrates via fallback templates.
		return &Table{pools: map[string][]string{}}
	}
	return t
}

// Parse builds a table from raw JSON, for operators shipping their own lines.
func Parse(data []byte) (*Table, error) {
	pools := make(map[string][]string)
	if err := json.Unmarshal(data, &pools); err != nil {
		return nil, err
	}
	return &Table{pools: pools}, nil
}

// Pick returns a random template from the category's pool, or "" when the
// category is unknown or empty.
func (t *Table) Pick(category string) string {
	pool := t.pools[category]
	if len(pool) == 0 {
		return ""
	}
	return pool[rand.Intn(len(pool))]
}

// PickOr is Pick with a fallback template for empty pools.
func (t *Table) PickOr(category, fallback string) string {
	if s := t.Pick(category); s != "" {
		return s
	}
	return fallback
}

// Format substitutes every [key] placeholder in the template with its
// binding. Unknown placeholders are left alone; callers bind every key
// their templates use.
func Format(template string, bindings map[string]string) string {
	s := template
	for k, v := range bindings {
		s = strings.ReplaceAll(s, "["+k+"]", v)
	}
	return s
}
