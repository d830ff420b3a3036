package resolver

import (
	"sort"
	"strings"

	"callproof/internal/graph"
)

// defaultAliases maps lowercase names a model tends to use onto the symbol
// names a language actually gives them. Dunder protocol names beyond these
// are left to configuration: "exit" or "len" usually mean a builtin call.
var defaultAliases = map[string][]string{
	"constructor": {"__init__", "New"},
	"ctor":        {"__init__", "New"},
	"init":        {"__init__", "New"},
	"initializer": {"__init__", "New"},
	"initialiser": {"__init__", "New"},
	"str":         {"__str__", "String"},
	"to_string":   {"__str__", "String"},
	"tostring":    {"__str__", "String"},
	"repr":        {"__repr__", "GoString"},
	"main":        {"main", "__main__"},
	"entrypoint":  {"main", "__main__"},
	"entry_point": {"main", "__main__"},
	"module":      {graph.ModuleSymbolName},
	"program":     {graph.ModuleSymbolName},
	"script":      {graph.ModuleSymbolName},
	"global":      {graph.ModuleSymbolName},
	"toplevel":    {graph.ModuleSymbolName},
	"top_level":   {graph.ModuleSymbolName},
}


// AliasTable is an immutable synonym table keyed by lowercase name.
type AliasTable struct {
	entries map[string][]string
}

var defaultAliasTable = NewAliasTable(nil)

// DefaultAliases returns the built-in table.
func DefaultAliases() *AliasTable {
	return defaultAliasTable
}

// NewAliasTable copies the built-in table and extends it with extra.
// Keys are folded to lowercase; duplicate targets are dropped.
func NewAliasTable(extra map[string][]string) *AliasTable {
	entries := make(map[string][]string, len(defaultAliases)+len(extra))
	add := func(key string, targets []string) {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return
		}
		for _, t := range targets {
			t = strings.TrimSpace(t)
			if t != "" && !contains(entries[key], t) {
				entries[key] = append(entries[key], t)
			}
		}
	}
	for k, v := range defaultAliases {
		add(k, v)
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(k, extra[k])
	}
	return &AliasTable{entries: entries}
}

// Targets returns the symbol names raw is a synonym of.
func (t *AliasTable) Targets(raw string) []string {
	if t == nil {
		return nil
	}
	return t.entries[strings.ToLower(strings.TrimSpace(raw))]
}

func (t *AliasTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
