package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/logger"
)

type TypeSet map[string]struct{}

type SchemaMap map[string]TypeSet

type Inventory struct {
	GeneratedAtUTC string     `json:"generated_at_utc"`
	RawRoot        string     `json:"raw_root"`
	Endpoints      []Endpoint `json:"endpoints"`
}

type Endpoint struct {
	Name         string  `json:"name"`
	FilesScanned int     `json:"files_scanned"`
	Fields       []Field `json:"fields"`
	// Missing lists required gjson paths absent from at least one file.
	Missing []string `json:"missing,omitempty"`
}

type Field struct {
	Path  string   `json:"path"`
	Types []string `json:"types"`
}

// source is one cached endpoint and the paths the loaders depend on.
type source struct {
	Name     string
	Glob     string
	Required []string
}

func sources(rawRoot string) []source {
	return []source{
		{
			Name: "bootstrap-static",
			Glob: filepath.Join(rawRoot, "bootstrap", "bootstrap-static.json"),
			Required: []string{
				"elements.0.id", "elements.0.web_name", "elements.0.team",
				"elements.0.element_type", "elements.0.now_cost", "elements.0.status",
				"teams.0.id", "teams.0.short_name",
				"events.0.id", "events.0.deadline_time", "events.0.is_current",
			},
		},
		{
			Name: "fixtures",
			Glob: filepath.Join(rawRoot, "bootstrap", "fixtures.json"),
			Required: []string{
				"0.event", "0.team_h", "0.team_a", "0.team_h_difficulty", "0.team_a_difficulty",
			},
		},
		{
			Name:     "entry",
			Glob:     filepath.Join(rawRoot, "entry", "*", "entry.json"),
			Required: []string{"current_event", "last_deadline_bank"},
		},
		{
			Name:     "entry-picks",
			Glob:     filepath.Join(rawRoot, "entry", "*", "gw", "*", "picks.json"),
			Required: []string{"picks.0.element", "picks.0.position", "entry_history.bank"},
		},
		{
			Name: "my-team",
			Glob: filepath.Join(rawRoot, "entry", "*", "my-team.json"),
			Required: []string{
				"picks.0.element", "picks.0.selling_price",
				"transfers.bank", "transfers.limit", "transfers.made",
			},
		},
	}
}

// scan reads up to maxFiles matches of src.Glob. ok is false when nothing matched.
func scan(src source, maxFiles int) (Endpoint, bool, error) {
	files, err := filepath.Glob(src.Glob)
	if err != nil {
		return Endpoint{}, false, fmt.Errorf("glob %s: %w", src.Name, err)
	}
	sort.Strings(files)
	if maxFiles > 0 && len(files) > maxFiles {
		files = files[:maxFiles]
	}
	if len(files) == 0 {
		return Endpoint{}, false, nil
	}

	schema := make(SchemaMap)
	missing := make(map[string]struct{})
	for _, f := range files {
		raw, err := os.ReadFile(f)
		if err != nil {
			logger.Warnf("read error %s: %v", f, err)
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			logger.Warnf("json error %s: %v", f, err)
			continue
		}
		walkSchema(v, "$", schema)
		for _, p := range missingPaths(raw, src.Required) {
			missing[p] = struct{}{}
		}
	}

	ep := Endpoint{
		Name:         src.Name,
		FilesScanned: len(files),
		Fields:       schemaToFields(schema),
	}
	for p := range missing {
		ep.Missing = append(ep.Missing, p)
	}
	sort.Strings(ep.Missing)
	return ep, true, nil
}

// missingPaths reports required paths the document lacks. Empty arrays have
// nothing to check.
func missingPaths(raw []byte, required []string) []string {
	doc := gjson.ParseBytes(raw)
	if doc.IsArray() && len(doc.Array()) == 0 {
		return nil
	}
	var out []string
	for _, p := range required {
		if !doc.Get(p).Exists() {
			out = append(out, p)
		}
	}
	return out
}

func walkSchema(v any, path string, schema SchemaMap) {
	switch x := v.(type) {
	case map[string]any:
		addType(schema, path, "object")
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkSchema(x[k], path+"."+k, schema)
		}
	case []any:
		addType(schema, path, "array")
		if len(x) > 0 {
			walkSchema(x[0], path+"[]", schema)
		} else {
			addType(schema, path+"[]", "unknown")
		}
	case string:
		addType(schema, path, "string")
	case bool:
		addType(schema, path, "bool")
	case float64:
		addType(schema, path, "number")
	case nil:
		addType(schema, path, "null")
	default:
		addType(schema, path, fmt.Sprintf("%T", v))
	}
}

func addType(schema SchemaMap, path string, typ string) {
	set, ok := schema[path]
	if !ok {
		set = make(TypeSet)
		schema[path] = set
	}
	set[typ] = struct{}{}
}

func schemaToFields(schema SchemaMap) []Field {
	paths := make([]string, 0, len(schema))
	for p := range schema {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	fields := make([]Field, 0, len(paths))
	for _, p := range paths {
		types := make([]string, 0, len(schema[p]))
		for t := range schema[p] {
			types = append(types, t)
		}
		sort.Strings(types)
		fields = append(fields, Field{Path: p, Types: types})
	}
	return fields
}
