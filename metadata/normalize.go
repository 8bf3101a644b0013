package metadata

import (
	"path"
	"sort"
)

// buildToolFiles maps well known files at the package root to the build
// tool they imply.
var buildToolFiles = map[string]string{
	"mix.exs":      "mix",
	"rebar.config": "rebar3",
	"rebar":        "rebar3",
	"Makefile":     "make",
	"Makefile.win": "make",
}

// Normalize rewrites legacy metadata shapes in place and returns the
// mapping: requirements are reshaped to a name keyed mapping, links and
// extra are coerced from pair lists to mappings, and build_tools is
// guessed from the file list when absent.
func Normalize(meta map[string]any) map[string]any {
	if reqs, ok := meta["requirements"]; ok {
		meta["requirements"] = normalizeRequirements(reqs)
	}
	for _, key := range []string{"links", "extra"} {
		if v, ok := meta[key]; ok {
			if m, ok := pairsToMap(v); ok {
				meta[key] = m
			}
		}
	}
	if _, ok := meta["build_tools"]; !ok {
		meta["build_tools"] = guessBuildTools(meta["files"])
	}
	return meta
}

// normalizeRequirements accepts the two historical wire shapes: a list of
// sub-mappings each carrying a name entry, and a list of {name, value}
// pairs. Both become a mapping from requirement name to its attributes.
func normalizeRequirements(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(list))
	for _, elem := range list {
		switch elem := elem.(type) {
		case Pair:
			name, ok := stringKey(elem.Key)
			if !ok {
				return v
			}
			if m, ok := pairsToMap(elem.Value); ok {
				out[name] = m
			} else {
				out[name] = elem.Value
			}
		case []any:
			m, ok := pairsToMap(elem)
			if !ok {
				return v
			}
			name, ok := m["name"].(string)
			if !ok {
				return v
			}
			delete(m, "name")
			out[name] = m
		case map[string]any:
			name, ok := elem["name"].(string)
			if !ok {
				return v
			}
			delete(elem, "name")
			out[name] = elem
		default:
			return v
		}
	}
	return out
}

// pairsToMap coerces a sequence of 2-tuples with string keys to a
// mapping. Mappings pass through; anything else reports false.
func pairsToMap(v any) (map[string]any, bool) {
	switch v := v.(type) {
	case map[string]any:
		return v, true
	case []any:
		out := make(map[string]any, len(v))
		for _, elem := range v {
			pair, ok := elem.(Pair)
			if !ok {
				return nil, false
			}
			key, ok := stringKey(pair.Key)
			if !ok {
				return nil, false
			}
			out[key] = pair.Value
		}
		return out, true
	}
	return nil, false
}

func stringKey(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case Atom:
		return string(v), true
	}
	return "", false
}

// guessBuildTools infers the build_tools list by matching base directory
// entries of the file list against the known build files, sorted and
// deduplicated.
func guessBuildTools(files any) []any {
	list, ok := files.([]any)
	if !ok {
		return []any{}
	}
	seen := map[string]bool{}
	for _, elem := range list {
		name, ok := elem.(string)
		if !ok {
			continue
		}
		if path.Dir(name) != "." {
			continue
		}
		if tool, ok := buildToolFiles[path.Base(name)]; ok {
			seen[tool] = true
		}
	}
	tools := make([]string, 0, len(seen))
	for tool := range seen {
		tools = append(tools, tool)
	}
	sort.Strings(tools)
	out := make([]any, len(tools))
	for i, tool := range tools {
		out[i] = tool
	}
	return out
}
