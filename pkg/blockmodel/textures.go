package blockmodel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Faultbox/cubemodel/pkg/resource"
)

func isIndirection(value string) bool {
	return len(value) > 0 && value[0] == IndirectionMarker
}

// ResolveTextures follows indirections in a texture table until every
// variable holds an asset path, then qualifies each path as
// <namespace>:textures/<path>.png. The loop runs at most len(table)+1 passes;
// anything still indirect afterwards is part of a cycle.
func ResolveTextures(table map[string]string, namespace string) (map[string]resource.Identifier, error) {
	work := make(map[string]string, len(table))
	names := make([]string, 0, len(table))
	for name, value := range table {
		work[name] = value
		names = append(names, name)
	}
	sort.Strings(names)

	for pass := 0; pass <= len(names); pass++ {
		changed := false
		for _, name := range names {
			value := work[name]
			if !isIndirection(value) {
				continue
			}
			target, ok := work[value[1:]]
			if !ok {
				return nil, fmt.Errorf("%w: %q refers to undefined variable %q",
					ErrUnresolvableTextureReference, name, value[1:])
			}
			if target != value {
				work[name] = target
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	resolved := make(map[string]resource.Identifier, len(work))
	for _, name := range names {
		value := work[name]
		if isIndirection(value) {
			return nil, fmt.Errorf("%w: cyclic reference through %q",
				ErrUnresolvableTextureReference, name)
		}
		id, err := resource.ParseDefault(strings.TrimSpace(value), namespace)
		if err != nil {
			return nil, fmt.Errorf("%w: texture %q: %v", ErrMalformedDocument, name, err)
		}
		resolved[name] = id.In("textures", ".png")
	}
	return resolved, nil
}
