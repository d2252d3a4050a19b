package schema

import "strings"

// Merge builds one document from per-service documents. docs[i] belongs to
// sources[i]; nil entries are skipped. Paths are prefixed with the service
// name and tagged with its display name. Components are merged key by key,
// later services winning. Every operation requires the bearer scheme.
func Merge(title, version string, sources []Source, docs []map[string]any) map[string]any {
	paths := map[string]any{}
	components := map[string]any{}

	for i, doc := range docs {
		if doc == nil {
			continue
		}
		src := sources[i]

		if ps, ok := doc["paths"].(map[string]any); ok {
			for p, item := range ps {
				paths["/"+src.Name+"/"+strings.TrimLeft(p, "/")] = tagPathItem(item, src.Tag)
			}
		}

		if comps, ok := doc["components"].(map[string]any); ok {
			for section, entries := range comps {
				em, ok := entries.(map[string]any)
				if !ok {
					continue
				}
				dst, _ := components[section].(map[string]any)
				if dst == nil {
					dst = map[string]any{}
					components[section] = dst
				}
				for k, v := range em {
					dst[k] = v
				}
			}
		}
	}

	schemes, _ := components["securitySchemes"].(map[string]any)
	if schemes == nil {
		schemes = map[string]any{}
		components["securitySchemes"] = schemes
	}
	schemes[securitySchemeName] = map[string]any{
		"type":         "http",
		"scheme":       "bearer",
		"bearerFormat": "JWT",
	}

	return map[string]any{
		"openapi":    "3.0.3",
		"info":       map[string]any{"title": title, "version": version},
		"paths":      paths,
		"components": components,
	}
}

// tagPathItem copies a path item, setting the tag and security requirement
// on every operation.
func tagPathItem(item any, tag string) any {
	im, ok := item.(map[string]any)
	if !ok {
		return item
	}
	out := make(map[string]any, len(im))
	for method, op := range im {
		om, isOp := op.(map[string]any)
		if !isOp || !httpMethods[strings.ToLower(method)] {
			out[method] = op
			continue
		}
		cp := make(map[string]any, len(om)+2)
		for k, v := range om {
			cp[k] = v
		}
		cp["tags"] = []any{tag}
		cp["security"] = []any{map[string]any{securitySchemeName: []any{}}}
		out[method] = cp
	}
	return out
}
