package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackzampolin/extract/internal/providers"
)

const (
	// DataArgument is the single argument name the translated function
	// accepts. The prompt assembler encodes example outputs under the same
	// key, so the two must never drift apart.
	DataArgument = "data"

	// DefaultFunctionName is used when the schema carries no usable title.
	DefaultFunctionName = "extractor"
)

// Translate converts a JSON Schema into a callable function descriptor.
//
// The caller's schema becomes the sole argument of the function, keyed by
// DataArgument. Local $ref pointers are dereferenced first so the embedded
// schema remains self-contained after wrapping. Translation is deterministic:
// identical input always yields an identical descriptor.
//
// The schema is assumed to have passed structural validation already; feeding
// an unvalidated schema here is the caller's mistake.
func Translate(schemaRaw json.RawMessage) (providers.ToolFunction, error) {
	var root any
	if err := json.Unmarshal(schemaRaw, &root); err != nil {
		return providers.ToolFunction{}, fmt.Errorf("%w: schema is not valid JSON: %v", ErrSchemaTranslation, err)
	}

	name := DefaultFunctionName
	description := ""
	if m, ok := root.(map[string]any); ok {
		if title, ok := m["title"].(string); ok {
			if sanitized := sanitizeFunctionName(title); sanitized != "" {
				name = sanitized
			}
		}
		if desc, ok := m["description"].(string); ok {
			description = desc
		}
	}

	resolved, err := resolveRefs(root, root, map[string]bool{})
	if err != nil {
		return providers.ToolFunction{}, err
	}

	parameters, err := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			DataArgument: resolved,
		},
		"required": []string{DataArgument},
	})
	if err != nil {
		return providers.ToolFunction{}, fmt.Errorf("%w: %v", ErrSchemaTranslation, err)
	}

	return providers.ToolFunction{
		Name:        name,
		Description: description,
		Parameters:  parameters,
	}, nil
}

// sanitizeFunctionName reduces a schema title to a valid function-name token
// (alphanumeric and underscore). Whitespace and dashes become underscores,
// anything else is dropped.
func sanitizeFunctionName(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '\t':
			b.WriteRune('_')
		}
	}
	return b.String()
}

// resolveRefs walks the schema and replaces local $ref nodes with the
// subschema they point to. active tracks refs on the current resolution path
// so cycles fail instead of recursing forever. Non-local refs are left alone.
func resolveRefs(node, root any, active map[string]bool) (any, error) {
	switch n := node.(type) {
	case map[string]any:
		if ref, ok := n["$ref"].(string); ok && strings.HasPrefix(ref, "#") {
			if active[ref] {
				return nil, fmt.Errorf("%w: cyclic $ref %q", ErrSchemaTranslation, ref)
			}
			target, err := resolvePointer(root, ref)
			if err != nil {
				return nil, err
			}
			active[ref] = true
			resolved, err := resolveRefs(target, root, active)
			delete(active, ref)
			return resolved, err
		}

		out := make(map[string]any, len(n))
		for k, v := range n {
			resolved, err := resolveRefs(v, root, active)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			resolved, err := resolveRefs(v, root, active)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return node, nil
	}
}

// resolvePointer evaluates a local JSON pointer ("#/$defs/Person") against
// the schema root.
func resolvePointer(root any, ref string) (any, error) {
	pointer := strings.TrimPrefix(ref, "#")
	if pointer == "" {
		return root, nil
	}

	current := root
	for _, token := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		token = strings.ReplaceAll(token, "~1", "/")
		token = strings.ReplaceAll(token, "~0", "~")

		m, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: unresolvable $ref %q", ErrSchemaTranslation, ref)
		}
		current, ok = m[token]
		if !ok {
			return nil, fmt.Errorf("%w: unresolvable $ref %q", ErrSchemaTranslation, ref)
		}
	}
	return current, nil
}
