package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/Nour-MZ/Nomada/internal/models"
)

// Version is bumped whenever a tool or field changes.
const Version = "2024-11"

type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
	TypeAny     FieldType = "any"
)

// Output tells the orchestration loop how a tool's result is rendered.
type Output int

const (
	// OutputNarrate results are summarized by the decision oracle.
	OutputNarrate Output = iota
	// OutputJSON results are returned verbatim for the caller to render.
	OutputJSON
	// OutputConfirmation results use the deterministic booking template.
	OutputConfirmation
)

// Field is one argument of a tool.
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Default     any
	Description string
}

// Tool is one operation the assistant can invoke.
type Tool struct {
	Name        string
	Description string
	Fields      []Field
	Output      Output
}

// Catalog is the closed set of tools shared by the oracle prompt and the
// dispatcher.
type Catalog struct {
	tools map[string]Tool
	order []string
}

// New builds a catalog from tools, keeping their order for prompts.
func New(tools ...Tool) *Catalog {
	c := &Catalog{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if _, dup := c.tools[t.Name]; !dup {
			c.order = append(c.order, t.Name)
		}
		c.tools[t.Name] = t
	}
	return c
}

// Lookup returns the tool registered under name.
func (c *Catalog) Lookup(name string) (Tool, bool) {
	t, ok := c.tools[name]
	return t, ok
}

// Names lists tool names in registration order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Validate checks args against the tool schema. It applies defaults,
// coerces loosely typed values (numeric strings, whole floats) and drops
// fields the schema does not declare.
func (c *Catalog) Validate(name string, args map[string]any) (map[string]any, error) {
	tool, ok := c.tools[name]
	if !ok {
		return nil, &models.UnknownToolError{Name: name}
	}

	out := make(map[string]any, len(tool.Fields))
	var missing []string
	var invalid []string

	for _, f := range tool.Fields {
		raw, present := args[f.Name]
		if !present || isBlank(raw) {
			if f.Required {
				missing = append(missing, f.Name)
				continue
			}
			if f.Default != nil {
				out[f.Name] = f.Default
			}
			continue
		}
		v, err := coerce(f.Type, raw)
		if err != nil {
			invalid = append(invalid, fmt.Sprintf("%s (%v)", f.Name, err))
			continue
		}
		out[f.Name] = v
	}

	if len(missing) > 0 || len(invalid) > 0 {
		msg := fmt.Sprintf("invalid arguments for %s", name)
		if len(invalid) > 0 {
			msg += ": " + strings.Join(invalid, "; ")
		}
		return nil, &models.ValidationFailure{
			Message:       msg,
			MissingFields: missing,
		}
	}
	return out, nil
}

// Prompt renders the catalog for the decision oracle's system prompt.
func (c *Catalog) Prompt() string {
	var b strings.Builder
	for _, name := range c.order {
		t := c.tools[name]
		fmt.Fprintf(&b, "- %s:\n  description: %s\n  args:\n", t.Name, t.Description)
		if len(t.Fields) == 0 {
			b.WriteString("    (none)\n")
			continue
		}
		for _, f := range t.Fields {
			req := "optional"
			if f.Required {
				req = "required"
			}
			line := fmt.Sprintf("    %s: %s (%s)", f.Name, f.Type, req)
			if f.Default != nil {
				def, _ := json.Marshal(f.Default)
				line += fmt.Sprintf(" default=%s", def)
			}
			if f.Description != "" {
				line += " - " + f.Description
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

// Schema returns a JSON-schema-like description of every tool, used by the
// REST façade to document the catalog.
func (c *Catalog) Schema() map[string]any {
	out := make(map[string]any, len(c.tools))
	for _, name := range c.order {
		t := c.tools[name]
		props := make(map[string]any, len(t.Fields))
		for _, f := range t.Fields {
			p := map[string]any{"type": string(f.Type), "required": f.Required}
			if f.Default != nil {
				p["default"] = f.Default
			}
			if f.Description != "" {
				p["description"] = f.Description
			}
			props[f.Name] = p
		}
		required := lo.FilterMap(t.Fields, func(f Field, _ int) (string, bool) {
			return f.Name, f.Required
		})
		sort.Strings(required)
		out[name] = map[string]any{
			"description": t.Description,
			"args":        props,
			"required":    required,
		}
	}
	return map[string]any{"version": Version, "tools": out}
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func coerce(t FieldType, v any) (any, error) {
	switch t {
	case TypeAny:
		return v, nil
	case TypeString:
		switch x := v.(type) {
		case string:
			return strings.TrimSpace(x), nil
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64), nil
		case int:
			return strconv.Itoa(x), nil
		case bool:
			return strconv.FormatBool(x), nil
		}
	case TypeInteger:
		switch x := v.(type) {
		case int:
			return x, nil
		case int64:
			return int(x), nil
		case float64:
			if x == math.Trunc(x) {
				return int(x), nil
			}
		case json.Number:
			if n, err := x.Int64(); err == nil {
				return int(n), nil
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
				return n, nil
			}
		}
	case TypeNumber:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case json.Number:
			if f, err := x.Float64(); err == nil {
				return f, nil
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return f, nil
			}
		}
	case TypeBoolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
				return b, nil
			}
		}
	case TypeArray:
		switch x := v.(type) {
		case []any:
			return x, nil
		case []string:
			return lo.Map(x, func(s string, _ int) any { return s }), nil
		case []map[string]any:
			return lo.Map(x, func(m map[string]any, _ int) any { return m }), nil
		case string:
			// "museums, food" is read as a list of two items.
			parts := lo.FilterMap(strings.Split(x, ","), func(p string, _ int) (any, bool) {
				p = strings.TrimSpace(p)
				return p, p != ""
			})
			if len(parts) > 0 {
				return parts, nil
			}
		}
	case TypeObject:
		if m, ok := v.(map[string]any); ok {
			return m, nil
		}
	}
	return nil, fmt.Errorf("expected %s, got %T", t, v)
}
