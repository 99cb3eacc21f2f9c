package application

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"reddit-mcp-server/internal/domain"
)

// argParser reads tool arguments against the tool's input schema. Omitted
// arguments take the schema default, so the declared and applied defaults
// cannot drift apart. The first validation failure is kept in err.
type argParser struct {
	args   map[string]interface{}
	schema domain.JSONSchema
	err    error
}

func newArgParser(args map[string]interface{}, schema domain.JSONSchema) *argParser {
	if args == nil {
		args = map[string]interface{}{}
	}
	return &argParser{args: args, schema: schema}
}

func (p *argParser) fail(format string, a ...interface{}) {
	if p.err == nil {
		p.err = &domain.Error{
			Code:    domain.InvalidParams,
			Message: fmt.Sprintf(format, a...),
		}
	}
}

func (p *argParser) required(name string) bool {
	for _, r := range p.schema.Required {
		if r == name {
			return true
		}
	}
	return false
}

// lookup returns the raw value, treating null and blank strings as absent.
func (p *argParser) lookup(name string) (interface{}, bool) {
	value, exists := p.args[name]
	if !exists || value == nil {
		return nil, false
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return value, true
}

// String returns a string argument, trimmed.
func (p *argParser) String(name string) string {
	value, ok := p.lookup(name)
	if !ok {
		if p.required(name) {
			p.fail("missing required parameter: %s", name)
			return ""
		}
		def, _ := p.schema.Properties[name].Default.(string)
		return def
	}

	s, isString := value.(string)
	if !isString {
		p.fail("parameter %s must be a string", name)
		return ""
	}
	return strings.TrimSpace(s)
}

// Enum returns a string argument restricted to the schema's enum. Values
// outside the enum, including non-strings, fall back to the default instead
// of failing.
func (p *argParser) Enum(name string) string {
	prop := p.schema.Properties[name]
	def, _ := prop.Default.(string)

	raw, ok := p.lookup(name)
	if !ok {
		if p.required(name) {
			p.fail("missing required parameter: %s", name)
		}
		return def
	}

	s, isString := raw.(string)
	if !isString {
		return def
	}
	value := strings.ToLower(strings.TrimSpace(s))
	for _, allowed := range prop.Enum {
		if value == allowed {
			return value
		}
	}
	return def
}

// Int returns an integer argument clamped to the schema's minimum and maximum.
// Numeric strings are accepted.
func (p *argParser) Int(name string) int {
	prop := p.schema.Properties[name]

	var n int
	value, ok := p.lookup(name)
	if !ok {
		if p.required(name) {
			p.fail("missing required parameter: %s", name)
			return 0
		}
		n, _ = prop.Default.(int)
	} else {
		var valid bool
		if n, valid = toInt(value); !valid {
			p.fail("parameter %s must be an integer", name)
			return 0
		}
	}

	if prop.Minimum != nil && n < *prop.Minimum {
		n = *prop.Minimum
	}
	if prop.Maximum != nil && n > *prop.Maximum {
		n = *prop.Maximum
	}
	return n
}

// Bool returns a boolean argument. "true"/"false" strings are accepted.
func (p *argParser) Bool(name string) bool {
	value, ok := p.lookup(name)
	if !ok {
		def, _ := p.schema.Properties[name].Default.(bool)
		return def
	}

	switch v := value.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			p.fail("parameter %s must be a boolean", name)
			return false
		}
		return b
	default:
		p.fail("parameter %s must be a boolean", name)
		return false
	}
}

func toInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		// Converting an out-of-range float to int is implementation-defined
		return int(math.Max(math.MinInt32, math.Min(math.MaxInt32, v))), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}
