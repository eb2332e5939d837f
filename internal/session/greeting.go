package session

import (
	"fmt"
	"log/slog"
	"strings"
)

// DefaultGreetingTemplate is used when the caller does not supply one.
const DefaultGreetingTemplate = "Hi, {user_name}!"

const userNameField = "user_name"

// GreetingTemplate is a parsed brace template. "{user_name}" is the only
// field; "{{" and "}}" are literal braces.
type GreetingTemplate struct {
	parts []greetingPart
}

type greetingPart struct {
	literal string
	field   bool
}

// ParseGreeting parses tpl. Unbalanced braces and fields other than
// user_name are errors.
func ParseGreeting(tpl string) (*GreetingTemplate, error) {
	var (
		parts []greetingPart
		lit   strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, greetingPart{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(tpl); i++ {
		switch c := tpl[i]; c {
		case '{':
			if i+1 < len(tpl) && tpl[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tpl[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unclosed '{' at position %d", i)
			}
			name := tpl[i+1 : i+1+end]
			if strings.ContainsRune(name, '{') {
				return nil, fmt.Errorf("unexpected '{' in field name at position %d", i)
			}
			if name != userNameField {
				if name == "" {
					return nil, fmt.Errorf("positional field at position %d is not supported, use {%s}", i, userNameField)
				}
				return nil, fmt.Errorf("unknown field %q, only {%s} is available", name, userNameField)
			}
			flush()
			parts = append(parts, greetingPart{field: true})
			i += end + 1
		case '}':
			if i+1 < len(tpl) && tpl[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, fmt.Errorf("single '}' encountered at position %d", i)
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return &GreetingTemplate{parts: parts}, nil
}

// Render substitutes userName into the template.
func (g *GreetingTemplate) Render(userName string) string {
	var b strings.Builder
	for _, p := range g.parts {
		if p.field {
			b.WriteString(userName)
		} else {
			b.WriteString(p.literal)
		}
	}
	return b.String()
}

// defaultGreeting is the fallback greeting when a template cannot be used.
func defaultGreeting(userName string) string {
	return "Hi, " + userName + "!"
}

// RenderGreeting renders tpl (or the default template when tpl is nil) for
// userName. A template that fails to parse falls back to the default text.
func RenderGreeting(tpl *string, userName string) string {
	source := DefaultGreetingTemplate
	if tpl != nil && *tpl != "" {
		source = *tpl
	}
	g, err := ParseGreeting(source)
	if err != nil {
		slog.Warn("Greeting template unusable, using default", "error", err)
		return defaultGreeting(userName)
	}
	return g.Render(userName)
}
