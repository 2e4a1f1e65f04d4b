// Package render resolves {FieldName} placeholders in message and subject
// templates against a contact's fields.
package render

import (
	"fmt"
	"regexp"

	"github.com/amatoti/outreach/internal/contacts"
)

// placeholderPattern matches {Identifier} placeholders. Text that does not
// match (stray braces, {123}, empty braces) passes through untouched.
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z][A-Za-z0-9_]*)\}`)

// UnknownPlaceholderError reports a placeholder outside the recognized set.
type UnknownPlaceholderError struct {
	Name string
}

func (e *UnknownPlaceholderError) Error() string {
	return fmt.Sprintf("render: unknown placeholder {%s}", e.Name)
}

// Render substitutes every recognized placeholder occurrence with the
// contact's field value. The recognized set is {AgencyName}, {City} and
// {Website}; Email and Notes are deliberately not substitutable in message
// bodies. Any other placeholder yields an UnknownPlaceholderError. Rendering
// is pure: the same template and contact always produce the same string.
func Render(template string, c contacts.Contact) (string, error) {
	fields := map[string]string{
		"AgencyName": c.AgencyName,
		"City":       c.City,
		"Website":    c.Website,
	}

	var unknown *UnknownPlaceholderError
	out := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := fields[name]
		if !ok {
			if unknown == nil {
				unknown = &UnknownPlaceholderError{Name: name}
			}
			return match
		}
		return value
	})
	if unknown != nil {
		return "", unknown
	}
	return out, nil
}

// Placeholders returns the placeholder names referenced by a template, in
// order of first occurrence. Useful for validating a template before a run.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

// Validate reports whether a template references only recognized
// placeholders, returning the first offending name otherwise.
func Validate(template string) error {
	for _, name := range Placeholders(template) {
		switch name {
		case "AgencyName", "City", "Website":
		default:
			return &UnknownPlaceholderError{Name: name}
		}
	}
	return nil
}

// Preview renders a template against the first contact of a list, used by the
// UI boundary to show the message a recipient would receive.
func Preview(template string, list []contacts.Contact) (string, error) {
	if len(list) == 0 {
		return "", fmt.Errorf("render: no contacts loaded")
	}
	return Render(template, list[0])
}
