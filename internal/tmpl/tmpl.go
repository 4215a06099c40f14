// Package tmpl renders job-configuration templates and command argument
// vectors by substituting {{name}} placeholders. The syntax deliberately
// avoids HCL's ${} interpolation so placeholders survive the bench file
// unescaped.
package tmpl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vk/proofgridgo/internal/apperrors"
)

// placeholderPattern matches any {{name}} token left after substitution.
var placeholderPattern = regexp.MustCompile(`\{\{[A-Za-z0-9_]+\}\}`)

// Render replaces every occurrence of each placeholder in text. A
// placeholder remaining after substitution means the template references
// a name the caller never supplied, which is reported as a template error
// rather than silently passed through to the external engine.
func Render(unit, text string, subs map[string]string) (string, error) {
	out := text
	for name, value := range subs {
		out = strings.ReplaceAll(out, "{{"+name+"}}", value)
	}
	if leftover := placeholderPattern.FindString(out); leftover != "" {
		return "", apperrors.Template(unit, fmt.Sprintf("unresolved placeholder %s", leftover))
	}
	return out, nil
}

// RenderArgs renders each element of an argument vector.
func RenderArgs(unit string, args []string, subs map[string]string) ([]string, error) {
	out := make([]string, len(args))
	for i, arg := range args {
		rendered, err := Render(unit, arg, subs)
		if err != nil {
			return nil, err
		}
		out[i] = rendered
	}
	return out, nil
}
