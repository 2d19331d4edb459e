// Package template renders notification frames through user-supplied
// Go templates with the sprig function set, so listen output can be
// shaped without post-processing.
package template

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Formatter renders frames with a parsed template. Construct with New.
type Formatter struct {
	tmpl *template.Template
}

// New parses a notification template. The template executes against the
// decoded frame map; sprig functions are available, so expressions like
// {{ .area_id }} or {{ .status | upper }} work.
func New(text string) (*Formatter, error) {
	tmpl, err := template.New("notification").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=zero").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid notification template: %w", err)
	}
	return &Formatter{tmpl: tmpl}, nil
}

// Render executes the template against one frame.
func (f *Formatter) Render(data map[string]interface{}) (string, error) {
	var sb strings.Builder
	if err := f.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render notification: %w", err)
	}
	// missingkey=zero prints "<no value>" for absent keys; drop it
	return strings.ReplaceAll(sb.String(), "<no value>", ""), nil
}
