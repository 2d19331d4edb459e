package cli

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// NewTable creates a table writer in the house style.
func NewTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	return t
}

// ConnectedMark renders a colored yes/no connection marker.
func ConnectedMark(connected bool) string {
	if connected {
		return text.FgGreen.Sprint("connected")
	}
	return text.FgHiBlack.Sprint("not connected")
}

// ActiveMark renders a colored active/paused marker.
func ActiveMark(active bool) string {
	if active {
		return text.FgGreen.Sprint("active")
	}
	return text.FgYellow.Sprint("paused")
}

// Progress shows a spinner with the given message until the returned
// stop function runs. quiet suppresses it entirely.
func Progress(message string, quiet bool) func() {
	if quiet {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Start()
	return s.Stop
}
