// Package output renders the toolkit's reports for humans and, in JSON
// mode, for agents and scripts.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Verbosity selects how much a report shows.
type Verbosity int

const (
	// VerbosityQuiet is a one-line summary per report.
	VerbosityQuiet Verbosity = iota
	// VerbosityStandard is the default human-readable report.
	VerbosityStandard
	// VerbosityJSON emits the report as machine-readable JSON.
	VerbosityJSON
)

// DefaultVerbosity picks a default for the current environment.
func DefaultVerbosity() Verbosity {
	if os.Getenv("REFINE_JSON") == "1" {
		return VerbosityJSON
	}
	if os.Getenv("CI") == "true" {
		return VerbosityStandard
	}
	return VerbosityStandard
}

// Report is anything the CLI can render at multiple verbosities. JSON mode
// marshals the report itself, so exported fields define the machine format.
type Report interface {
	renderQuiet(w io.Writer)
	renderStandard(w io.Writer)
}

// Render writes the report at the given verbosity.
func Render(w io.Writer, v Verbosity, r Report) error {
	switch v {
	case VerbosityQuiet:
		r.renderQuiet(w)
	case VerbosityJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	default:
		r.renderStandard(w)
	}
	return nil
}

// Shared color accents. color.Output handles NO_COLOR and non-TTY streams.
var (
	header  = color.New(color.FgCyan, color.Bold).SprintFunc()
	good    = color.New(color.FgGreen).SprintFunc()
	warn    = color.New(color.FgYellow).SprintFunc()
	bad     = color.New(color.FgRed).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
	keytext = color.New(color.Bold).SprintFunc()
)

func scoreColor(pct int) func(a ...interface{}) string {
	switch {
	case pct >= 90:
		return good
	case pct >= 50:
		return warn
	default:
		return bad
	}
}

func rule(w io.Writer) {
	fmt.Fprintln(w, faint("────────────────────────────────────────────────────────────"))
}
