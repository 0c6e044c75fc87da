// Package diag is the stand-in diagnostic reporter lang/codegen reports
// compile errors through. spec.md §7 describes error handling as
// "structured diagnostic objects (code, message, location) appended to a
// list, never a panic/fatal exit, with a has_compilation_errors flag set on
// first error"; this package is that object shape plus a Reporter that
// accumulates them, modeled on the teacher's go/scanner.ErrorList aliasing
// pattern (see DESIGN.md) but carrying the extra severity/help/note fields
// spec.md §7 calls for.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mna/orus/lang/token"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Diagnostic is one structured compile diagnostic: a code (e.g. "E2001"),
// severity, source position, message, and optional help/note text.
type Diagnostic struct {
	Code     string
	Severity Severity
	Pos      token.Position
	Message  string
	Help     string
	Note     string
}

func (d *Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s [%s]", d.Severity, d.Message, d.Code)
	if d.Pos.IsValid() {
		fmt.Fprintf(&b, " at %s", d.Pos)
	}
	if d.Help != "" {
		fmt.Fprintf(&b, "\n  help: %s", d.Help)
	}
	if d.Note != "" {
		fmt.Fprintf(&b, "\n  note: %s", d.Note)
	}
	return b.String()
}

// Reporter accumulates Diagnostics emitted during one compilation,
// tracking whether any error-severity diagnostic has been seen so callers
// can cheaply check HasErrors() without rescanning the list (spec.md §7
// has_compilation_errors).
type Reporter struct {
	diags     []*Diagnostic
	hasErrors bool
}

// NewReporter returns an empty Reporter.
func NewReporter() *Reporter { return &Reporter{} }

// Errorf appends an error-severity diagnostic at pos.
func (r *Reporter) Errorf(pos token.Position, code, format string, args ...any) {
	r.add(SeverityError, pos, code, fmt.Sprintf(format, args...))
}

// Warnf appends a warning-severity diagnostic at pos.
func (r *Reporter) Warnf(pos token.Position, code, format string, args ...any) {
	r.add(SeverityWarning, pos, code, fmt.Sprintf(format, args...))
}

func (r *Reporter) add(sev Severity, pos token.Position, code, msg string) {
	d := &Diagnostic{Code: code, Severity: sev, Pos: pos, Message: msg}
	r.diags = append(r.diags, d)
	if sev == SeverityError {
		r.hasErrors = true
	}
}

// WithHelp attaches help text to the most recently added diagnostic. It is
// a no-op if nothing has been reported yet.
func (r *Reporter) WithHelp(help string) {
	if n := len(r.diags); n > 0 {
		r.diags[n-1].Help = help
	}
}

// WithNote attaches note text to the most recently added diagnostic.
func (r *Reporter) WithNote(note string) {
	if n := len(r.diags); n > 0 {
		r.diags[n-1].Note = note
	}
}

// HasErrors reports whether any error-severity diagnostic was reported.
func (r *Reporter) HasErrors() bool { return r.hasErrors }

// Diagnostics returns every diagnostic reported so far, in report order.
func (r *Reporter) Diagnostics() []*Diagnostic { return r.diags }

// Sort orders diagnostics by position, matching scanner.ErrorList.Sort so
// that CLI output reads top-to-bottom through the source file.
func (r *Reporter) Sort() {
	sort.SliceStable(r.diags, func(i, j int) bool {
		a, b := r.diags[i].Pos, r.diags[j].Pos
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Col < b.Col
	})
}

// Err returns a non-nil error when any diagnostic has been reported, in
// the style of scanner.ErrorList.Err.
func (r *Reporter) Err() error {
	if len(r.diags) == 0 {
		return nil
	}
	return (*errList)(r)
}

type errList Reporter

func (el *errList) Error() string {
	switch len(el.diags) {
	case 0:
		return "no diagnostics"
	case 1:
		return el.diags[0].String()
	default:
		return fmt.Sprintf("%s (and %d more diagnostics)", el.diags[0], len(el.diags)-1)
	}
}
