package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/ritzau/graphcompare/pkg/analysis"
	"github.com/ritzau/graphcompare/pkg/compare"
	"github.com/ritzau/graphcompare/pkg/flows"
)

// Options controls the text report
type Options struct {
	// Verbose adds isomorphism, root and unmatched-flow details
	Verbose bool
	// NoColor disables ANSI colors regardless of the terminal
	NoColor bool
	// Errors receives the error of a single failed comparison so the
	// report stream only carries results. Nil writes it to the report.
	Errors io.Writer
}

// Write renders report in the given format: "text", "json" or "yaml"
func Write(w io.Writer, format string, report *analysis.Report, opts Options) error {
	switch format {
	case "", "text":
		return PrintText(w, report, opts)
	case "json":
		return WriteJSON(w, NewDocument(report))
	case "yaml":
		return WriteYAML(w, NewDocument(report))
	}
	return fmt.Errorf("unknown output format %q", format)
}

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json report: %w", err)
	}
	return nil
}

// WriteYAML writes v as YAML
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml report: %w", err)
	}
	return enc.Close()
}

type palette struct {
	bold, red, green, yellow, cyan *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		bold:   color.New(color.Bold),
		red:    color.New(color.FgRed),
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		cyan:   color.New(color.FgCyan),
	}
	if noColor {
		for _, c := range []*color.Color{p.bold, p.red, p.green, p.yellow, p.cyan} {
			c.DisableColor()
		}
	}
	return p
}

// PrintText prints a human-readable report. A report holding a single
// pair is printed as one comparison, anything else as a batch listing.
func PrintText(w io.Writer, report *analysis.Report, opts Options) error {
	p := newPalette(opts.NoColor)
	tw := &errWriter{w: w}

	if len(report.Outcomes) == 1 && len(report.OnlyA) == 0 && len(report.OnlyB) == 0 {
		o := report.Outcomes[0]
		if o.Err != nil {
			errOut := opts.Errors
			if errOut == nil {
				errOut = tw
			}
			p.red.Fprintf(errOut, "Error: %v\n", o.Err)
			return tw.err
		}
		printOutcome(tw, p, o, opts.Verbose)
		return tw.err
	}

	for _, o := range report.Outcomes {
		switch {
		case o.Err != nil:
			p.red.Fprintf(tw, "✗ %s: %v\n", o.Pair.Name, o.Err)
		case o.Equal():
			p.green.Fprintf(tw, "✓ %s\n", o.Pair.Name)
		default:
			p.yellow.Fprintf(tw, "≠ %s\n", o.Pair.Name)
		}
		if opts.Verbose && o.Err == nil && !o.Equal() {
			printDetails(tw, p, o.Result, "    ")
		}
	}
	for _, name := range report.OnlyA {
		p.yellow.Fprintf(tw, "≠ %s: only in A\n", name)
	}
	for _, name := range report.OnlyB {
		p.yellow.Fprintf(tw, "≠ %s: only in B\n", name)
	}

	s := report.Summary()
	summary := p.green
	if s.Different > 0 {
		summary = p.yellow
	}
	if s.Failed > 0 {
		summary = p.red
	}
	fmt.Fprintln(tw)
	summary.Fprintf(tw, "Summary: %d equal, %d different, %d failed\n", s.Equal, s.Different, s.Failed)
	return tw.err
}

func printOutcome(w io.Writer, p palette, o *analysis.Outcome, verbose bool) {
	fmt.Fprint(w, "Test for equality: ")
	if o.Equal() {
		p.green.Fprintln(w, "Graphs are equal")
	} else {
		p.red.Fprintln(w, "Graphs are not equal")
	}

	if verbose {
		printDetails(w, p, o.Result, "")
	}
}

func printDetails(w io.Writer, p palette, r *compare.Result, indent string) {
	if !r.Isomorphic {
		p.yellow.Fprintf(w, "%sGraphs are not isomorph!\n", indent)
	}
	if !r.Extracted {
		return
	}

	p.cyan.Fprintf(w, "%sLocal roots: %s (A), %s (B)\n", indent, r.RootA, r.RootB)
	fmt.Fprintf(w, "%sFlows: %d in A, %d in B\n", indent, r.FlowsA.Len(), r.FlowsB.Len())
	printUnmatched(w, p, compare.SideA, r.UnmatchedA, indent)
	printUnmatched(w, p, compare.SideB, r.UnmatchedB, indent)
}

func printUnmatched(w io.Writer, p palette, side compare.Side, set *flows.Set, indent string) {
	if set.Empty() {
		return
	}
	p.bold.Fprintf(w, "%sUnmatched flows in %s: %d\n", indent, side, set.Len())
	for _, rec := range set.Records() {
		fmt.Fprintf(w, "%s  [%s]\n", indent, side)
		for _, f := range rec.Fields() {
			fmt.Fprintf(w, "%s    %s: %s\n", indent, f.Name, f.Value)
		}
	}
}

// errWriter remembers the first write error so printing code can stay linear
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(b []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(b)
	e.err = err
	return n, err
}
