package cli

import (
	"fmt"
	"os"

	"github.com/funvibe/tapec/internal/prettyprinter"
)

// handleFormat handles `tapec fmt <file>...`: prints the canonical layout,
// or rewrites the files in place with -w.
func (e *env) handleFormat() bool {
	if len(e.args) < 1 || e.args[0] != "fmt" {
		return false
	}

	f, positional, err := parseFlags(e.args[1:], flagSpec{"w": false, "write": false, "width": true})
	if err != nil {
		e.usageError("%s", err)
		return true
	}
	if len(positional) == 0 {
		e.usageError("usage: tapec fmt [-w] [--width n] <file>...")
		return true
	}
	width, err := f.intOr("width", 80)
	if err == nil && width < 0 {
		err = fmt.Errorf("--width must not be negative, got %d", width)
	}
	if err != nil {
		e.usageError("%s", err)
		return true
	}
	write := f.bool("w") || f.bool("write")

	printer := prettyprinter.NewCodePrinterWithWidth(width)
	for _, path := range positional {
		data, err := os.ReadFile(path)
		if err != nil {
			e.fail(exitError, "%s", err)
			return true
		}
		formatted := printer.Format(string(data))
		if !write {
			fmt.Fprint(e.stdout, formatted)
			continue
		}
		if formatted == string(data) {
			continue
		}
		if err := os.WriteFile(path, []byte(formatted), 0644); err != nil {
			e.fail(exitError, "%s", err)
			return true
		}
		fmt.Fprintf(e.stdout, "Formatted %s\n", path)
	}
	return true
}
