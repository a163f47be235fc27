package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSONMode controls whether output is JSON or human-readable
var JSONMode bool

// Stdout and Stderr are where output goes; tests swap them.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// Result represents a generic result for JSON output
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Print outputs data. In JSON mode, marshals a Result envelope. Otherwise calls the textFn.
func Print(data any, textFn func()) {
	if JSONMode {
		writeJSON(Result{Success: true, Data: data})
		return
	}
	textFn()
}

// PrintDocument writes data as bare indented JSON, without the envelope.
// Reports use it so their shape stays stable for scripts.
func PrintDocument(data any) {
	writeJSON(data)
}

// PrintError outputs an error and exits with status 1.
func PrintError(err error) {
	if JSONMode {
		writeJSON(Result{Success: false, Error: err.Error()})
		exit(1)
		return
	}
	fmt.Fprintf(Stderr, "Error: %v\n", err)
	exit(1)
}

func writeJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(Stderr, "Error: encode output: %v\n", err)
		exit(1)
		return
	}
	fmt.Fprintln(Stdout, string(out))
}
