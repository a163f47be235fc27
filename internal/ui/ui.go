package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Out receives status lines; errors always go to Err.
var (
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

func ShowHeader(title string) {
	fmt.Fprintf(Out, " %s\n", strings.Repeat("─", len([]rune(title))+2))
	fmt.Fprintf(Out, " %s\n", title)
	fmt.Fprintf(Out, " %s\n", strings.Repeat("─", len([]rune(title))+2))
}

func ShowListItem(num int, name, detail string) {
	if detail == "" {
		fmt.Fprintf(Out, "  %d. %s\n", num, name)
		return
	}
	fmt.Fprintf(Out, "  %d. %s (%s)\n", num, name, detail)
}

func ShowSuccess(format string, args ...any) {
	fmt.Fprintf(Out, " ✓ %s\n", fmt.Sprintf(format, args...))
}

func ShowError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(Err, " ✗ %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(Err, " ✗ %s\n", msg)
	}
}

func ShowWarning(format string, args ...any) {
	fmt.Fprintf(Out, " ! %s\n", fmt.Sprintf(format, args...))
}

func ShowInfo(format string, args ...any) {
	fmt.Fprintf(Out, " ℹ %s\n", fmt.Sprintf(format, args...))
}
