package errors

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
)

// detailWidth is the column at which Detail text wraps.
const detailWidth = 70

// plain is set when terminal colors are off. NO_COLOR turns them off at
// startup.
var plain atomic.Bool

func init() {
	plain.Store(os.Getenv("NO_COLOR") != "")
}

// DisableColors turns off ANSI styling in Format.
func DisableColors() { plain.Store(true) }

// EnableColors turns ANSI styling back on.
func EnableColors() { plain.Store(false) }

// style wraps text in the given SGR parameters.
func style(text string, sgr ...string) string {
	if plain.Load() || len(sgr) == 0 {
		return text
	}
	return "\033[" + strings.Join(sgr, ";") + "m" + text + "\033[0m"
}

const (
	sgrBold = "1"
	sgrRed  = "31"
	sgrBlue = "34"
	sgrCyan = "36"
	sgrGray = "90"
)

// Format renders the error as a multi-line block for a terminal.
func (e *BridgeError) Format() string {
	var b strings.Builder

	title := "ERROR: "
	if e.Code != "" {
		title = "ERROR " + e.Code + ": "
	}
	fmt.Fprintf(&b, "\n%s%s\n\n", style(title, sgrBold, sgrRed), e.Message)

	if e.Index >= 0 {
		fmt.Fprintf(&b, "  %s\n\n", style(fmt.Sprintf("record #%d", e.Index), sgrCyan))
	}
	if lines := wrapText(e.Detail, detailWidth); len(lines) > 0 {
		for _, line := range lines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteByte('\n')
	}

	field := func(label, value string, sgr string) {
		if value != "" {
			fmt.Fprintf(&b, "  %s%s\n\n", style(label, sgr), value)
		}
	}
	if e.Wrapped != nil {
		field("Cause: ", e.Wrapped.Error(), sgrGray)
	}
	field("Hint: ", e.Suggestion, sgrCyan)
	if e.DocURL != "" {
		fmt.Fprintf(&b, "  %s%s\n", style("Learn more: ", sgrGray), style(e.DocURL, sgrBlue))
	}
	return b.String()
}

// FormatCompact renders the error on one line, for logs and error frames.
func (e *BridgeError) FormatCompact() string {
	parts := make([]string, 0, 3)
	head := e.Message
	if e.Code != "" {
		head = e.Code + ": " + head
	}
	if e.Index >= 0 {
		head += fmt.Sprintf(" (record #%d)", e.Index)
	}
	parts = append(parts, head)
	if e.Wrapped != nil {
		parts = append(parts, e.Wrapped.Error())
	}
	return strings.Join(parts, ": ")
}

// wrapText splits text into lines of at most width bytes, breaking between
// words. A single word longer than width gets a line of its own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	lines := []string{words[0]}
	for _, w := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(w) > width {
			lines = append(lines, w)
			continue
		}
		*last += " " + w
	}
	return lines
}
