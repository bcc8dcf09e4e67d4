// Package output provides structured output and error handling for the
// mdtmpl CLI. Commands print either human-readable text (lipgloss-styled
// when attached to a TTY) or JSON when the --json flag is set.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer handles formatted output to a writer in JSON or human mode.
type Printer struct {
	w      io.Writer
	errW   io.Writer
	json   bool
	isTTY  bool
	styles *Styles
}

// Styles holds the lipgloss styles for human-readable output.
type Styles struct {
	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Bold    lipgloss.Style
	Dim     lipgloss.Style
	Title   lipgloss.Style
	Key     lipgloss.Style
}

// NewPrinter creates a Printer. JSON mode emits structured output;
// colors are enabled only for TTY output.
func NewPrinter(writer io.Writer, jsonMode, isTTY bool) *Printer {
	styles := &Styles{
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Bold:    lipgloss.NewStyle().Bold(true),
		Dim:     lipgloss.NewStyle().Faint(true),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Key:     lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	}
	if !isTTY {
		*styles = Styles{}
	}

	return &Printer{
		w:      writer,
		errW:   writer,
		json:   jsonMode,
		isTTY:  isTTY,
		styles: styles,
	}
}

// WithStderr sets a separate writer for errors and warnings in human
// mode. JSON errors still go to the main writer.
func (p *Printer) WithStderr(w io.Writer) *Printer {
	p.errW = w
	return p
}

// IsJSON reports whether the printer is in JSON mode.
func (p *Printer) IsJSON() bool {
	return p.json
}

// IsTTY reports whether the printer output is a terminal.
func (p *Printer) IsTTY() bool {
	return p.isTTY
}

// Success outputs a success result: the data as JSON in JSON mode, the
// "message" key (or key/value lines) in human mode.
func (p *Printer) Success(data map[string]any) error {
	if p.json {
		return p.writeJSON(data)
	}

	if msg, ok := data["message"].(string); ok {
		mustWrite(fmt.Fprintln(p.w, p.styles.Success.Render(msg)))
		return nil
	}
	for key, val := range data {
		mustWrite(fmt.Fprintf(p.w, "%s: %v\n", p.styles.Bold.Render(key), val))
	}
	return nil
}

// Error outputs an error: {"error": "...", "code": N} in JSON mode, a
// styled message on the error writer in human mode.
func (p *Printer) Error(err error) {
	exitErr := &ExitError{}
	if !errors.As(err, &exitErr) {
		exitErr = &ExitError{Code: ExitUserError, Message: err.Error()}
	}

	if p.json {
		mustWrite(p.w.Write(ErrorJSON(exitErr.Message, exitErr.Code)))
		mustWrite(fmt.Fprintln(p.w))
		return
	}
	mustWrite(fmt.Fprintf(p.errW, "%s: %s\n", p.styles.Error.Render("Error"), exitErr.Message))
}

// Warn outputs a warning message.
func (p *Printer) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.json {
		_ = p.writeJSON(map[string]any{"warning": msg})
		return
	}
	mustWrite(fmt.Fprintf(p.errW, "%s: %s\n", p.styles.Warning.Render("Warning"), msg))
}

// Print formats and writes to the output without a newline.
func (p *Printer) Print(format string, args ...any) {
	mustWrite(fmt.Fprintf(p.w, format, args...))
}

// Println writes a line to the output.
func (p *Printer) Println(args ...any) {
	mustWrite(fmt.Fprintln(p.w, args...))
}

// Section renders an underlined section header preceded by a blank line.
func (p *Printer) Section(title string) {
	mustWrite(fmt.Fprintln(p.w))
	mustWrite(fmt.Fprintln(p.w, p.styles.Title.Render(title)))
	mustWrite(fmt.Fprintln(p.w, p.styles.Dim.Render(strings.Repeat("─", len(title)))))
}

// KeyValue renders a "Key: Value" line with styles applied.
func (p *Printer) KeyValue(key, value string) {
	mustWrite(fmt.Fprintf(p.w, "%s %s\n", p.styles.Key.Render(key+":"), value))
}

// WriteJSON encodes any value as indented JSON and writes it. Use for
// structs and slices that aren't maps.
func (p *Printer) WriteJSON(data any) error {
	return p.writeJSON(data)
}

func (p *Printer) writeJSON(data any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ErrorJSON returns JSON-formatted error bytes: {"error": "...", "code": N}.
func ErrorJSON(message string, code int) []byte {
	result, _ := json.Marshal(map[string]any{
		"error": message,
		"code":  code,
	})
	return result
}

// IsTTY checks whether a writer is a terminal.
func IsTTY(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// mustWrite panics if a write to stdout/stderr or a buffer fails.
func mustWrite(_ int, err error) {
	if err != nil {
		panic(fmt.Sprintf("write failed: %v", err))
	}
}
