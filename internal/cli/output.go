// Package cli provides the command-line interface for the pattern engine.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"pattern-engine/internal/analysis/patterns"
)

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates a new Output instance.
// Colour follows fatih/color's terminal detection and the ui.color_enabled setting.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{
		writer:       cmd.OutOrStdout(),
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && !color.NoColor,
	}
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.line(color.FgGreen, format, args...)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.line(color.FgRed, format, args...)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.line(color.FgYellow, format, args...)
}

// Info prints an info message in cyan.
func (o *Output) Info(format string, args ...interface{}) {
	o.line(color.FgCyan, format, args...)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.line(color.Bold, format, args...)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.line(color.Faint, format, args...)
}

func (o *Output) line(attr color.Attribute, format string, args ...interface{}) {
	fmt.Fprintln(o.writer, o.paint(attr, fmt.Sprintf(format, args...)))
}

// paint colours text when colour output is on.
func (o *Output) paint(attr color.Attribute, s string) string {
	if !o.colorEnabled {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}

// Green returns green colored text.
func (o *Output) Green(s string) string { return o.paint(color.FgGreen, s) }

// Red returns red colored text.
func (o *Output) Red(s string) string { return o.paint(color.FgRed, s) }

// Yellow returns yellow colored text.
func (o *Output) Yellow(s string) string { return o.paint(color.FgYellow, s) }

// Cyan returns cyan colored text.
func (o *Output) Cyan(s string) string { return o.paint(color.FgCyan, s) }

// DimText returns dimmed text.
func (o *Output) DimText(s string) string { return o.paint(color.Faint, s) }

// Direction renders a bullish/bearish flag.
func (o *Output) Direction(bullish bool) string {
	if bullish {
		return o.Green("bullish")
	}
	return o.Red("bearish")
}

// SignalText renders an overall signal in its colour.
func (o *Output) SignalText(signal patterns.Signal) string {
	switch signal {
	case patterns.SignalBullish:
		return o.Green(string(signal))
	case patterns.SignalBearish:
		return o.Red(string(signal))
	default:
		return o.Yellow(string(signal))
	}
}

// ConfidenceText renders a confidence score with its level.
func (o *Output) ConfidenceText(score float64) string {
	level := patterns.ConfidenceLevelOf(score)
	s := fmt.Sprintf("%s (%s)", FormatConfidence(score), level)
	switch level {
	case patterns.ConfidenceVeryHigh, patterns.ConfidenceHigh:
		return o.Green(s)
	case patterns.ConfidenceMedium:
		return o.Yellow(s)
	default:
		return s
	}
}

// NewTable creates a table writer that renders to the output.
func (o *Output) NewTable(headers ...interface{}) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(o.writer)

	style := table.StyleRounded
	if o.colorEnabled {
		style.Color.Header = text.Colors{text.Bold, text.FgHiCyan}
	}
	t.SetStyle(style)

	t.AppendHeader(table.Row(headers))
	return t
}
