package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// noColor starts from fatih/color's NO_COLOR and terminal detection.
var noColor = color.NoColor

// stderr receives status lines; tests swap it for a buffer.
var stderr io.Writer = os.Stderr

func colorize(attrs []color.Attribute, text string) string {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c.Sprint(text)
}

var (
	styleGreen  = []color.Attribute{color.FgGreen}
	styleRed    = []color.Attribute{color.FgRed}
	styleYellow = []color.Attribute{color.FgYellow}
	styleCyan   = []color.Attribute{color.FgCyan}
	styleBold   = []color.Attribute{color.Bold}
)

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stderr, colorize(styleGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stderr, colorize(styleRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stderr, colorize(styleYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(styleBold, label+":")
	fmt.Fprintf(stderr, "  %s %s\n", l, val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stderr, colorize(styleCyan, "→ "+msg))
}
