// Package badge renders a shields-style SVG documentation coverage badge.
package badge

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// DefaultFilename is used when the output path is a directory or has no extension.
const DefaultFilename = "interrogate_badge.svg"

const label = "docs"

//go:embed template.svg
var svgTemplate string

var tmpl = template.Must(template.New("badge").Parse(svgTemplate))

// colorRanges maps minimum percentages to badge colors, highest first.
var colorRanges = []struct {
	minimum float64
	color   string
}{
	{95, "#4c1"},    // brightgreen
	{90, "#97CA00"}, // green
	{75, "#a4a61d"}, // yellowgreen
	{60, "#dfb317"}, // yellow
	{40, "#fe7d37"}, // orange
	{0, "#e05d44"},  // red
}

// lightgrey is used for values below every range.
const lightgrey = "#9f9f9f"

// Color returns the badge color for a coverage percentage.
func Color(percent float64) string {
	for _, r := range colorRanges {
		if percent >= r.minimum {
			return r.color
		}
	}
	return lightgrey
}

type badgeData struct {
	Label      string
	Value      string
	Color      string
	Width      int
	LabelWidth int
	ValueWidth int
	LabelX     int
	ValueX     int
}

// Render returns the SVG badge for a coverage percentage.
func Render(percent float64) (string, error) {
	value := fmt.Sprintf("%.1f%%", percent)
	labelWidth := textWidth(label)
	valueWidth := textWidth(value)

	data := badgeData{
		Label:      label,
		Value:      value,
		Color:      Color(percent),
		Width:      labelWidth + valueWidth,
		LabelWidth: labelWidth,
		ValueWidth: valueWidth,
		LabelX:     labelWidth * 5,
		ValueX:     labelWidth*10 + valueWidth*5,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render badge: %w", err)
	}
	return buf.String(), nil
}

// textWidth approximates the rendered width of s in the 11px Verdana used by shields.
func textWidth(s string) int {
	return len(s)*7 + 10
}

// Write renders the badge for percent to output and returns the path written.
// A directory or extensionless output gets DefaultFilename appended. The file is
// left untouched when its content already matches.
func Write(output string, percent float64) (string, error) {
	svg, err := Render(percent)
	if err != nil {
		return "", err
	}

	path := output
	if info, err := os.Stat(output); (err == nil && info.IsDir()) || filepath.Ext(output) == "" {
		path = filepath.Join(output, DefaultFilename)
	}

	existing, err := os.ReadFile(path)
	if err == nil && sameContent(string(existing), svg) {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create badge directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
		return "", fmt.Errorf("failed to write badge: %w", err)
	}
	return path, nil
}

// sameContent compares line by line, ignoring trailing whitespace and line endings.
func sameContent(a, b string) bool {
	al := strings.Split(strings.TrimSpace(strings.ReplaceAll(a, "\r\n", "\n")), "\n")
	bl := strings.Split(strings.TrimSpace(strings.ReplaceAll(b, "\r\n", "\n")), "\n")
	if len(al) != len(bl) {
		return false
	}
	for i := range al {
		if strings.TrimRight(al[i], " \t") != strings.TrimRight(bl[i], " \t") {
			return false
		}
	}
	return true
}
