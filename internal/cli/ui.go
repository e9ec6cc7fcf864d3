package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleDim is used for secondary text and separators.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue is used for paths and config values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning is used for warnings.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleHit  = lipgloss.NewStyle().Foreground(colorGreen)
	styleMiss = lipgloss.NewStyle().Foreground(colorGray)
	styleKey  = lipgloss.NewStyle().Foreground(colorGray).Width(8)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"

	statusSeparator = " · "
)

// stdout receives every printer's output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// =============================================================================
// Status Lines
// =============================================================================

func printIcon(icon lipgloss.Style, glyph, msg string) {
	fmt.Fprintln(stdout, icon.Render(glyph)+" "+msg)
}

func printSuccess(format string, args ...any) {
	printIcon(styleIconSuccess, iconSuccess, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	printIcon(styleIconError, iconError, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	printIcon(styleIconWarning, iconWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	printIcon(styleIconInfo, iconInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line under the previous message.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile reports an output document written to path.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints one line of the serve banner.
func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep suggests the command to run on the file just written.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(stdout)
}

// =============================================================================
// Run Summary
// =============================================================================

// cacheStep records whether one pipeline stage was served from the cache.
type cacheStep struct {
	name string
	hit  bool
}

func (s cacheStep) String() string {
	if s.hit {
		return styleHit.Render(s.name + " cached")
	}
	return styleMiss.Render(s.name + " fresh")
}

// printStats summarizes a layout or render run: graph size followed by the
// cache outcome of each stage that ran.
func printStats(nodes, edges int, steps ...cacheStep) {
	var parts []string
	if nodes > 0 {
		parts = append(parts, StyleDim.Render(plural(nodes, "node")))
	}
	if edges > 0 {
		parts = append(parts, StyleDim.Render(plural(edges, "edge")))
	}
	for _, s := range steps {
		parts = append(parts, s.String())
	}
	fmt.Fprintln(stdout, "  "+joinStatus(parts...))
}

// joinStatus joins already styled segments with a dimmed separator. The view
// status bar and the run summary share it.
func joinStatus(parts ...string) string {
	return strings.Join(parts, StyleDim.Render(statusSeparator))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
