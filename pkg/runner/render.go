package runner

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ContentRenderer turns a reply into terminal output.
type ContentRenderer func(string) (string, error)

// NewMarkdownRenderer renders replies as markdown with glamour, picking a
// light or dark style from the terminal background. It returns nil when the
// renderer cannot be built, which leaves replies unformatted.
func NewMarkdownRenderer() ContentRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0),
	)
	if err != nil {
		return nil
	}
	return r.Render
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// PrintBanner writes the colloquy banner, coloured when w supports it.
func PrintBanner(w io.Writer, sessionID string) {
	out := termenv.NewOutput(w)
	colors := []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9"}
	art := []string{
		`            _ _                        `,
		`  ___ ___ | | | ___   __ _ _   _ _   _ `,
		` / __/ _ \| | |/ _ \ / _' | | | | | | |`,
		`| (_| (_) | | | (_) | (_| | |_| | |_| |`,
		` \___\___/|_|_|\___/ \__, |\__,_|\__, |`,
		`                        |_|      |___/ `,
	}

	fmt.Fprintln(w)
	for i, l := range art {
		fmt.Fprintln(w, out.String(l).Foreground(out.Color(colors[i%len(colors)])))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, out.String("session "+sessionID+"  (type quit to leave)").Faint())
	fmt.Fprintln(w)
}
