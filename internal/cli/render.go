package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Renderer writes colored status lines to the terminal. Colors and the
// inline progress line are disabled when the destination is not a TTY, so
// piped output stays clean.
type Renderer struct {
	out      io.Writer
	profile  termenv.Profile
	tty      bool
	progress bool
}

// NewRenderer builds a renderer for w. TTY detection only works for real
// files; any other writer is treated as non-interactive.
func NewRenderer(w io.Writer) *Renderer {
	r := &Renderer{out: w, profile: termenv.Ascii}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.tty = true
		r.profile = termenv.NewOutput(f).ColorProfile()
	}
	return r
}

func NewStderrRenderer() *Renderer {
	return NewRenderer(os.Stderr)
}

func (r *Renderer) paint(s, color string) string {
	if !r.tty {
		return s
	}
	return termenv.String(s).Foreground(r.profile.Color(color)).String()
}

func (r *Renderer) line(prefix, color, format string, args ...any) {
	r.endProgress()
	fmt.Fprintf(r.out, "%s %s\n", r.paint(prefix, color), fmt.Sprintf(format, args...))
}

func (r *Renderer) Infof(format string, args ...any) {
	r.line("➜", "#61afef", format, args...)
}

func (r *Renderer) Successf(format string, args ...any) {
	r.line("✔", "#98c379", format, args...)
}

func (r *Renderer) Warnf(format string, args ...any) {
	r.line("⚠", "#e5c07b", format, args...)
}

func (r *Renderer) Errorf(format string, args ...any) {
	r.line("✖", "#e06c75", format, args...)
}

// Progress redraws an inline counter like "item 3/120 (sword)". On a
// non-TTY destination it is a no-op; per-record lines would drown the log.
func (r *Renderer) Progress(label string, index, total int, current string) {
	if !r.tty {
		return
	}
	r.progress = true
	fmt.Fprintf(r.out, "\r\033[K%s %s %d/%d (%s)",
		r.paint("…", "#61afef"), label, index, total, current)
}

// endProgress terminates an in-flight progress line before a regular line.
func (r *Renderer) endProgress() {
	if r.progress {
		fmt.Fprint(r.out, "\r\033[K")
		r.progress = false
	}
}

// Done clears any leftover progress output.
func (r *Renderer) Done() {
	r.endProgress()
}
