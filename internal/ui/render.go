// Package ui renders the chat window as plain text and drives it from a
// line-oriented terminal session.
package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/avachat/chat-widget/internal/core/domain"
	"github.com/avachat/chat-widget/internal/core/service"
)

const (
	// Title is the header shown in both window states.
	Title = "Chat with Ava"

	SendingMarker = "… sending"
	botName       = "Ava"

	normalWidth   = 48
	expandedWidth = 80
)

// View is everything the renderer needs for one frame.
type View struct {
	Window  service.WindowState
	Entries []domain.Entry
	Err     string
	Loading bool
}

// Renderer draws a View as a boxed transcript.
type Renderer struct{}

// Render writes v to w.
func (Renderer) Render(w io.Writer, v View) error {
	width := normalWidth
	if v.Window.IsExpanded {
		width = expandedWidth
	}
	b := &frame{width: width}

	b.rule()
	if !v.Window.IsOpen {
		b.line(Title+"  [+]", alignLeft)
		b.rule()
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.line(Title+"  [-] [↕]", alignLeft)
	b.rule()
	switch {
	case v.Loading && len(v.Entries) == 0:
		b.line("Loading…", alignCenter)
	case len(v.Entries) == 0:
		b.line("Say hi to start the conversation.", alignCenter)
	}
	for _, e := range v.Entries {
		renderEntry(b, e)
	}
	if v.Err != "" {
		b.rule()
		b.line("! "+v.Err+"  (/dismiss)", alignLeft)
	}
	b.rule()
	b.WriteString("> ")
	_, err := io.WriteString(w, b.String())
	return err
}

func renderEntry(b *frame, e domain.Entry) {
	switch v := e.(type) {
	case domain.Pending:
		b.wrapped(v.Content, alignRight)
		b.line(SendingMarker, alignRight)
	case domain.Confirmed:
		align := alignLeft
		text := v.DisplayContent()
		if v.Sender == domain.SenderUser {
			align = alignRight
		} else if !v.IsDeleted() {
			text = botName + ": " + text
		}
		b.wrapped(text, align)

		var meta []string
		if v.Modifiable() {
			meta = append(meta, fmt.Sprintf("#%d", v.ID))
		}
		if v.IsEdited() {
			meta = append(meta, "("+domain.EditedMarker+")")
		}
		if len(meta) > 0 {
			b.line(strings.Join(meta, " "), align)
		}
	}
}

// Transcript writes entries one per line without the window frame.
func Transcript(w io.Writer, entries []domain.Entry) error {
	var b strings.Builder
	for _, e := range entries {
		switch v := e.(type) {
		case domain.Pending:
			fmt.Fprintf(&b, "you: %s (%s)\n", v.Content, SendingMarker)
		case domain.Confirmed:
			who := "you"
			if v.Sender != domain.SenderUser {
				who = botName
			}
			if v.Modifiable() {
				fmt.Fprintf(&b, "#%d ", v.ID)
			}
			fmt.Fprintf(&b, "%s: %s", who, v.DisplayContent())
			if v.IsEdited() {
				b.WriteString(" (" + domain.EditedMarker + ")")
			}
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type alignment int

const (
	alignLeft alignment = iota
	alignRight
	alignCenter
)

type frame struct {
	strings.Builder
	width int
}

func (f *frame) inner() int { return f.width - 4 }

func (f *frame) rule() {
	f.WriteString("+" + strings.Repeat("-", f.width-2) + "+\n")
}

func (f *frame) line(text string, a alignment) {
	pad := f.inner() - utf8.RuneCountInString(text)
	if pad < 0 {
		pad = 0
	}
	var left int
	switch a {
	case alignRight:
		left = pad
	case alignCenter:
		left = pad / 2
	}
	f.WriteString("| " + strings.Repeat(" ", left) + text + strings.Repeat(" ", pad-left) + " |\n")
}

// wrapped breaks text on spaces at three quarters of the inner width.
func (f *frame) wrapped(text string, a alignment) {
	limit := f.inner() * 3 / 4
	for _, l := range wrap(text, limit) {
		f.line(l, a)
	}
}

func wrap(text string, limit int) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		cur := ""
		for _, w := range words {
			for utf8.RuneCountInString(w) > limit {
				if cur != "" {
					out = append(out, cur)
					cur = ""
				}
				r := []rune(w)
				out = append(out, string(r[:limit]))
				w = string(r[limit:])
			}
			switch {
			case cur == "":
				cur = w
			case utf8.RuneCountInString(cur)+1+utf8.RuneCountInString(w) <= limit:
				cur += " " + w
			default:
				out = append(out, cur)
				cur = w
			}
		}
		if cur != "" {
			out = append(out, cur)
		}
	}
	return out
}
