package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/avachat/chat-widget/internal/core/domain"
	"github.com/avachat/chat-widget/internal/core/ports"
	"github.com/avachat/chat-widget/internal/core/service"
	"github.com/avachat/chat-widget/internal/infrastructure/queue"
)

// ErrSessionEnded is returned by Run when the user logged out or the backend
// rejected the token.
var ErrSessionEnded = errors.New("session ended")

// MessageList is the read side of the message synchronizer.
type MessageList interface {
	Entries() []domain.Entry
	Err() (string, bool)
	Loading() bool
	DismissError()
	Subscribe(fn func([]domain.Entry)) func()
}

// Dispatcher queues synchronizer operations.
type Dispatcher interface {
	Enqueue(op queue.Operation) error
	Wait()
}

// REPL is the interactive chat loop.
type REPL struct {
	Messages MessageList
	Session  ports.SessionGate
	Window   *service.ChatWindow
	Queue    Dispatcher
	In       io.Reader
	Out      io.Writer
	Log      zerolog.Logger

	renderer Renderer
	mu       sync.Mutex
}

// Run reads commands until EOF, /quit, /logout or session expiry.
func (r *REPL) Run(ctx context.Context) error {
	ended := make(chan struct{})
	var once sync.Once
	unsubSession := r.Session.Subscribe(func(st domain.SessionState) {
		if !st.Authenticated && !st.Loading {
			once.Do(func() { close(ended) })
		}
	})
	defer unsubSession()
	unsubList := r.Messages.Subscribe(func([]domain.Entry) { r.render() })
	defer unsubList()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r.In)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ended:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	r.render()
	for {
		// A logout handled on the previous line wins over input already read.
		select {
		case <-ended:
			return r.stop(ended, nil)
		default:
		}

		select {
		case <-ctx.Done():
			return r.stop(ended, ctx.Err())
		case <-ended:
			return r.stop(ended, nil)
		case line, ok := <-lines:
			if !ok {
				return r.stop(ended, nil)
			}
			quit, err := r.handle(ctx, line)
			if err != nil {
				r.print(err.Error())
			}
			if quit {
				return r.stop(ended, nil)
			}
		}
	}
}

// stop drains the queue. An operation still in flight may end the session, in
// which case ErrSessionEnded replaces err.
func (r *REPL) stop(ended <-chan struct{}, err error) error {
	r.Queue.Wait()
	select {
	case <-ended:
		r.print("Signed out. Run `chatwidget signin` to continue.")
		return ErrSessionEnded
	default:
		return err
	}
}

// handle executes one line and reports whether the loop should stop.
func (r *REPL) handle(ctx context.Context, line string) (bool, error) {
	cmd, err := ParseCommand(line)
	if err != nil {
		return false, err
	}

	switch cmd.Action {
	case ActNone:
		return false, nil
	case ActSend:
		return false, r.Queue.Enqueue(queue.Operation{Kind: queue.KindSend, Content: cmd.Text})
	case ActEdit:
		return false, r.Queue.Enqueue(queue.Operation{Kind: queue.KindEdit, ID: cmd.ID, Content: cmd.Text, Done: r.report})
	case ActDelete:
		return false, r.Queue.Enqueue(queue.Operation{Kind: queue.KindDelete, ID: cmd.ID, Done: r.report})
	case ActReload:
		return false, r.Queue.Enqueue(queue.Operation{Kind: queue.KindLoad})
	case ActToggle:
		r.Window.ToggleOpen()
	case ActExpand:
		r.Window.ToggleExpanded()
	case ActDismiss:
		r.Messages.DismissError()
	case ActLogout:
		r.Session.Logout(ctx)
		return false, nil
	case ActQuit:
		return true, nil
	case ActHelp:
		r.print(HelpText)
		return false, nil
	}
	r.render()
	return false, nil
}

// report surfaces the local guards that never reach the error slot.
func (r *REPL) report(err error) {
	switch {
	case errors.Is(err, domain.ErrMessageNotFound):
		r.print("No message with that id.")
	case errors.Is(err, domain.ErrMessageDeleted):
		r.print("That message was deleted.")
	}
}

func (r *REPL) render() {
	errText, _ := r.Messages.Err()
	v := View{
		Window:  r.Window.State(),
		Entries: r.Messages.Entries(),
		Err:     errText,
		Loading: r.Messages.Loading(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.renderer.Render(r.Out, v); err != nil {
		r.Log.Warn().Err(err).Msg("render failed")
	}
}

func (r *REPL) print(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.Out, msg)
}
