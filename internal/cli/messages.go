package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avachat/chat-widget/internal/app"
	"github.com/avachat/chat-widget/internal/core/domain"
	"github.com/avachat/chat-widget/internal/ui"
)

func newMessagesCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "messages",
		Short: "Print the conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.session(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			// The list is loaded while the session is verified.
			if text, failed := a.Messages.Err(); failed {
				return errors.New(text)
			}
			return ui.Transcript(rt.streams.Out, a.Messages.Entries())
		},
	}
}

func newSendCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "send <text>...",
		Short: "Send a message and print what the backend created",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.session(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.Messages.Send(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return opError(a, err)
			}
			entries := make([]domain.Entry, 0, len(created))
			for _, m := range created {
				entries = append(entries, domain.Confirmed{Message: m})
			}
			return ui.Transcript(rt.streams.Out, entries)
		},
	}
}

func newEditCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text>...",
		Short: "Replace the text of one of your messages",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ui.ParseID(args[0])
			if err != nil {
				return err
			}
			a, err := rt.session(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.Messages.Edit(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return opError(a, err)
			}
			if m == nil {
				return nil
			}
			return ui.Transcript(rt.streams.Out, []domain.Entry{domain.Confirmed{Message: *m}})
		},
	}
}

func newDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ui.ParseID(args[0])
			if err != nil {
				return err
			}
			a, err := rt.session(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.Messages.Delete(cmd.Context(), id); err != nil {
				return opError(a, err)
			}
			rt.printf("Deleted #%d.\n", id)
			return nil
		},
	}
}

// opError turns a synchronizer failure into the message a one-shot command
// prints.
func opError(a *app.App, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return errSessionExpired
	case errors.Is(err, domain.ErrMessageNotFound):
		return errors.New("no message with that id")
	case errors.Is(err, domain.ErrMessageDeleted):
		return errors.New("that message was deleted")
	}
	if text, failed := a.Messages.Err(); failed {
		return fmt.Errorf("%s: %w", text, err)
	}
	return err
}
