package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/avachat/chat-widget/internal/app"
	diaghttp "github.com/avachat/chat-widget/internal/infrastructure/http"
	"github.com/avachat/chat-widget/internal/infrastructure/queue"
	"github.com/avachat/chat-widget/internal/ui"
	"github.com/avachat/chat-widget/pkg/logger"
)

func newChatCmd(rt *runtime) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the chat window",
		Long: `Open the interactive chat window. Type a message to send it, or /help for
the available commands. When METRICS_ADDR is set, health probes and Prometheus
metrics are served there for the lifetime of the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a, err := rt.session(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if rt.cfg.MetricsAddr != "" {
				stop := rt.serveDiagnostics(a)
				defer stop()
			}

			d := queue.NewDispatcher(workers, a.Messages, logger.For("queue"))
			d.Start(ctx)
			defer d.Close()

			repl := &ui.REPL{
				Messages: a.Messages,
				Session:  a.Session,
				Window:   a.Window,
				Queue:    d,
				In:       rt.reader,
				Out:      rt.streams.Out,
				Log:      logger.For("ui"),
			}
			err = repl.Run(ctx)
			if errors.Is(err, ui.ErrSessionEnded) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent backend operations (default 4)")
	return cmd
}

// serveDiagnostics starts the health and metrics listener. The returned func
// shuts it down.
func (rt *runtime) serveDiagnostics(a *app.App) func() {
	e := diaghttp.NewRouter(a.Store(), a.Session)
	log := logger.For("diagnostics")
	go func() {
		if err := e.Start(rt.cfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", rt.cfg.MetricsAddr).Msg("diagnostics server failed")
		}
	}()
	log.Info().Str("addr", rt.cfg.MetricsAddr).Msg("serving health and metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("diagnostics shutdown")
		}
	}
}
