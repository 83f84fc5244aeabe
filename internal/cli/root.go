// Package cli is the command-line front end of the chat widget.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/avachat/chat-widget/internal/app"
	"github.com/avachat/chat-widget/internal/core/domain"
	"github.com/avachat/chat-widget/internal/infrastructure/config"
	"github.com/avachat/chat-widget/pkg/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	errNotSignedIn    = errors.New("not signed in; run `chatwidget signin`")
	errSessionExpired = errors.New("session expired; run `chatwidget signin`")
)

// Streams are the standard streams a command talks to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdStreams returns the process streams.
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Option customizes the root command.
type Option func(*runtime)

// WithEnv replaces the process environment as a configuration source.
func WithEnv(env envconfig.Lookuper) Option { return func(rt *runtime) { rt.env = env } }

// WithAppOptions passes extra options to every app the commands build.
func WithAppOptions(opts ...app.Option) Option {
	return func(rt *runtime) { rt.appOpts = append(rt.appOpts, opts...) }
}

// runtime is the state shared by the subcommands of one invocation.
type runtime struct {
	streams Streams
	env     envconfig.Lookuper
	appOpts []app.Option

	configFile string
	apiURL     string
	logLevel   string

	cfg    *config.Config
	log    zerolog.Logger
	reader *bufio.Reader
}

// NewRootCommand builds the chatwidget command tree.
func NewRootCommand(streams Streams, opts ...Option) *cobra.Command {
	rt := &runtime{streams: streams}
	for _, opt := range opts {
		opt(rt)
	}

	root := &cobra.Command{
		Use:   "chatwidget",
		Short: "Chat with Ava from the terminal",
		Long: `chatwidget is a terminal client for the Ava chat backend. Sign up or sign
in once; the token is kept in the configured client storage and reused until
the backend rejects it.`,
		Version:           fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: rt.setup,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)

	root.PersistentFlags().StringVarP(&rt.configFile, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&rt.apiURL, "api-url", "", "chat backend base URL (overrides CHAT_API_URL)")
	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "trace, debug, info, warn, error or off (overrides LOG_LEVEL)")

	root.AddCommand(
		newSignUpCmd(rt),
		newSignInCmd(rt),
		newLogoutCmd(rt),
		newStatusCmd(rt),
		newMessagesCmd(rt),
		newSendCmd(rt),
		newEditCmd(rt),
		newDeleteCmd(rt),
		newChatCmd(rt),
	)
	return root
}

// Execute runs the command tree against the process streams and returns the
// exit code.
func Execute(ctx context.Context) int {
	streams := StdStreams()
	if err := NewRootCommand(streams).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(streams.Err, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (rt *runtime) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Context(), config.Options{File: rt.configFile, Env: rt.env})
	if err != nil {
		return err
	}
	if rt.apiURL != "" {
		cfg.APIURL = rt.apiURL
	}
	if rt.logLevel != "" {
		cfg.LogLevel = rt.logLevel
	}
	rt.cfg = cfg

	logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment(),
		Output: rt.streams.Err,
		App:    "chatwidget",
	})
	rt.log = logger.For("cli")
	rt.reader = bufio.NewReader(rt.streams.In)
	return nil
}

// open wires an app bound to ctx. Callers must Close it.
func (rt *runtime) open(ctx context.Context) (*app.App, error) {
	opts := append([]app.Option{app.WithLogger(logger.Get())}, rt.appOpts...)
	return app.New(ctx, rt.cfg, opts...)
}

// session opens an app and verifies the stored token.
func (rt *runtime) session(ctx context.Context) (*app.App, error) {
	a, err := rt.open(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.RequireSession(ctx); err != nil {
		a.Close()
		if errors.Is(err, domain.ErrNotAuthenticated) {
			return nil, errNotSignedIn
		}
		return nil, err
	}
	return a, nil
}

func (rt *runtime) printf(format string, args ...any) {
	fmt.Fprintf(rt.streams.Out, format, args...)
}
