package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vasifvortex/azercell-project3/adapters/relayclient"
	"github.com/vasifvortex/azercell-project3/adapters/threadstore"
	"github.com/vasifvortex/azercell-project3/ui"
	"github.com/vasifvortex/azercell-project3/utils/log"
)

const defaultSystem = "Respond as if you are Monkey D. Luffy from One Piece."

type options struct {
	relayURL  string
	system    string
	stream    bool
	transport string
	store     string
	storeDSN  string
	token     string
	apiKey    string
	apiSecret string
	logFile   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "chat-client",
		Short: "Terminal chat client for the chat relay",
		Long: `chat-client keeps several conversation threads and sends every question
to the chat relay, rendering answers as they arrive.

Keys:
  enter            send the message
  ctrl+n           start a new chat
  ctrl+d           delete the current chat
  ctrl+←/ctrl+→    switch chats (alt+[ / alt+] also work)
  ctrl+c           quit`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.relayURL, "relay-url", envOr("RELAY_URL", "http://localhost:8000"), "relay base URL")
	f.StringVar(&opts.system, "system", defaultSystem, "system prompt sent with every question")
	f.BoolVar(&opts.stream, "stream", true, "stream answers as they are generated")
	f.StringVar(&opts.transport, "transport", relayclient.TransportHTTP, "streaming transport: http or ws")
	f.StringVar(&opts.store, "store", threadstore.KindMemory, "thread history store: memory, sqlite or redis")
	f.StringVar(&opts.storeDSN, "store-dsn", "", "sqlite file path or redis address")
	f.StringVar(&opts.token, "token", os.Getenv("RELAY_TOKEN"), "bearer token for the relay")
	f.StringVar(&opts.apiKey, "api-key", os.Getenv("RELAY_API_KEY"), "API key exchanged for a bearer token")
	f.StringVar(&opts.apiSecret, "api-secret", os.Getenv("RELAY_API_SECRET"), "API secret exchanged for a bearer token")
	f.StringVar(&opts.logFile, "log-file", "chat-client.log", "file that receives client logs")

	return cmd
}

func run(parent context.Context, opts options) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch opts.transport {
	case relayclient.TransportHTTP, relayclient.TransportWS:
	default:
		return fmt.Errorf("unknown transport %q", opts.transport)
	}

	if err := log.ToFile(opts.logFile); err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer log.Sync()

	client := relayclient.New(opts.relayURL,
		relayclient.WithToken(opts.token),
		relayclient.WithTransport(opts.transport),
	)
	if opts.token == "" && opts.apiKey != "" {
		if err := client.Login(ctx, opts.apiKey, opts.apiSecret); err != nil {
			return fmt.Errorf("login: %s", relayclient.Describe(err))
		}
	}

	store, err := threadstore.Open(ctx, opts.store, opts.storeDSN)
	if err != nil {
		return fmt.Errorf("open thread store: %w", err)
	}
	defer store.Close()

	state, err := ui.Restore(ctx, store)
	if err != nil {
		return fmt.Errorf("restore threads: %w", err)
	}

	log.With(
		zap.String("relay_url", opts.relayURL),
		zap.String("transport", opts.transport),
		zap.String("store", opts.store),
		zap.Int("threads", len(state.Threads)),
	).Info("chat client started")

	model := ui.New(ctx, client, state, ui.Options{
		Store:  store,
		System: opts.system,
		Stream: opts.stream,
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
