package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"chatd/pkg/client"
	"chatd/pkg/types"
)

// Config holds chatctl settings shared across commands.
type Config struct {
	ServerURL string
}

// buildRootCmd constructs the Cobra command tree for chatctl.
func buildRootCmd(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "chatctl",
		Short:         "Command-line client for the chatd streaming chat server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "chatd server URL (defaults CHATD_URL or http://localhost:8080)")

	newCmd := &cobra.Command{
		Use:     "new [title]",
		Short:   "Create a conversation and print its id",
		Example: "  chatctl new \"Project planning\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			conv, err := client.New(cfg.ServerURL).CreateConversation(cmd.Context(), title)
			if err != nil {
				return err
			}
			fmt.Printf("conversation %d (%s)\n", conv.ID, conv.Title)
			return nil
		},
	}
	root.AddCommand(newCmd)

	chatCmd := &cobra.Command{
		Use:     "chat <conversation-id> <message>",
		Short:   "Send a message and stream the reply to stdout",
		Example: "  chatctl chat 12 \"Explain how SSE differs from WebSockets\"",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			convID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid conversation id: %s", args[0])
			}
			return runChat(cmd.Context(), cfg, convID, strings.Join(args[1:], " "))
		},
	}
	root.AddCommand(chatCmd)

	cancelCmd := &cobra.Command{
		Use:   "cancel <session-id>",
		Short: "Cancel a running stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client.New(cfg.ServerURL).CancelChat(cmd.Context(), args[0])
		},
	}
	root.AddCommand(cancelCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show live sessions and server limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := client.New(cfg.ServerURL).Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("sessions: %d (cap %d per conversation)\n", len(st.Sessions), st.MaxSessionsPerConversation)
			fmt.Printf("ceiling: %d tokens, evictions: %d, uptime: %ds\n", st.CeilingTokens, st.EvictionsTotal, st.UptimeSeconds)
			for _, s := range st.Sessions {
				fmt.Printf("  %s conversation=%d message=%d cancel_requested=%v\n",
					s.SessionID, s.ConversationID, s.MessageID, s.CancelRequested)
			}
			return nil
		},
	}
	root.AddCommand(statusCmd)

	historyCmd := &cobra.Command{
		Use:   "history <conversation-id>",
		Short: "Print a conversation transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			convID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid conversation id: %s", args[0])
			}
			msgs, err := client.New(cfg.ServerURL).ListMessages(cmd.Context(), convID)
			if err != nil {
				return err
			}
			for _, m := range msgs {
				fmt.Printf("[%s] %s\n", m.Role, m.Content)
			}
			return nil
		},
	}
	root.AddCommand(historyCmd)

	return root
}

// runChat starts an exchange and streams tokens until the terminal event.
// Ctrl+C requests server-side cancellation instead of just dropping the
// connection.
func runChat(ctx context.Context, cfg *Config, conversationID int64, message string) error {
	c := client.New(cfg.ServerURL)
	resp, err := c.StartChat(ctx, conversationID, message)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	cons := c.Consume(resp.SessionID, client.Handler{
		OnToken: func(e types.TokenEvent) {
			fmt.Print(e.Token)
		},
		OnComplete: func(m types.Message) {
			fmt.Printf("\n[%d tokens, %dms]\n", m.TokenCount, m.CompletionTimeMs)
			done <- nil
		},
		OnError: func(e types.ErrorEvent) {
			done <- fmt.Errorf("%s (%s)", e.Error, e.ErrorType)
		},
	})
	cons.Start(ctx)
	defer cons.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-done:
		return err
	case <-sig:
		fmt.Fprintln(os.Stderr, "\ncancelling...")
		if cerr := c.CancelChat(context.Background(), resp.SessionID); cerr != nil {
			return cerr
		}
		// Wait for the server's cancelled event to confirm.
		if err := <-done; err != nil && !strings.Contains(err.Error(), types.ErrorTypeCancelled) {
			return err
		}
		return nil
	case <-cons.Done():
		// The terminal callback runs before Done closes; prefer its result.
		select {
		case err := <-done:
			return err
		default:
			return fmt.Errorf("stream ended unexpectedly in state %s", cons.State())
		}
	}
}
