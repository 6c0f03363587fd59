package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/colloquy"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/runner"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the bot in the terminal",
	Long: `Starts an interactive conversation. Each line is one turn; type the quit
word (default "quit") or send EOF to leave. With --session the conversation is
resumed from, and saved to, the configured session store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		prime, _ := cmd.Flags().GetBool("prime")
		noLearn, _ := cmd.Flags().GetBool("no-learn")

		bot, err := openBot(cmd, nil)
		if err != nil {
			return err
		}
		defer bot.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sessOpts := []colloquy.SessionOption{colloquy.WithWriteMode(!noLearn)}
		var sess *colloquy.Session
		if sessionID != "" {
			sess, err = bot.Restore(ctx, sessionID, sessOpts...)
		}
		if sess == nil && (sessionID == "" || errors.Is(err, domain.ErrSessionNotFound)) {
			sess, err = bot.NewSession(ctx, sessionID, sessOpts...)
		}
		if err != nil {
			return err
		}

		opts := []runner.Option{
			runner.WithInput(os.Stdin),
			runner.WithOutput(os.Stdout),
			runner.WithPrime(prime),
			runner.WithLogger(bot.Logger()),
		}
		if runner.IsTerminal(os.Stdout) {
			runner.PrintBanner(os.Stdout, sess.ID())
			opts = append(opts, runner.WithRenderer(runner.NewMarkdownRenderer()))
		} else {
			opts = append(opts, runner.WithPrompt(""))
		}

		err = runner.New(sess, opts...).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("session", "s", "", "Session to resume or create (a new id is generated when empty)")
	chatCmd.Flags().Bool("prime", false, "Send the priming input before the first turn")
	chatCmd.Flags().Bool("no-learn", false, "Do not persist categories learned during this session")
}
