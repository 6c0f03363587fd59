/*
Package runner implements the interactive console loop for a colloquy session.

The runner reads one line per turn, hands it to the session and prints the
reply. Typing the quit word (or closing stdin) ends the loop.

# Usage

	sess, _ := bot.NewSession(ctx, "")
	r := runner.New(sess,
		runner.WithInput(os.Stdin),
		runner.WithOutput(os.Stdout),
		runner.WithRenderer(runner.NewMarkdownRenderer()),
	)
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
