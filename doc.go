/*
Package colloquy runs turn-based conversations with a pluggable responder.

A Bot holds everything sessions share: settings, the responder, the triple
store and the snapshot store. A turn is normalized, split into sentences and
every sentence is answered in order. The session remembers its raw inputs,
its completed requests and responses and, per turn, the reply sentences the
bot said last ("that"), so the responder can follow up on its own question.

# Concept

Each sentence is checked against the recent inputs before it reaches the
responder. When the user keeps typing the same thing, the responder receives
a sentinel instead so it can react to the repetition. A responder failure
never escapes a turn: the caller gets the configured error response and none
of the turn-level histories change.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/colloquy"
		"github.com/aretw0/colloquy/pkg/config"
	)

	func main() {
		bot, err := colloquy.New(config.Default())
		if err != nil {
			log.Fatal(err)
		}
		defer bot.Close()

		ctx := context.Background()
		sess, err := bot.NewSession(ctx, "")
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println(sess.ProcessTurn(ctx, "Hello. My name is Ada."))
		fmt.Println(sess.ProcessTurn(ctx, "What is my name?"))
	}

Stateless servers use Bot.Respond instead, which loads the session snapshot,
runs the turn and stores the snapshot again under a per-session lock.
*/
package colloquy
