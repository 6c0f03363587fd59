package colloquy_test

import (
	"context"
	"fmt"

	"github.com/aretw0/colloquy"
	"github.com/aretw0/colloquy/pkg/config"
	"github.com/aretw0/colloquy/pkg/ports"
)

func Example() {
	cfg := config.Default()
	cfg.ConfigDir = "testdata/none"

	bot, err := colloquy.New(cfg)
	if err != nil {
		panic(err)
	}
	defer bot.Close()

	ctx := context.Background()
	sess, err := bot.NewSession(ctx, "example")
	if err != nil {
		panic(err)
	}

	fmt.Println(sess.ProcessTurn(ctx, "Hello. My name is Ada."))
	fmt.Println(sess.ProcessTurn(ctx, "What is my name?"))
	// Output:
	// Hi there! Nice to meet you, Ada.
	// Your name is Ada.
}

func ExampleWithResponder() {
	echo := ports.ResponderFunc(func(ctx context.Context, req ports.ResponseRequest) (string, error) {
		return "You said: " + req.Sentence, nil
	})

	cfg := config.Default()
	cfg.ConfigDir = "testdata/none"
	bot, err := colloquy.New(cfg, colloquy.WithResponder(echo))
	if err != nil {
		panic(err)
	}
	defer bot.Close()

	ctx := context.Background()
	sess, _ := bot.NewSession(ctx, "echo")
	fmt.Println(sess.ProcessTurn(ctx, "one. two"))
	// Output:
	// You said: one You said: two
}
