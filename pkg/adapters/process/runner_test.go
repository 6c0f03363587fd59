package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.CommandExecutor = (*Runner)(nil)
	_ ports.Responder       = (*Responder)(nil)
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
}

func TestRunner_Execute(t *testing.T) {
	skipOnWindows(t)
	runner := NewRunner()
	runner.Register("greet", "sh", "-c", "echo hello $COLLOQUY_ARG_NAME")

	t.Run("Executes Registered Command", func(t *testing.T) {
		out, err := runner.Execute(context.Background(), "greet", map[string]string{"name": "Ada"})
		require.NoError(t, err)
		assert.Equal(t, "hello Ada", out)
	})

	t.Run("Rejects Unregistered Command", func(t *testing.T) {
		_, err := runner.Execute(context.Background(), "rm", nil)
		assert.ErrorIs(t, err, domain.ErrCommandNotAllowed)
	})

	t.Run("Reports Stderr On Failure", func(t *testing.T) {
		runner.Register("broken", "sh", "-c", "echo bad news >&2; exit 3")
		_, err := runner.Execute(context.Background(), "broken", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad news")
	})

	t.Run("Honours Context", func(t *testing.T) {
		runner.Register("sleepy", "sh", "-c", "sleep 5")
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := runner.Execute(ctx, "sleepy", nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	assert.Equal(t, []string{"broken", "greet", "sleepy"}, runner.Names())
}

func TestLoadTools(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tools:
  - name: date
    command: date
    args: ["+%Y"]
    env:
      TZ: UTC
  - name: nameless-is-skipped
  - command: nameless
`), 0644))

	tools, err := LoadTools(path)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "date", tools["date"].Command)
	assert.Equal(t, "UTC", tools["date"].Environment["TZ"])

	missing, err := LoadTools(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Empty(t, missing)

	runner := NewRunner(WithRegistry(tools))
	assert.Equal(t, []string{"date"}, runner.Names())
}

func TestResponder(t *testing.T) {
	skipOnWindows(t)
	r := NewResponder("sh", "-c", `echo "[$COLLOQUY_TOPIC] $COLLOQUY_SENTENCE after $COLLOQUY_THAT"`)

	out, err := r.Respond(context.Background(), ports.ResponseRequest{
		Request:  "hi. bye",
		Sentence: "bye",
		That:     "hello",
		Topic:    "greetings",
	})
	require.NoError(t, err)
	assert.Equal(t, "[greetings] bye after hello", out)

	failing := NewResponder("sh", "-c", "exit 1")
	_, err = failing.Respond(context.Background(), ports.ResponseRequest{Sentence: "x"})
	assert.ErrorContains(t, err, "process responder")
}
