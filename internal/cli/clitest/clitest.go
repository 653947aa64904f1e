// Package clitest builds command contexts over in-memory storage
package clitest

import (
	"bytes"
	"context"
	"testing"

	"github.com/julianstephens/hydratemate/internal/cli"
	"github.com/julianstephens/hydratemate/internal/config"
	"github.com/julianstephens/hydratemate/internal/storage"
)

// Env is an opened command context with captured output
type Env struct {
	Ctx *cli.Context
	KV  *storage.MemoryStore
	Out *bytes.Buffer

	// Answers are returned by Confirm in order; once exhausted Confirm says no
	Answers []bool
	// Asked records every Confirm title
	Asked []string
}

// New opens a context over a fresh MemoryStore. mutate may adjust the
// config before the engine is built.
func New(t *testing.T, mutate ...func(*config.Config)) *Env {
	t.Helper()
	// keep pidfile and config lookups out of the real home directory
	t.Setenv("HOME", t.TempDir())

	cfg := config.Default()
	cfg.Storage = "memory://"
	cfg.Timezone = "UTC"
	cfg.Notifications.Tray = false
	for _, m := range mutate {
		m(cfg)
	}

	kv := storage.NewMemoryStore()
	env := &Env{KV: kv, Out: &bytes.Buffer{}}
	ctx := cli.NewContext(cfg, kv)
	ctx.Out = env.Out
	ctx.Confirm = env.confirm
	ctx.Open(context.Background())
	env.Ctx = ctx

	t.Cleanup(func() {
		if err := ctx.Close(context.Background()); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return env
}

func (e *Env) confirm(title, _ string) (bool, error) {
	e.Asked = append(e.Asked, title)
	if len(e.Answers) == 0 {
		return false, nil
	}
	ok := e.Answers[0]
	e.Answers = e.Answers[1:]
	return ok, nil
}

// Output returns and clears the captured output
func (e *Env) Output() string {
	s := e.Out.String()
	e.Out.Reset()
	return s
}
