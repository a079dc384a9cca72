package commands

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/choicemate/internal/models"
)

func TestRoot_VersionFlag(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, err := env.run("--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "choicemate "+Version)
	assert.Empty(t, env.ui.runs)
}

func TestRoot_PipedShowsHelp(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, err := env.run()
	require.NoError(t, err)
	assert.Contains(t, stdout, "choicemate walks you through a decision")
	assert.Empty(t, env.ui.runs)
}

func TestRoot_TerminalOpensApp(t *testing.T) {
	env := newTestEnv(t)
	env.deps.IsTTY = func() bool { return true }

	_, _, err := env.run()
	require.NoError(t, err)
	require.Len(t, env.ui.runs, 1)
	assert.False(t, env.ui.runs[0].Router.Current().IsConversation())
}

func TestRoot_TUIErrorPropagates(t *testing.T) {
	env := newTestEnv(t)
	env.ui.err = errors.New("no tty")

	_, _, err := env.run("open")
	require.EqualError(t, err, "no tty")
}

func TestRoot_RejectsStrayArguments(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run("what", "now")
	require.Error(t, err)
}

func TestRoot_SubcommandsRegistered(t *testing.T) {
	root := NewRootCmd(NewDependencies())

	for _, name := range []string{"open", "new", "weights", "rate", "explain", "decide", "history", "config", "ping"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestPing(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, err := env.run("ping")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Backend at http://backend.test is healthy")
	assert.Equal(t, 1, env.mock.HealthCalls)

	env.mock.HealthVal = &models.HealthResponse{OK: false}
	_, _, err = env.run("ping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not healthy")
}

func TestIsInteractive(t *testing.T) {
	root := NewRootCmd(NewDependencies())
	assert.True(t, isInteractive(root))

	open, _, err := root.Find([]string{"open"})
	require.NoError(t, err)
	assert.True(t, isInteractive(open))

	list, _, err := root.Find([]string{"history", "list"})
	require.NoError(t, err)
	assert.False(t, isInteractive(list))
}
