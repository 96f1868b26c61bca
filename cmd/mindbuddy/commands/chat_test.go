package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/mindbuddy/internal/chat"
	"github.com/petasbytes/mindbuddy/internal/config"
	"github.com/petasbytes/mindbuddy/prompt"
)

type scriptedReader struct {
	lines []string
	end   error
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		if r.end != nil {
			return "", r.end
		}
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

type scriptedChatter struct {
	got     []string
	respond func(msg string) (string, error)
}

func (c *scriptedChatter) Chat(_ context.Context, msg string) (string, error) {
	c.got = append(c.got, msg)
	return c.respond(msg)
}

func echoChatter() *scriptedChatter {
	return &scriptedChatter{respond: func(msg string) (string, error) { return "re: " + msg, nil }}
}

func TestREPL_StopsOnQuit(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	c := echoChatter()
	var out bytes.Buffer

	runREPL(context.Background(), c, &scriptedReader{lines: []string{"hello", "", "  QUIT ", "never sent"}}, &out, logger)

	assert.Equal(t, []string{"hello"}, c.got)
	assert.Contains(t, out.String(), "MindBuddy: re: hello")
}

func TestREPL_StopsOnInterruptAndEOF(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	for _, end := range []error{readline.ErrInterrupt, io.EOF} {
		c := echoChatter()
		var out bytes.Buffer
		runREPL(context.Background(), c, &scriptedReader{lines: []string{"one", "two"}, end: end}, &out, logger)
		assert.Equal(t, []string{"one", "two"}, c.got)
	}
	assert.Empty(t, hook.AllEntries())
}

func TestREPL_ContinuesAfterFailures(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	calls := 0
	c := &scriptedChatter{respond: func(msg string) (string, error) {
		calls++
		switch calls {
		case 1:
			return "", &chat.ModelInvocationError{Key: "default", Err: errors.New("timeout")}
		case 2:
			return "saved later", &chat.PersistError{Key: "default", Reply: "saved later", Err: errors.New("disk")}
		}
		return prompt.CrisisSentinel, nil
	}}
	var out bytes.Buffer

	runREPL(context.Background(), c, &scriptedReader{lines: []string{"a", "b", "c", "exit"}}, &out, logger)

	text := out.String()
	assert.Len(t, c.got, 3)
	assert.Contains(t, text, "assistant is unavailable, try again")
	assert.Contains(t, text, "MindBuddy: saved later")
	assert.Contains(t, text, "could not save your conversation")
	assert.Contains(t, text, crisisNote)
}

func TestREPL_StopsWhenContextEnds(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	c := echoChatter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runREPL(ctx, c, &scriptedReader{lines: []string{"hello"}}, io.Discard, logger)
	assert.Empty(t, c.got)
}

func TestSingleTurn(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, singleTurn(context.Background(), echoChatter(), "hi", &out))
	assert.Equal(t, "re: hi\n", out.String())

	out.Reset()
	failing := &scriptedChatter{respond: func(string) (string, error) { return "", chat.ErrEmptyMessage }}
	err := singleTurn(context.Background(), failing, " ", &out)
	assert.EqualError(t, err, "message was empty")
	assert.Empty(t, out.String())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.LogConfig{Level: "warn", Format: "json"}, false, &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))

	logger, err = newLogger(config.LogConfig{Level: "warn"}, true, &buf)
	require.NoError(t, err)
	assert.True(t, logger.IsLevelEnabled(logrus.DebugLevel))

	_, err = newLogger(config.LogConfig{Level: "loud"}, false, &buf)
	assert.Error(t, err)
	_, err = newLogger(config.LogConfig{Format: "xml"}, false, &buf)
	assert.Error(t, err)
}
