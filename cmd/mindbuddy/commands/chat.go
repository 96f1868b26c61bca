package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/petasbytes/mindbuddy/internal/chat"
	"github.com/petasbytes/mindbuddy/internal/config"
	"github.com/petasbytes/mindbuddy/prompt"
)

const crisisNote = "If you are in danger or thinking about harming yourself, please contact your local emergency number or a crisis line now."

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with MindBuddy",
		Long: `Starts an interactive conversation. With a message argument a single
turn is run and the reply printed.

Each thread is a separate conversation with its own history; --thread picks
one and creates it on first use.

Type "quit" or "exit", or press Ctrl-C, to leave. The conversation is saved
on the way out.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runChat,
	}
	cmd.Flags().StringP("thread", "t", "", "conversation thread to use (default from config)")
	return cmd
}

// applyThreadFlag points cfg at the thread named by --thread, if any.
func applyThreadFlag(cmd *cobra.Command, cfg *config.Config) error {
	thread, _ := cmd.Flags().GetString("thread")
	if thread == "" {
		return nil
	}
	if err := chat.CheckThreadID(thread); err != nil {
		return err
	}
	cfg.Chat.Key = thread
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyThreadFlag(cmd, cfg); err != nil {
		return err
	}
	engine, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		defer closeEngine(engine, out, logger)
		return singleTurn(ctx, engine, args[0], out)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          label("You", "94") + ": ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}

	// readline blocks outside the context; closing it unblocks on SIGTERM.
	go func() {
		<-ctx.Done()
		_ = rl.Close()
	}()

	fmt.Fprintf(out, "Chat with MindBuddy on thread %q (type quit or exit, or Ctrl-C, to leave)\n", engine.ConversationKey())
	runREPL(ctx, engine, rl, out, logger)
	_ = rl.Close()
	closeEngine(engine, out, logger)
	return nil
}

// chatter runs a single chat turn.
type chatter interface {
	Chat(ctx context.Context, msg string) (string, error)
}

type lineReader interface {
	Readline() (string, error)
}

// runREPL reads lines until quit, EOF, interrupt or ctx ends. Per-turn
// failures are reported and the loop continues.
func runREPL(ctx context.Context, c chatter, in lineReader, out io.Writer, logger logrus.FieldLogger) {
	for {
		if ctx.Err() != nil {
			return
		}
		line, err := in.Readline()
		if err != nil {
			if !errors.Is(err, readline.ErrInterrupt) && !errors.Is(err, io.EOF) && ctx.Err() == nil {
				logger.WithError(err).Warn("read input")
			}
			return
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			continue
		case "quit", "exit":
			return
		}

		reply, err := c.Chat(ctx, line)
		printTurn(out, reply, err, logger)
	}
}

func singleTurn(ctx context.Context, c chatter, msg string, out io.Writer) error {
	reply, err := c.Chat(ctx, msg)
	var pe *chat.PersistError
	switch {
	case err == nil, errors.As(err, &pe):
		fmt.Fprintln(out, reply)
		if prompt.IsCrisisHandoff(reply) {
			fmt.Fprintln(out, crisisNote)
		}
	}
	return userFacing(err)
}

func printTurn(out io.Writer, reply string, err error, logger logrus.FieldLogger) {
	var pe *chat.PersistError
	if err != nil && !errors.As(err, &pe) {
		logger.WithError(err).Debug("chat turn failed")
		fmt.Fprintln(out, userFacing(err))
		return
	}

	fmt.Fprintf(out, "%s: %s\n", label("MindBuddy", "93"), reply)
	if prompt.IsCrisisHandoff(reply) {
		fmt.Fprintln(out, crisisNote)
	}
	if pe != nil {
		logger.WithError(err).Error("persist failed")
		fmt.Fprintln(out, userFacing(err))
	}
}

// userFacing maps a chat error to the message shown to the user.
func userFacing(err error) error {
	var (
		mie *chat.ModelInvocationError
		pe  *chat.PersistError
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, chat.ErrEmptyMessage):
		return errors.New("message was empty")
	case chat.IsUserError(err):
		return errors.New("invalid thread id")
	case errors.As(err, &mie):
		return errors.New("assistant is unavailable, try again")
	case errors.As(err, &pe):
		return errors.New("could not save your conversation")
	}
	return err
}

func label(name, color string) string {
	if !stdoutIsTerminal() {
		return name
	}
	return "\u001b[" + color + "m" + name + "\u001b[0m"
}
