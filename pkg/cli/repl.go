package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// executor is the command surface the REPL dispatches to. App satisfies it;
// tests use a stub.
type executor interface {
	Login(ctx context.Context)
	Logout(ctx context.Context)
	Register(ctx context.Context, nickname string)
	Balance(ctx context.Context)
	Allowance(ctx context.Context)
	List(ctx context.Context)
	Create(ctx context.Context)
	Stake(ctx context.Context, boxID string)
}

const helpText = `commands:
  login              authenticate with the identity provider
  logout             end the session
  register <name>    pick a nickname (first login only)
  balance            refresh and show the ledger balance
  allowance          show the allowance granted to the backend
  list               list boxes with their countdowns
  create             create a box (prompts for the prize amount)
  stake <box-id>     stake into a box (prompts for the amount)
  exit               quit`

// RunREPL reads commands until EOF, "exit" or ctx cancellation. Handlers
// report their own errors through the dialog layer; the loop only does I/O.
func RunREPL(ctx context.Context, exec executor, statusFn func() string, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "miner [%s]> ", statusFn())
		if !scanner.Scan() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			fmt.Fprintln(out, helpText)

		case "login":
			exec.Login(ctx)

		case "logout":
			exec.Logout(ctx)

		case "register":
			if len(args) != 1 {
				fmt.Fprintln(out, "usage: register <nickname>")
				continue
			}
			exec.Register(ctx, args[0])

		case "balance":
			exec.Balance(ctx)

		case "allowance":
			exec.Allowance(ctx)

		case "l", "list":
			exec.List(ctx)

		case "create":
			exec.Create(ctx)

		case "stake":
			if len(args) != 1 {
				fmt.Fprintln(out, "usage: stake <box-id>")
				continue
			}
			exec.Stake(ctx, args[0])

		case "exit", "quit":
			fmt.Fprintln(out, "bye")
			return

		default:
			fmt.Fprintf(out, "unknown command: %s (try help)\n", cmd)
		}
	}
}

// Run starts the REPL over the app's own streams.
func (a *App) Run(ctx context.Context, in io.Reader) {
	RunREPL(ctx, a, a.status, in, a.out)
}
