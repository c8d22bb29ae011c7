// Package cli is the interactive terminal frontend: a small REPL over the
// orchestrator, the resource registry and the dialog mediator.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/Baiumka/miner-client/pkg/app/errors"
	"github.com/Baiumka/miner-client/pkg/dialog"
	"github.com/Baiumka/miner-client/pkg/orchestrator"
	"github.com/Baiumka/miner-client/pkg/registry"
	"github.com/Baiumka/miner-client/pkg/session"
)

// App wires the orchestrator, registry and dialog together for the REPL.
type App struct {
	orch     *orchestrator.Orchestrator
	registry *registry.Registry
	store    *session.Store
	mediator dialog.Mediator
	out      io.Writer
	logger   *zap.Logger
}

// NewApp creates the CLI application.
func NewApp(
	orch *orchestrator.Orchestrator,
	reg *registry.Registry,
	store *session.Store,
	mediator dialog.Mediator,
	out io.Writer,
	logger *zap.Logger,
) (*App, error) {
	if orch == nil || reg == nil || store == nil || mediator == nil {
		return nil, fmt.Errorf("nil dependency")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{orch: orch, registry: reg, store: store, mediator: mediator, out: out, logger: logger}, nil
}

// status renders the prompt segment describing the current session.
func (a *App) status() string {
	snap := a.store.Snapshot()
	switch snap.Classification {
	case session.Registered:
		stale := ""
		if snap.BalanceStale {
			stale = "~"
		}
		return fmt.Sprintf("%s %s%s", snap.Nickname, stale, orchestrator.FormatE8s(snap.BalanceE8s))
	case session.Unregistered:
		return "unregistered"
	default:
		return "guest"
	}
}

// showErr routes a failure to the dialog layer. Cancellations never reach
// here; handlers return nil for those.
func (a *App) showErr(err error) {
	if err == nil {
		return
	}
	a.mediator.ShowError(apperrors.UserMessage(err))
}

func (a *App) Restore(ctx context.Context) {
	c, err := a.orch.Restore(ctx)
	if err != nil {
		a.showErr(err)
		return
	}
	if c != session.Unauthenticated {
		fmt.Fprintf(a.out, "welcome back, %s\n", a.store.Snapshot().Principal)
	}
}

func (a *App) Login(ctx context.Context) {
	c, err := a.orch.Login(ctx)
	if err != nil {
		a.showErr(err)
		return
	}
	if c == session.Unregistered {
		fmt.Fprintln(a.out, "logged in; pick a nickname with: register <nickname>")
		return
	}
	fmt.Fprintf(a.out, "logged in as %s\n", a.store.Snapshot().Nickname)
}

func (a *App) Logout(ctx context.Context) {
	if _, err := a.orch.Logout(ctx); err != nil {
		a.showErr(err)
		return
	}
	fmt.Fprintln(a.out, "logged out")
}

func (a *App) Register(ctx context.Context, nickname string) {
	if _, err := a.orch.Register(ctx, nickname); err != nil {
		a.showErr(err)
		return
	}
	fmt.Fprintf(a.out, "registered as %s\n", nickname)
}

func (a *App) Balance(ctx context.Context) {
	balance, err := a.orch.RefreshBalance(ctx)
	if err != nil {
		a.showErr(err)
		return
	}
	fmt.Fprintf(a.out, "balance: %s tokens\n", orchestrator.FormatE8s(balance))
}

func (a *App) Allowance(ctx context.Context) {
	allowance, err := a.orch.Allowance(ctx)
	if err != nil {
		a.showErr(err)
		return
	}
	fmt.Fprintf(a.out, "backend allowance: %s tokens\n", orchestrator.FormatE8s(allowance))
}

func (a *App) List(ctx context.Context) {
	boxes, err := a.registry.List(ctx)
	if err != nil {
		a.showErr(err)
		return
	}
	if len(boxes) == 0 {
		fmt.Fprintln(a.out, "no boxes yet")
		return
	}

	now := time.Now()
	for _, box := range boxes {
		rem, matured := registry.RemainingTime(box.EndDate, now)
		countdown := rem.String()
		if matured {
			countdown = "matured"
		}
		fmt.Fprintf(a.out, "%s  by %-12s  miners=%d  yours=%d  %s\n",
			box.CanisterID, box.CreatorNickname, box.MinerCount, len(box.UserMiners), countdown)
	}
}

func (a *App) Create(ctx context.Context) {
	box, err := a.orch.CreateBox(ctx)
	if err != nil {
		a.showErr(err)
		return
	}
	if box == nil {
		return
	}
	fmt.Fprintf(a.out, "box %s created\n", box.CanisterID)
}

func (a *App) Stake(ctx context.Context, boxID string) {
	miner, err := a.orch.StakeIntoBox(ctx, boxID)
	if err != nil {
		a.showErr(err)
		return
	}
	if miner == nil {
		return
	}
	fmt.Fprintf(a.out, "miner %s staked into %s\n", miner.CanisterID, miner.BoxID)
}
