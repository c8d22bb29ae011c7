// Package orchestrator drives the session lifecycle and the
// approve-then-spend protocol. Every value-moving action runs three phases:
// approve an allowance on the ledger, spend it through the backend, then
// reconcile the cached balance against the ledger whatever the spend did.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Baiumka/miner-client/internal/metrics"
	apperrors "github.com/Baiumka/miner-client/pkg/app/errors"
	"github.com/Baiumka/miner-client/pkg/dialog"
	"github.com/Baiumka/miner-client/pkg/icsdk/backend"
	"github.com/Baiumka/miner-client/pkg/icsdk/identity"
	"github.com/Baiumka/miner-client/pkg/icsdk/ledger"
	"github.com/Baiumka/miner-client/pkg/session"
)

// Orchestrator is the only writer of the session store.
type Orchestrator struct {
	cfg      *Config
	identity identity.Provider
	ledger   ledger.Ledger
	backend  backend.Backend
	store    *session.Store
	mediator dialog.Mediator
	logger   *zap.Logger

	// actionMu serializes value-moving actions per session so two approvals
	// never race against a single allowance.
	actionMu sync.Mutex
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger for the orchestrator.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates a new orchestrator.
func New(
	cfg *Config,
	provider identity.Provider,
	ledgerClient ledger.Ledger,
	backendClient backend.Backend,
	store *session.Store,
	mediator dialog.Mediator,
	opts ...Option,
) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("nil identity provider")
	}
	if ledgerClient == nil {
		return nil, fmt.Errorf("nil ledger client")
	}
	if backendClient == nil {
		return nil, fmt.Errorf("nil backend client")
	}
	if store == nil {
		return nil, fmt.Errorf("nil session store")
	}
	if mediator == nil {
		return nil, fmt.Errorf("nil dialog mediator")
	}

	o := &Orchestrator{
		cfg:      cfg,
		identity: provider,
		ledger:   ledgerClient,
		backend:  backendClient,
		store:    store,
		mediator: mediator,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o, nil
}

// Restore recovers a previously authenticated session at process start. With
// no stored credential this is a fast local path with no network I/O.
func (o *Orchestrator) Restore(ctx context.Context) (session.Classification, error) {
	id, err := o.identity.Restore()
	if err != nil {
		c := o.store.FinishRestore()
		return c, apperrors.GeneralError(fmt.Errorf("restore credential: %w", err))
	}
	if id == nil {
		return o.store.FinishRestore(), nil
	}

	c, err := o.adopt(ctx, id)
	if err != nil {
		o.logger.Warn("session restore could not adopt stored identity", zap.Error(err))
		return o.store.FinishRestore(), err
	}
	return c, nil
}

// Login runs the provider handshake and adopts the resulting identity. A
// failed login leaves the store untouched.
func (o *Orchestrator) Login(ctx context.Context) (session.Classification, error) {
	id, err := o.identity.Login(ctx)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		if errors.Is(err, identity.ErrProviderUnavailable) || errors.Is(err, identity.ErrLoginTimeout) {
			return o.store.Snapshot().Classification,
				apperrors.ProviderUnavailableError(err, "identity provider unavailable")
		}
		return o.store.Snapshot().Classification, apperrors.GeneralError(err)
	}

	c, err := o.adopt(ctx, id)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return c, err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	o.logger.Info("session established",
		zap.String("principal", id.Principal), zap.String("classification", string(c)))
	return c, nil
}

// adopt fetches profile and balance for a fresh identity and installs all of
// it as one observable update. Only one adopt runs at a time.
func (o *Orchestrator) adopt(ctx context.Context, id *identity.Identity) (session.Classification, error) {
	epoch, err := o.store.BeginAdopt(id)
	if err != nil {
		return o.store.Snapshot().Classification,
			apperrors.SessionBusyError(err, "another login is still in progress")
	}

	profile, err := o.backend.GetUser(ctx)
	if err != nil && !errors.Is(err, backend.ErrUserNotFound) {
		o.store.AbortAdopt(epoch)
		return o.store.Snapshot().Classification,
			apperrors.BackendActionError(err, "could not load user profile")
	}

	balance, err := o.ledger.BalanceOf(ctx, ledger.Account{Owner: id.Principal})
	if err != nil {
		o.store.AbortAdopt(epoch)
		return o.store.Snapshot().Classification,
			apperrors.BalanceQueryError(err, "could not load balance")
	}

	return o.store.CommitAdopt(epoch, id, profile, balance), nil
}

// Logout invalidates the stored credential and clears the session. The store
// is cleared even when the provider call fails.
func (o *Orchestrator) Logout(ctx context.Context) (session.Classification, error) {
	err := o.identity.Logout(ctx)
	c := o.store.Clear()
	if err != nil {
		return c, apperrors.GeneralError(fmt.Errorf("logout: %w", err))
	}
	return c, nil
}

// Register creates the backend profile for the authenticated principal.
func (o *Orchestrator) Register(ctx context.Context, nickname string) (session.Classification, error) {
	if nickname == "" {
		return o.store.Snapshot().Classification,
			apperrors.ValidationError(nil, "nickname is required")
	}
	if o.store.Identity() == nil {
		return o.store.Snapshot().Classification,
			apperrors.ValidationError(nil, "login required")
	}

	profile, err := o.backend.Register(ctx, nickname)
	if err != nil {
		return o.store.Snapshot().Classification,
			apperrors.BackendActionError(err, err.Error())
	}
	return o.store.SetProfile(profile), nil
}

// RefreshBalance re-queries the ledger and updates the cached balance.
func (o *Orchestrator) RefreshBalance(ctx context.Context) (uint64, error) {
	id := o.store.Identity()
	if id == nil {
		return 0, apperrors.ValidationError(nil, "login required")
	}

	balance, err := o.ledger.BalanceOf(ctx, ledger.Account{Owner: id.Principal})
	if err != nil {
		metrics.BalanceRefreshesTotal.WithLabelValues("failure").Inc()
		o.store.MarkBalanceStale()
		return 0, apperrors.BalanceQueryError(err, "balance refresh failed; the displayed balance may be stale")
	}
	metrics.BalanceRefreshesTotal.WithLabelValues("success").Inc()
	o.store.SetBalance(balance)
	return balance, nil
}

// Allowance reports the remaining allowance the backend may still pull.
func (o *Orchestrator) Allowance(ctx context.Context) (uint64, error) {
	if o.store.Identity() == nil {
		return 0, apperrors.ValidationError(nil, "login required")
	}
	allowance, err := o.backend.Allowance(ctx)
	if err != nil {
		return 0, apperrors.BackendActionError(err, err.Error())
	}
	return allowance, nil
}

// CreateBox prompts for a prize amount and creates a box through the
// approve-then-spend protocol. A cancelled prompt is a no-op: nil box, nil
// error, zero external calls.
func (o *Orchestrator) CreateBox(ctx context.Context) (*backend.Box, error) {
	o.actionMu.Lock()
	defer o.actionMu.Unlock()

	amountE8s, err := o.promptAmount("Box prize amount in tokens", o.cfg.MinBoxCostE8s)
	if err != nil || amountE8s == 0 {
		return nil, err
	}

	var box *backend.Box
	err = o.runSpend(ctx, "create_box", amountE8s, func(ctx context.Context) error {
		created, err := o.backend.CreateBox(ctx, amountE8s)
		if err != nil {
			return err
		}
		box = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return box, nil
}

// StakeIntoBox prompts for a stake amount and stakes into an existing box
// through the approve-then-spend protocol.
func (o *Orchestrator) StakeIntoBox(ctx context.Context, boxID string) (*backend.Miner, error) {
	if boxID == "" {
		return nil, apperrors.ValidationError(nil, "box id is required")
	}

	o.actionMu.Lock()
	defer o.actionMu.Unlock()

	amountE8s, err := o.promptAmount("Stake amount in tokens", o.cfg.MinStakeE8s)
	if err != nil || amountE8s == 0 {
		return nil, err
	}

	var miner *backend.Miner
	err = o.runSpend(ctx, "stake_into_box", amountE8s, func(ctx context.Context) error {
		staked, err := o.backend.StakeIntoBox(ctx, boxID, amountE8s)
		if err != nil {
			return err
		}
		miner = staked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return miner, nil
}

// promptAmount collects and validates the amount for a value-moving action.
// It returns 0, nil on user cancellation. Everything here runs before any
// external call.
func (o *Orchestrator) promptAmount(message string, minimumE8s uint64) (uint64, error) {
	snap := o.store.Snapshot()
	if snap.Classification != session.Registered {
		return 0, apperrors.ValidationError(nil, "a registered session is required")
	}

	input, err := o.mediator.PromptAmount(message, FormatE8s(minimumE8s))
	if errors.Is(err, dialog.ErrCancelled) {
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.GeneralError(err)
	}

	amountE8s, err := ParseAmountE8s(input)
	if err != nil {
		return 0, err
	}
	if amountE8s < minimumE8s {
		return 0, apperrors.ValidationError(nil,
			fmt.Sprintf("amount must be at least %s tokens", FormatE8s(minimumE8s)))
	}
	return amountE8s, nil
}

// runSpend executes the three phases in strict order. The reconcile runs
// whenever the approval succeeded, whatever happened to the spend, because a
// failed spend can still have consumed part of the allowance.
func (o *Orchestrator) runSpend(ctx context.Context, action string, amountE8s uint64, spend func(context.Context) error) (err error) {
	snap := o.store.Snapshot()
	principal := snap.Principal

	defer func() {
		status := "success"
		if err != nil {
			status = "failure"
		}
		metrics.ActionsTotal.WithLabelValues(action, status).Inc()
	}()

	// Phase 1: approve the allowance, over-approving by the fee buffer.
	approveE8s := amountE8s + o.cfg.ApproveFeeBufferE8s
	blockIndex, approveErr := o.ledger.Approve(ctx, &ledger.ApproveRequest{
		Spender:   ledger.Account{Owner: o.cfg.BackendPrincipal},
		AmountE8s: approveE8s,
	})
	if approveErr != nil {
		metrics.ActionPhaseFailures.WithLabelValues(action, "approve").Inc()
		return apperrors.ApprovalRejectedError(approveErr, approveErr.Error())
	}
	metrics.ApproveAmount.WithLabelValues(action).Observe(TokensFloat(approveE8s))
	o.logger.Info("allowance approved",
		zap.String("action", action),
		zap.Uint64("amount_e8s", approveE8s),
		zap.Uint64("block_index", blockIndex))

	// Phase 3: reconcile the cached balance no matter how Phase 2 ends.
	defer func() {
		balance, balErr := o.ledger.BalanceOf(ctx, ledger.Account{Owner: principal})
		if balErr != nil {
			metrics.ActionPhaseFailures.WithLabelValues(action, "reconcile").Inc()
			metrics.BalanceRefreshesTotal.WithLabelValues("failure").Inc()
			o.store.MarkBalanceStale()
			o.logger.Warn("balance reconcile failed, cached balance flagged stale", zap.Error(balErr))
			if err == nil {
				err = apperrors.BalanceQueryError(balErr, "action completed, but the balance could not be refreshed")
			}
			return
		}
		metrics.BalanceRefreshesTotal.WithLabelValues("success").Inc()
		o.store.SetBalance(balance)
	}()

	// Phase 2: spend through the backend, which pulls from the allowance.
	if spendErr := spend(ctx); spendErr != nil {
		metrics.ActionPhaseFailures.WithLabelValues(action, "spend").Inc()
		return apperrors.BackendActionError(spendErr, spendErr.Error())
	}
	return nil
}
