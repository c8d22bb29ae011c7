package orchestrator

import (
	"context"
	"sync"

	"github.com/Baiumka/miner-client/pkg/icsdk/backend"
	"github.com/Baiumka/miner-client/pkg/icsdk/identity"
	"github.com/Baiumka/miner-client/pkg/icsdk/ledger"
)

type mockProvider struct {
	loginFn   func(ctx context.Context) (*identity.Identity, error)
	restoreFn func() (*identity.Identity, error)
	logoutFn  func(ctx context.Context) error

	logoutCalls int
}

func (m *mockProvider) Login(ctx context.Context) (*identity.Identity, error) {
	return m.loginFn(ctx)
}

func (m *mockProvider) Restore() (*identity.Identity, error) {
	if m.restoreFn == nil {
		return nil, nil
	}
	return m.restoreFn()
}

func (m *mockProvider) Logout(ctx context.Context) error {
	m.logoutCalls++
	if m.logoutFn == nil {
		return nil
	}
	return m.logoutFn(ctx)
}

type mockLedger struct {
	mu           sync.Mutex
	approveFn    func(ctx context.Context, req *ledger.ApproveRequest) (uint64, error)
	balanceFn    func(ctx context.Context, account ledger.Account) (uint64, error)
	approveCalls []*ledger.ApproveRequest
	balanceCalls int
}

func (m *mockLedger) Approve(ctx context.Context, req *ledger.ApproveRequest) (uint64, error) {
	m.mu.Lock()
	m.approveCalls = append(m.approveCalls, req)
	m.mu.Unlock()
	if m.approveFn == nil {
		return 1, nil
	}
	return m.approveFn(ctx, req)
}

func (m *mockLedger) BalanceOf(ctx context.Context, account ledger.Account) (uint64, error) {
	m.mu.Lock()
	m.balanceCalls++
	m.mu.Unlock()
	if m.balanceFn == nil {
		return 0, nil
	}
	return m.balanceFn(ctx, account)
}

type mockBackend struct {
	getUserFn  func(ctx context.Context) (*backend.UserProfile, error)
	registerFn func(ctx context.Context, nickname string) (*backend.UserProfile, error)
	listFn     func(ctx context.Context) ([]backend.Box, error)
	createFn   func(ctx context.Context, amountE8s uint64) (*backend.Box, error)
	stakeFn    func(ctx context.Context, boxID string, amountE8s uint64) (*backend.Miner, error)
	allowFn    func(ctx context.Context) (uint64, error)

	registerCalls []string
	createCalls   []uint64
	stakeCalls    []uint64
}

func (m *mockBackend) GetUser(ctx context.Context) (*backend.UserProfile, error) {
	if m.getUserFn == nil {
		return nil, backend.ErrUserNotFound
	}
	return m.getUserFn(ctx)
}

func (m *mockBackend) Register(ctx context.Context, nickname string) (*backend.UserProfile, error) {
	m.registerCalls = append(m.registerCalls, nickname)
	if m.registerFn == nil {
		return &backend.UserProfile{Nickname: nickname}, nil
	}
	return m.registerFn(ctx, nickname)
}

func (m *mockBackend) ListBoxes(ctx context.Context) ([]backend.Box, error) {
	if m.listFn == nil {
		return nil, nil
	}
	return m.listFn(ctx)
}

func (m *mockBackend) CreateBox(ctx context.Context, amountE8s uint64) (*backend.Box, error) {
	m.createCalls = append(m.createCalls, amountE8s)
	if m.createFn == nil {
		return &backend.Box{CanisterID: "box-1"}, nil
	}
	return m.createFn(ctx, amountE8s)
}

func (m *mockBackend) StakeIntoBox(ctx context.Context, boxID string, amountE8s uint64) (*backend.Miner, error) {
	m.stakeCalls = append(m.stakeCalls, amountE8s)
	if m.stakeFn == nil {
		return &backend.Miner{CanisterID: "miner-1", BoxID: boxID}, nil
	}
	return m.stakeFn(ctx, boxID, amountE8s)
}

func (m *mockBackend) Allowance(ctx context.Context) (uint64, error) {
	if m.allowFn == nil {
		return 0, nil
	}
	return m.allowFn(ctx)
}

type mockMediator struct {
	promptFn func(message, defaultValue string) (string, error)
	shown    []string
}

func (m *mockMediator) PromptAmount(message, defaultValue string) (string, error) {
	if m.promptFn == nil {
		return defaultValue, nil
	}
	return m.promptFn(message, defaultValue)
}

func (m *mockMediator) ShowError(message string) {
	m.shown = append(m.shown, message)
}
