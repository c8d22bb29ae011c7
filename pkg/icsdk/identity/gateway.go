package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/Baiumka/miner-client/pkg/keys"
)

var (
	// ErrLoginTimeout indicates the provider never called back within the
	// configured login timeout.
	ErrLoginTimeout = errors.New("login timed out waiting for the identity provider")

	// ErrProviderUnavailable indicates the provider could not be reached or
	// surfaced to the user at all.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// Provider defines the identity operations the orchestrator depends on.
type Provider interface {
	// Login runs the interactive provider handshake and persists the
	// resulting credential.
	Login(ctx context.Context) (*Identity, error)

	// Restore rebuilds the identity from the local credential store. Returns
	// nil, nil when no usable credential exists; performs no network I/O.
	Restore() (*Identity, error)

	// Logout discards the stored credential. Idempotent.
	Logout(ctx context.Context) error
}

// Gateway implements Provider against the identity provider canister.
type Gateway struct {
	cfg    *Config
	store  *credentialStore
	opener Opener
	now    func() time.Time
	logger *zap.Logger
}

// New creates a new identity gateway.
func New(cfg *Config, opts ...Option) (*Gateway, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := applyOptions(opts)
	g := &Gateway{
		cfg:    cfg,
		store:  newCredentialStore(cfg.CredentialFile),
		opener: s.opener,
		now:    s.now,
		logger: s.logger,
	}
	if g.opener == nil {
		g.opener = func(u string) error {
			g.logger.Info("open the identity provider to continue login", zap.String("url", u))
			return nil
		}
	}
	return g, nil
}

// callbackPayload is what the provider posts back once the user approves the
// login. The delegation is a JWT binding the session key to the principal.
type callbackPayload struct {
	Delegation string `json:"delegation"`
}

func (g *Gateway) Login(ctx context.Context) (*Identity, error) {
	sessionKey, err := keys.GenerateSessionKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}

	listener, err := net.Listen("tcp", g.cfg.CallbackAddr)
	if err != nil {
		return nil, fmt.Errorf("start login callback server on %s: %w", g.cfg.CallbackAddr, err)
	}

	delegations := make(chan callbackPayload, 1)
	router := chi.NewRouter()
	router.Post("/callback", func(w http.ResponseWriter, r *http.Request) {
		var payload callbackPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Delegation == "" {
			http.Error(w, "malformed delegation payload", http.StatusBadRequest)
			return
		}
		select {
		case delegations <- payload:
		default:
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{Handler: router}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Warn("login callback server stopped", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	loginURL, err := g.loginURL(sessionKey, listener.Addr().String())
	if err != nil {
		return nil, err
	}
	if err := g.opener(loginURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.loginTimeout())
	defer cancel()

	var payload callbackPayload
	select {
	case payload = <-delegations:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrLoginTimeout
		}
		return nil, ctx.Err()
	}

	id, err := g.parseDelegation(payload.Delegation, sessionKey)
	if err != nil {
		return nil, err
	}
	if err := g.store.Save(id); err != nil {
		return nil, fmt.Errorf("persist credential: %w", err)
	}

	g.logger.Info("login completed", zap.String("principal", id.Principal),
		zap.Time("expiry", id.Expiry))
	return id, nil
}

// loginURL appends the session public key and the callback address so the
// provider can bind the delegation and post it back.
func (g *Gateway) loginURL(sessionKey *keys.SessionKeyPair, callbackAddr string) (string, error) {
	endpoint := ProviderEndpoint(g.cfg.Network, g.cfg.ProviderCanisterID, g.cfg.UserAgentHint)
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("provider endpoint: %w", err)
	}
	q := u.Query()
	q.Set("sessionKey", sessionKey.PublicKeyHex())
	q.Set("callback", fmt.Sprintf("http://%s/callback", callbackAddr))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (g *Gateway) parseDelegation(delegation string, sessionKey *keys.SessionKeyPair) (*Identity, error) {
	claims := jwt.MapClaims{}
	// The delegation's authenticity is established by the callback handshake;
	// the gateway only needs the claims.
	if _, _, err := jwt.NewParser().ParseUnverified(delegation, claims); err != nil {
		return nil, fmt.Errorf("parse delegation: %w", err)
	}

	principal, err := claims.GetSubject()
	if err != nil || principal == "" {
		return nil, errors.New("delegation has no principal")
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return nil, errors.New("delegation has no expiry")
	}
	if !g.now().Before(expiry.Time) {
		return nil, errors.New("delegation already expired")
	}

	return &Identity{
		Principal:  principal,
		Delegation: delegation,
		Expiry:     expiry.Time,
		SessionKey: sessionKey,
	}, nil
}

func (g *Gateway) Restore() (*Identity, error) {
	id, err := g.store.Load()
	if errors.Is(err, errNoCredential) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if id.Expired(g.now()) {
		g.logger.Debug("stored credential expired", zap.Time("expiry", id.Expiry))
		return nil, nil
	}
	return id, nil
}

func (g *Gateway) Logout(_ context.Context) error {
	if err := g.store.Delete(); err != nil {
		return err
	}
	g.logger.Info("logged out")
	return nil
}
