package identity

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedDelegation(t *testing.T, principal string, expiry time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": principal,
		"exp": expiry.Unix(),
	})
	signed, err := token.SignedString([]byte("provider-secret"))
	require.NoError(t, err)
	return signed
}

func TestLogin(t *testing.T) {
	dir := t.TempDir()
	opened := make(chan string, 1)

	cfg := &Config{
		Network:            NetworkLocal,
		ProviderCanisterID: "rdmx6-jaaaa",
		CallbackAddr:       "127.0.0.1:0",
		LoginTimeout:       5 * time.Second,
		CredentialFile:     filepath.Join(dir, "cred"),
	}
	g, err := New(cfg, WithOpener(func(u string) error {
		opened <- u
		return nil
	}))
	require.NoError(t, err)

	expiry := time.Now().Add(time.Hour)
	delegation := signedDelegation(t, "w7x7r-cok77-xa", expiry)
	done := make(chan struct{})
	go func() {
		defer close(done)
		loginURL := <-opened

		u, err := url.Parse(loginURL)
		assert.NoError(t, err)
		assert.NotEmpty(t, u.Query().Get("sessionKey"))
		callback := u.Query().Get("callback")
		assert.NotEmpty(t, callback)

		resp, err := http.Post(callback, "application/json",
			bytes.NewReader([]byte(`{"delegation": "`+delegation+`"}`)))
		assert.NoError(t, err)
		if resp != nil {
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			resp.Body.Close()
		}
	}()

	id, err := g.Login(context.Background())
	<-done
	require.NoError(t, err)
	assert.Equal(t, "w7x7r-cok77-xa", id.Principal)
	assert.Equal(t, expiry.Unix(), id.Expiry.Unix())
	require.NotNil(t, id.SessionKey)

	restored, err := g.Restore()
	require.NoError(t, err)
	require.NotNil(t, restored, "login persists the credential")
	assert.Equal(t, id.Principal, restored.Principal)
}

func TestLogin_Timeout(t *testing.T) {
	cfg := &Config{
		Network:        NetworkIC,
		CallbackAddr:   "127.0.0.1:0",
		LoginTimeout:   50 * time.Millisecond,
		CredentialFile: filepath.Join(t.TempDir(), "cred"),
	}
	g, err := New(cfg, WithOpener(func(string) error { return nil }))
	require.NoError(t, err)

	_, err = g.Login(context.Background())
	require.ErrorIs(t, err, ErrLoginTimeout)

	id, err := g.Restore()
	require.NoError(t, err)
	assert.Nil(t, id, "failed login leaves no credential behind")
}

func TestLogin_OpenerFailure(t *testing.T) {
	cfg := &Config{
		Network:        NetworkIC,
		CallbackAddr:   "127.0.0.1:0",
		CredentialFile: filepath.Join(t.TempDir(), "cred"),
	}
	g, err := New(cfg, WithOpener(func(string) error {
		return assert.AnError
	}))
	require.NoError(t, err)

	_, err = g.Login(context.Background())
	require.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestLogin_ExpiredDelegationRejected(t *testing.T) {
	fixed := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	cfg := &Config{
		Network:        NetworkIC,
		CallbackAddr:   "127.0.0.1:0",
		CredentialFile: filepath.Join(t.TempDir(), "cred"),
	}
	g, err := New(cfg, WithNow(func() time.Time { return fixed }))
	require.NoError(t, err)

	kp := testIdentity(t, fixed).SessionKey
	_, err = g.parseDelegation(signedDelegation(t, "w7x7r-cok77-xa", fixed.Add(-time.Minute)), kp)
	require.Error(t, err)
}

func TestLogout_Idempotent(t *testing.T) {
	cfg := &Config{
		Network:        NetworkIC,
		CallbackAddr:   "127.0.0.1:0",
		CredentialFile: filepath.Join(t.TempDir(), "cred"),
	}
	g, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, g.Logout(context.Background()))
	require.NoError(t, g.Logout(context.Background()))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(&Config{Network: "testnet", CallbackAddr: "x", CredentialFile: "y"})
	require.Error(t, err)

	_, err = New(&Config{Network: NetworkLocal, CallbackAddr: "x", CredentialFile: "y"})
	require.Error(t, err, "local network needs a provider canister")

	_, err = New(&Config{Network: NetworkIC, CredentialFile: "y"})
	require.Error(t, err)

	_, err = New(&Config{Network: NetworkIC, CallbackAddr: "x"})
	require.Error(t, err)
}
