package identity

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Baiumka/miner-client/pkg/keys"
)

func testIdentity(t *testing.T, expiry time.Time) *Identity {
	t.Helper()
	kp, err := keys.GenerateSessionKeyPair()
	require.NoError(t, err)
	return &Identity{
		Principal:  "w7x7r-cok77-xa",
		Delegation: "header.payload.signature",
		Expiry:     expiry,
		SessionKey: kp,
	}
}

func TestCredentialStore_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cred")
	store := newCredentialStore(path)

	id := testIdentity(t, time.Now().Add(time.Hour))
	require.NoError(t, store.Save(id))

	restored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, id.Principal, restored.Principal)
	assert.Equal(t, id.Delegation, restored.Delegation)
	assert.Equal(t, id.Expiry.Unix(), restored.Expiry.Unix())
	assert.Equal(t, id.SessionKey.PublicKey, restored.SessionKey.PublicKey)
}

func TestCredentialStore_EncryptedAtRest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cred")
	store := newCredentialStore(path)

	id := testIdentity(t, time.Now().Add(time.Hour))
	require.NoError(t, store.Save(id))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), id.Principal)
	assert.NotContains(t, string(raw), id.Delegation)
}

func TestCredentialStore_LoadAbsent(t *testing.T) {
	store := newCredentialStore(filepath.Join(t.TempDir(), "cred"))

	_, err := store.Load()
	require.ErrorIs(t, err, errNoCredential)
}

func TestCredentialStore_DeleteIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cred")
	store := newCredentialStore(path)

	id := testIdentity(t, time.Now().Add(time.Hour))
	require.NoError(t, store.Save(id))

	require.NoError(t, store.Delete())
	require.NoError(t, store.Delete(), "second delete is a no-op")

	_, err := store.Load()
	require.ErrorIs(t, err, errNoCredential)
}

func TestGatewayRestore_ExpiredCredential(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		Network:        NetworkIC,
		CallbackAddr:   "127.0.0.1:0",
		CredentialFile: filepath.Join(dir, "cred"),
	}

	g, err := New(cfg)
	require.NoError(t, err)

	expired := testIdentity(t, time.Now().Add(-time.Minute))
	require.NoError(t, g.store.Save(expired))

	id, err := g.Restore()
	require.NoError(t, err)
	assert.Nil(t, id, "expired credential restores as absent")
}

func TestGatewayRestore_NoCredential(t *testing.T) {
	cfg := &Config{
		Network:        NetworkIC,
		CallbackAddr:   "127.0.0.1:0",
		CredentialFile: filepath.Join(t.TempDir(), "cred"),
	}

	g, err := New(cfg)
	require.NoError(t, err)

	id, err := g.Restore()
	require.NoError(t, err)
	assert.Nil(t, id)
}
