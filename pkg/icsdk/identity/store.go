package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/Baiumka/miner-client/pkg/keys"
)

// credentialStore persists the delegation between runs, encrypted at rest.
// The encryption key is derived from a random machine secret kept next to the
// credential file, so a copied credential file alone is useless.
type credentialStore struct {
	path string
}

type storedCredential struct {
	Principal         string `json:"principal"`
	Delegation        string `json:"delegation"`
	ExpiryUnix        int64  `json:"expiry_unix"`
	SessionPrivateKey string `json:"session_private_key"`
}

var errNoCredential = errors.New("no stored credential")

func newCredentialStore(path string) *credentialStore {
	return &credentialStore{path: path}
}

func (s *credentialStore) secretPath() string {
	return s.path + ".key"
}

// aead builds the cipher from the machine secret, creating the secret on
// first use when create is set.
func (s *credentialStore) aead(create bool) (*chacha20poly1305Cipher, error) {
	secret, err := os.ReadFile(s.secretPath())
	if errors.Is(err, os.ErrNotExist) && create {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate machine secret: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
			return nil, fmt.Errorf("create credential dir: %w", err)
		}
		if err := os.WriteFile(s.secretPath(), secret, 0o600); err != nil {
			return nil, fmt.Errorf("write machine secret: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("read machine secret: %w", err)
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, secret, nil, []byte("miner-client credential"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive credential key: %w", err)
	}
	return newCipher(key)
}

func (s *credentialStore) Save(id *Identity) error {
	cred := storedCredential{
		Principal:         id.Principal,
		Delegation:        id.Delegation,
		ExpiryUnix:        id.Expiry.Unix(),
		SessionPrivateKey: hex.EncodeToString(id.SessionKey.PrivateKey),
	}
	plaintext, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	c, err := s.aead(true)
	if err != nil {
		return err
	}
	sealed, err := c.Seal(plaintext)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, sealed, 0o600); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

// Load returns errNoCredential when nothing is stored.
func (s *credentialStore) Load() (*Identity, error) {
	sealed, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}

	c, err := s.aead(false)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errNoCredential
	}
	if err != nil {
		return nil, err
	}
	plaintext, err := c.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypt credential: %w", err)
	}

	var cred storedCredential
	if err := json.Unmarshal(plaintext, &cred); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}

	kp, err := keys.FromPrivateKey(mustHex(cred.SessionPrivateKey))
	if err != nil {
		return nil, fmt.Errorf("restore session key: %w", err)
	}

	return &Identity{
		Principal:  cred.Principal,
		Delegation: cred.Delegation,
		Expiry:     time.Unix(cred.ExpiryUnix, 0),
		SessionKey: kp,
	}, nil
}

// Delete removes the credential. Deleting an absent credential is not an
// error.
func (s *credentialStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credential: %w", err)
	}
	return nil
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

// chacha20poly1305Cipher wraps the AEAD with nonce handling: a fresh random
// nonce per Seal, prepended to the ciphertext.
type chacha20poly1305Cipher struct {
	aead interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
	}
}

func newCipher(key []byte) (*chacha20poly1305Cipher, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &chacha20poly1305Cipher{aead: aead}, nil
}

func (c *chacha20poly1305Cipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (c *chacha20poly1305Cipher) Open(sealed []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(sealed) < ns {
		return nil, errors.New("sealed credential too short")
	}
	return c.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
}
