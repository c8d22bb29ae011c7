// Package keys provides session key generation for the identity gateway.
// A session keypair is created per login and signs the delegation handshake;
// the matching self-authenticating principal is derived from the public key.
// Uses secp256k1 (same curve as Ethereum) via go-ethereum's crypto package.
package keys

import (
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// selfAuthenticatingTag is appended to the public-key hash when deriving a
// self-authenticating principal.
const selfAuthenticatingTag = 0x02

// SessionKeyPair represents a per-login signing keypair using secp256k1.
type SessionKeyPair struct {
	PublicKey  []byte // 33-byte compressed secp256k1 public key
	PrivateKey []byte // 32-byte secp256k1 private key
}

// GenerateSessionKeyPair generates a new secp256k1 keypair for a login session.
func GenerateSessionKeyPair() (*SessionKeyPair, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secp256k1 keypair: %w", err)
	}

	return &SessionKeyPair{
		PublicKey:  crypto.CompressPubkey(&privateKey.PublicKey),
		PrivateKey: crypto.FromECDSA(privateKey),
	}, nil
}

// FromPrivateKey rebuilds a SessionKeyPair from a stored 32-byte private key.
func FromPrivateKey(privateKeyBytes []byte) (*SessionKeyPair, error) {
	privateKey, err := crypto.ToECDSA(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to convert private key: %w", err)
	}
	return &SessionKeyPair{
		PublicKey:  crypto.CompressPubkey(&privateKey.PublicKey),
		PrivateKey: privateKeyBytes,
	}, nil
}

// PublicKeyHex returns the public key as a hex string (for display/logging)
func (kp *SessionKeyPair) PublicKeyHex() string {
	return fmt.Sprintf("%x", kp.PublicKey)
}

// Sign signs a message with the session key using ECDSA with SHA-256.
// Returns the 64-byte R || S signature.
func (kp *SessionKeyPair) Sign(message []byte) ([]byte, error) {
	privateKey, err := crypto.ToECDSA(kp.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to convert private key: %w", err)
	}

	hash := sha256.Sum256(message)
	signature, err := crypto.Sign(hash[:], privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	// Drop the recovery ID; verifiers only need R || S.
	return signature[:64], nil
}

// Verify verifies a 64-byte R || S signature against a message.
func (kp *SessionKeyPair) Verify(message, signature []byte) bool {
	if len(signature) != 64 {
		return false
	}

	hash := sha256.Sum256(message)
	sig := make([]byte, 65)
	copy(sig, signature)

	for _, v := range []byte{0, 1} {
		sig[64] = v
		recoveredPub, err := crypto.SigToPub(hash[:], sig)
		if err != nil {
			continue
		}
		actualPub, err := crypto.DecompressPubkey(kp.PublicKey)
		if err != nil {
			return false
		}
		if crypto.PubkeyToAddress(*recoveredPub) == crypto.PubkeyToAddress(*actualPub) {
			return true
		}
	}

	return false
}

// Principal derives the self-authenticating principal for the session public
// key: SHA-224 over the public key plus the self-authenticating tag byte,
// rendered in the checksummed base32 text format.
func (kp *SessionKeyPair) Principal() string {
	sum := sha256.Sum224(kp.PublicKey)
	raw := append(sum[:], selfAuthenticatingTag)
	return PrincipalText(raw)
}

// PrincipalText renders raw principal bytes in the canonical textual format:
// big-endian CRC32 of the bytes prepended, base32 lowercase without padding,
// split into dash-separated groups of five.
func PrincipalText(raw []byte) string {
	check := crc32.ChecksumIEEE(raw)
	buf := make([]byte, 0, 4+len(raw))
	buf = append(buf, byte(check>>24), byte(check>>16), byte(check>>8), byte(check))
	buf = append(buf, raw...)

	enc := strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf))

	var b strings.Builder
	for i, r := range enc {
		if i > 0 && i%5 == 0 {
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}
