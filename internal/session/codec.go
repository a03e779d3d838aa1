package session

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var (
	ErrInvalidToken = errors.New("session: invalid token")
	ErrTokenExpired = errors.New("session: token expired")
	ErrTokenRevoked = errors.New("session: token revoked")
)

const (
	signingKeyInfo    = "line-auth-web session signing key"
	encryptionKeyInfo = "line-auth-web session encryption key"
)

// Codec turns a Token into an opaque cookie value and back. The token is
// signed as an HS256 JWT and the JWT is sealed with XChaCha20-Poly1305.
// Both keys are derived from the server secret with HKDF-SHA256.
type Codec struct {
	signingKey []byte
	aead       cipher.AEAD
	now        func() time.Time
}

func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("session: empty secret")
	}

	signingKey, err := deriveKey(secret, signingKeyInfo)
	if err != nil {
		return nil, err
	}

	encKey, err := deriveKey(secret, encryptionKeyInfo)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(encKey)
	if err != nil {
		return nil, fmt.Errorf("session: init cipher: %w", err)
	}

	return &Codec{
		signingKey: signingKey,
		aead:       aead,
		now:        time.Now,
	}, nil
}

func deriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("session: derive key: %w", err)
	}
	return key, nil
}

func (c *Codec) Encode(t Token) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, t).SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("session: read nonce: %w", err)
	}

	// nonce || ciphertext
	sealed := c.aead.Seal(nonce, nonce, []byte(signed), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *Codec) Decode(value string) (*Token, error) {
	payload, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidToken, err)
	}

	nonceSize := c.aead.NonceSize()
	if len(payload) < nonceSize+c.aead.Overhead() {
		return nil, fmt.Errorf("%w: payload too short", ErrInvalidToken)
	}

	plain, err := c.aead.Open(nil, payload[:nonceSize], payload[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt: %v", ErrInvalidToken, err)
	}

	var t Token
	_, err = jwt.ParseWithClaims(
		string(plain),
		&t,
		func(*jwt.Token) (any, error) { return c.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return &t, nil
}
