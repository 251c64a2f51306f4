package cipher

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/duskline/envelope/verr"
)

// xChaCha20Poly1305 wraps golang.org/x/crypto/chacha20poly1305's
// extended-nonce construction, translating its error into the single
// ErrCipherAuth sentinel this module uses at every decrypt boundary.
type xChaCha20Poly1305 struct {
	key  [chacha20poly1305.KeySize]byte
	impl cipherAEAD
}

// cipherAEAD is the subset of crypto/cipher.AEAD the wrapped
// implementation satisfies; named locally to avoid an import alias
// clash with this package's own name.
type cipherAEAD interface {
	NonceSize() int
	Overhead() int
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

func newXChaCha20Poly1305(key []byte) (*xChaCha20Poly1305, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: want %d-byte key, got %d", verr.ErrCipherInit, chacha20poly1305.KeySize, len(key))
	}
	impl, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", verr.ErrCipherInit, err)
	}
	c := &xChaCha20Poly1305{impl: impl}
	copy(c.key[:], key)
	return c, nil
}

func (c *xChaCha20Poly1305) NonceSize() int { return c.impl.NonceSize() }
func (c *xChaCha20Poly1305) Overhead() int  { return c.impl.Overhead() }

func (c *xChaCha20Poly1305) Seal(dst, nonce, plaintext, aad []byte) []byte {
	return c.impl.Seal(dst, nonce, plaintext, aad)
}

func (c *xChaCha20Poly1305) Open(dst, nonce, ciphertext, aad []byte) ([]byte, error) {
	out, err := c.impl.Open(dst, nonce, ciphertext, aad)
	if err != nil {
		return nil, verr.ErrCipherAuth
	}
	return out, nil
}

func (c *xChaCha20Poly1305) Destroy() {
	for i := range c.key {
		c.key[i] = 0
	}
}
