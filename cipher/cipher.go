// Package cipher provides the two AEAD constructions this module's
// header format can name (see primitive.Algorithm), behind a single
// interface shaped after crypto/cipher.AEAD and the convention set by
// Seal/Open-style libraries throughout this ecosystem.
package cipher

import (
	"fmt"

	"github.com/duskline/envelope/primitive"
	"github.com/duskline/envelope/secret"
	"github.com/duskline/envelope/verr"
)

// AEAD is implemented by every cipher construction this module
// supports. dst/nonce/plaintext/aad follow the append-and-return
// convention of crypto/cipher.AEAD and golang.org/x/crypto's AEAD
// implementations: Seal appends to dst and returns the result; Open
// does the same, or returns a nil slice and a non-nil error.
type AEAD interface {
	// Seal encrypts and authenticates plaintext, authenticates aad,
	// and appends the sealed result to dst.
	Seal(dst, nonce, plaintext, aad []byte) []byte

	// Open authenticates and decrypts ciphertext, returning the
	// plaintext appended to dst. On authentication failure it returns
	// a nil slice and verr.ErrCipherAuth; dst's existing contents are
	// left untouched but anything written past it may be zeroed.
	Open(dst, nonce, ciphertext, aad []byte) ([]byte, error)

	// NonceSize returns the exact nonce length this AEAD requires.
	NonceSize() int

	// Overhead returns the number of bytes of authentication tag Seal
	// adds to its output.
	Overhead() int

	// Destroy zeroes the cipher's own copy of its key (see New for
	// what it does not reach). The AEAD must not be used again
	// afterwards.
	Destroy()
}

// New constructs the AEAD named by alg, keyed by key. Each
// implementation keeps its own copy of the key so the caller's Secret
// can be destroyed independently, and Destroy wipes that copy. For
// XChaCha20Poly1305 the wrapped golang.org/x/crypto instance holds a
// further copy of the key, which Destroy does not wipe.
func New(alg primitive.Algorithm, key *secret.Secret[*secret.Array32]) (AEAD, error) {
	raw := key.Expose()
	switch alg {
	case primitive.XChaCha20Poly1305:
		return newXChaCha20Poly1305(raw[:])
	case primitive.Aes256GcmSiv:
		return newAes256GcmSiv(raw[:])
	default:
		return nil, fmt.Errorf("%w: algorithm %d", verr.ErrCipherInit, alg)
	}
}

// sliceForAppend is the familiar append-in-place helper used by every
// AEAD implementation in the crypto/cipher family: it grows in if
// necessary and returns both the full result and the tail to write
// into, so Seal can avoid a redundant allocation when dst has spare
// capacity.
func sliceForAppend(in []byte, n int) (head, tail []byte) {
	if total := len(in) + n; cap(in) >= total {
		head = in[:total]
	} else {
		head = make([]byte, total)
		copy(head, in)
	}
	tail = head[len(in):]
	return
}
