// Package envelope is the top-level entry point: it orchestrates the
// kdf, cipher, header and stream packages into the external operation
// surface this module exposes — encrypt, decrypt, and the header-only
// maintenance operations a caller uses to add, change, remove, or
// verify a passphrase without touching the payload at all.
package envelope

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/duskline/envelope/cipher"
	"github.com/duskline/envelope/header"
	"github.com/duskline/envelope/primitive"
	"github.com/duskline/envelope/secret"
	"github.com/duskline/envelope/stream"
	"github.com/duskline/envelope/verr"
)

// Params selects the algorithm and mode a fresh header is written
// with. Decrypt never needs this: both are read back out of the
// header it parses.
type Params struct {
	Algorithm primitive.Algorithm
	Mode      primitive.Mode
}

// Encrypt reads plaintext from r, generates a random master key and
// payload nonce, wraps the master key for pw in the header's first
// keyslot, and writes the header followed by the sealed payload to w.
func Encrypt(r io.Reader, w io.Writer, pw *secret.Secret[secret.Bytes], params Params) error {
	h, err := header.New(params.Algorithm, params.Mode)
	if err != nil {
		return err
	}
	if _, err := rand.Read(h.Nonce); err != nil {
		return fmt.Errorf("%w: %v", verr.ErrIO, err)
	}

	masterArr := &secret.Array32{}
	if _, err := rand.Read(masterArr[:]); err != nil {
		return fmt.Errorf("%w: %v", verr.ErrIO, err)
	}
	master := secret.New(masterArr)
	defer master.Destroy()

	if _, err := h.AddKey(pw, master); err != nil {
		return err
	}

	aead, err := cipher.New(params.Algorithm, master)
	if err != nil {
		return err
	}
	defer aead.Destroy()

	aad, err := h.AAD()
	if err != nil {
		return err
	}

	headerBytes, err := h.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(headerBytes); err != nil {
		return fmt.Errorf("%w: %v", verr.ErrIO, err)
	}

	switch params.Mode {
	case primitive.ModeMemory:
		plaintext, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("%w: %v", verr.ErrIO, err)
		}
		sealed := aead.Seal(nil, h.Nonce, plaintext, aad)
		if _, err := w.Write(sealed); err != nil {
			return fmt.Errorf("%w: %v", verr.ErrIO, err)
		}
	case primitive.ModeStream:
		enc := stream.NewEncoder(w, aead, h.Nonce, aad)
		if _, err := io.Copy(enc, r); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %v", verr.ErrHeaderBadMode, params.Mode)
	}
	return nil
}

// Decrypt reads a header from r, unlocks its master key with pw, and
// writes the verified plaintext to w. Nothing is written to w until
// the relevant AEAD block(s) have authenticated.
func Decrypt(r io.Reader, w io.Writer, pw *secret.Secret[secret.Bytes]) error {
	headerBytes := make([]byte, primitive.HeaderSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return fmt.Errorf("%w: %v", verr.ErrIO, err)
	}

	var h header.Header
	if err := h.UnmarshalBinary(headerBytes); err != nil {
		return err
	}

	master, _, err := h.Unlock(pw)
	if err != nil {
		return err
	}
	defer master.Destroy()

	aead, err := cipher.New(h.Algorithm, master)
	if err != nil {
		return err
	}
	defer aead.Destroy()

	aad, err := h.AAD()
	if err != nil {
		return err
	}

	switch h.Mode {
	case primitive.ModeMemory:
		ciphertext, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("%w: %v", verr.ErrIO, err)
		}
		plaintext, err := aead.Open(nil, h.Nonce, ciphertext, aad)
		if err != nil {
			return err
		}
		if _, err := w.Write(plaintext); err != nil {
			return fmt.Errorf("%w: %v", verr.ErrIO, err)
		}
	case primitive.ModeStream:
		dec, err := stream.NewDecoder(r, aead, h.Nonce, aad)
		if err != nil {
			return err
		}
		for {
			blk, err := dec.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			if _, err := w.Write(blk); err != nil {
				return fmt.Errorf("%w: %v", verr.ErrIO, err)
			}
		}
	default:
		return fmt.Errorf("%w: %v", verr.ErrHeaderBadMode, h.Mode)
	}
	return nil
}
