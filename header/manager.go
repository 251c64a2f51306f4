package header

import (
	"crypto/rand"
	"fmt"

	"github.com/duskline/envelope/cipher"
	"github.com/duskline/envelope/kdf"
	"github.com/duskline/envelope/primitive"
	"github.com/duskline/envelope/secret"
	"github.com/duskline/envelope/verr"
)

// LastSlotPolicy controls whether DeleteKey will remove the only
// remaining populated keyslot.
type LastSlotPolicy uint8

const (
	// RejectLastSlot refuses to delete the final populated keyslot,
	// the recommended default: it is the only way to guarantee a
	// header can never be left with zero ways to unlock it.
	RejectLastSlot LastSlotPolicy = iota
	// AllowLastSlot permits deleting the final populated keyslot,
	// producing a header nothing can unlock. Callers that choose this
	// are responsible for having another copy of the master key.
	AllowLastSlot
)

// Unlock scans the header's populated keyslots in order and returns
// the first master key that pw successfully unwraps, along with the
// index of the slot that matched. It returns ErrNoMatchingKey if no
// slot opens, including when every slot is empty.
func (h *Header) Unlock(pw *secret.Secret[secret.Bytes]) (*secret.Secret[*secret.Array32], int, error) {
	for i := range h.Keyslots {
		ks := &h.Keyslots[i]
		if !ks.Used {
			continue
		}

		derived, err := kdf.DeriveKey(pw, ks.Salt, ks.KdfVersion)
		if err != nil {
			continue
		}

		aead, err := cipher.New(h.Algorithm, derived)
		if err != nil {
			derived.Destroy()
			continue
		}

		plain, err := aead.Open(nil, ks.Nonce, ks.EncryptedMasterKey[:], nil)
		aead.Destroy()
		derived.Destroy()
		if err != nil {
			continue
		}

		out := &secret.Array32{}
		copy(out[:], plain)
		for j := range plain {
			plain[j] = 0
		}
		return secret.New(out), i, nil
	}
	return nil, -1, verr.ErrNoMatchingKey
}

// VerifyKey reports whether pw unlocks any populated keyslot, without
// exposing which one or returning the master key.
func (h *Header) VerifyKey(pw *secret.Secret[secret.Bytes]) bool {
	master, _, err := h.Unlock(pw)
	if err != nil {
		return false
	}
	master.Destroy()
	return true
}

// AddKey wraps master under a key derived from pw and stores it in
// the first empty keyslot. It returns ErrNoEmptySlot if every slot is
// already populated.
func (h *Header) AddKey(pw *secret.Secret[secret.Bytes], master *secret.Secret[*secret.Array32]) (int, error) {
	idx := -1
	for i := range h.Keyslots {
		if !h.Keyslots[i].Used {
			idx = i
			break
		}
	}
	if idx == -1 {
		return -1, verr.ErrNoEmptySlot
	}

	if err := h.wrapInto(idx, pw, master); err != nil {
		return -1, err
	}
	return idx, nil
}

// ChangeKey re-wraps the master key unlocked by oldPw under newPw, in
// place, leaving the slot index unchanged.
func (h *Header) ChangeKey(oldPw, newPw *secret.Secret[secret.Bytes]) error {
	master, idx, err := h.Unlock(oldPw)
	if err != nil {
		return err
	}
	defer master.Destroy()

	return h.wrapInto(idx, newPw, master)
}

// DeleteKey zeroes the keyslot at idx. If policy is RejectLastSlot and
// idx is the only populated slot, it returns ErrLastSlot instead.
func (h *Header) DeleteKey(idx int, policy LastSlotPolicy) error {
	if idx < 0 || idx >= primitive.NumKeyslots {
		return fmt.Errorf("%w: keyslot index %d out of range", verr.ErrHeaderTruncated, idx)
	}
	if !h.Keyslots[idx].Used {
		return nil
	}

	if policy == RejectLastSlot && h.usedSlotCount() == 1 {
		return verr.ErrLastSlot
	}

	h.Keyslots[idx] = Keyslot{}
	return nil
}

func (h *Header) usedSlotCount() int {
	n := 0
	for _, ks := range h.Keyslots {
		if ks.Used {
			n++
		}
	}
	return n
}

// wrapInto derives a key from pw with a freshly-generated salt, seals
// master under it with a freshly-generated nonce, and writes the
// result into keyslot idx.
func (h *Header) wrapInto(idx int, pw *secret.Secret[secret.Bytes], master *secret.Secret[*secret.Array32]) error {
	var salt [primitive.SaltLen]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return fmt.Errorf("%w: %v", verr.ErrIO, err)
	}

	derived, err := kdf.DeriveKey(pw, salt, kdf.Latest)
	if err != nil {
		return err
	}
	defer derived.Destroy()

	aead, err := cipher.New(h.Algorithm, derived)
	if err != nil {
		return err
	}
	defer aead.Destroy()

	nonce := make([]byte, primitive.NonceLen(h.Algorithm, primitive.ModeMemory))
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("%w: %v", verr.ErrIO, err)
	}

	rawMaster := master.Expose()
	wrapped := aead.Seal(nil, nonce, rawMaster[:], nil)
	if len(wrapped) != primitive.EncryptedMasterKeyLen {
		return fmt.Errorf("%w: wrapped key length %d, want %d", verr.ErrCipherInit, len(wrapped), primitive.EncryptedMasterKeyLen)
	}

	ks := &h.Keyslots[idx]
	ks.Used = true
	ks.KdfVersion = kdf.Latest
	copy(ks.EncryptedMasterKey[:], wrapped)
	ks.Nonce = nonce
	ks.Salt = salt
	return nil
}
