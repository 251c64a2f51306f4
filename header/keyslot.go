package header

import (
	"fmt"

	"github.com/duskline/envelope/kdf"
	"github.com/duskline/envelope/primitive"
	"github.com/duskline/envelope/verr"
)

const (
	slotOffIdentifier = 0
	slotIdentifierLen = 2
	slotOffWrappedKey = slotOffIdentifier + slotIdentifierLen
	slotWrappedKeyLen = primitive.EncryptedMasterKeyLen
	slotOffNonce      = slotOffWrappedKey + slotWrappedKeyLen
	slotNonceFieldLen = 24
	slotOffSalt       = slotOffNonce + slotNonceFieldLen
	slotSaltLen       = primitive.SaltLen
	// remaining bytes up to primitive.KeyslotSize are padding.
)

// blake3BalloonTags maps the only kdf.Version this module will ever
// write into a keyslot identifier. Legacy versions can still be
// derived (see kdf.V4) for test purposes, but never get a wire tag:
// a header carrying one would have no way to round-trip through
// UnmarshalBinary/MarshalBinary without inventing an encoding nobody
// asked for.
var blake3BalloonTags = map[kdf.Version][2]byte{
	kdf.V5: {0xDF, 0xB5},
}
var blake3BalloonByTag = invertBlake3BalloonTags()

func invertBlake3BalloonTags() map[[2]byte]kdf.Version {
	out := make(map[[2]byte]kdf.Version, len(blake3BalloonTags))
	for v, tag := range blake3BalloonTags {
		out[tag] = v
	}
	return out
}

// Keyslot wraps the master key under a key derived from one user
// secret. A zero-value Keyslot (Used == false) is an empty slot.
type Keyslot struct {
	Used               bool
	KdfVersion         kdf.Version
	EncryptedMasterKey [primitive.EncryptedMasterKeyLen]byte
	Nonce              []byte // wrapping AEAD nonce, memory-mode length for the header's algorithm
	Salt               [primitive.SaltLen]byte
}

func (ks *Keyslot) marshal() ([]byte, error) {
	buf := make([]byte, primitive.KeyslotSize)
	if !ks.Used {
		return buf, nil
	}

	tag, ok := blake3BalloonTags[ks.KdfVersion]
	if !ok {
		return nil, fmt.Errorf("%w: kdf version %d has no wire tag", verr.ErrHeaderBadSlotTag, ks.KdfVersion)
	}
	if len(ks.Nonce) > slotNonceFieldLen {
		return nil, fmt.Errorf("%w: keyslot nonce too long", verr.ErrHeaderTruncated)
	}

	copy(buf[slotOffIdentifier:], tag[:])
	copy(buf[slotOffWrappedKey:], ks.EncryptedMasterKey[:])
	copy(buf[slotOffNonce:], ks.Nonce)
	copy(buf[slotOffSalt:], ks.Salt[:])
	return buf, nil
}

// unmarshal parses a single 96-byte keyslot region. alg is the
// header's algorithm, needed only to know how many of the fixed
// 24-byte nonce field's bytes are the real, memory-mode nonce versus
// trailing zero padding.
func (ks *Keyslot) unmarshal(data []byte, alg primitive.Algorithm) error {
	var tag [2]byte
	copy(tag[:], data[slotOffIdentifier:slotOffIdentifier+slotIdentifierLen])

	// Any tag not prefixed 0xDF marks the slot empty; the remaining
	// bytes are never inspected.
	if tag[0] != 0xDF {
		*ks = Keyslot{}
		return nil
	}

	version, ok := blake3BalloonByTag[tag]
	if !ok {
		return fmt.Errorf("%w: %x", verr.ErrHeaderBadSlotTag, tag)
	}

	nonceLen := primitive.NonceLen(alg, primitive.ModeMemory)
	ks.Used = true
	ks.KdfVersion = version
	copy(ks.EncryptedMasterKey[:], data[slotOffWrappedKey:slotOffWrappedKey+slotWrappedKeyLen])
	ks.Nonce = make([]byte, nonceLen)
	copy(ks.Nonce, data[slotOffNonce:slotOffNonce+nonceLen])
	copy(ks.Salt[:], data[slotOffSalt:slotOffSalt+slotSaltLen])
	return nil
}
