// Package header implements the fixed-size, multi-slot file header
// this module wraps every payload in: a small fixed region naming the
// algorithm, mode and payload nonce, followed by four fixed-offset
// keyslots that each independently wrap the same master key under a
// different user secret.
package header

import (
	"fmt"

	"github.com/duskline/envelope/primitive"
	"github.com/duskline/envelope/verr"
)

var (
	versionTag = [2]byte{0xDE, 0x05}

	algorithmTags = map[primitive.Algorithm][2]byte{
		primitive.XChaCha20Poly1305: {0x0E, 0x01},
		primitive.Aes256GcmSiv:      {0x0E, 0x02},
	}
	algorithmByTag = invertAlgorithmTags()

	modeTags = map[primitive.Mode][2]byte{
		primitive.ModeStream: {0x0C, 0x01},
		primitive.ModeMemory: {0x0C, 0x02},
	}
	modeByTag = invertModeTags()
)

func invertAlgorithmTags() map[[2]byte]primitive.Algorithm {
	out := make(map[[2]byte]primitive.Algorithm, len(algorithmTags))
	for a, tag := range algorithmTags {
		out[tag] = a
	}
	return out
}

func invertModeTags() map[[2]byte]primitive.Mode {
	out := make(map[[2]byte]primitive.Mode, len(modeTags))
	for m, tag := range modeTags {
		out[tag] = m
	}
	return out
}

const (
	offVersion   = 0
	offAlgorithm = 2
	offMode      = 4
	offNonce     = 6
	offKeyslots  = 32

	// aadLen is the number of leading header bytes that feed the AEAD
	// as associated data: the fixed region only, never the keyslots.
	aadLen = offKeyslots
)

// Header is the fully-parsed fixed region plus its four keyslots.
type Header struct {
	Algorithm primitive.Algorithm
	Mode      primitive.Mode
	Nonce     []byte // payload nonce, primitive.NonceLen(Algorithm, Mode) bytes
	Keyslots  [primitive.NumKeyslots]Keyslot
}

// New builds an empty header (no populated keyslots) for the given
// algorithm and mode, generating nonce storage of the correct length.
// The caller fills Nonce with the actual payload nonce before sealing.
func New(alg primitive.Algorithm, mode primitive.Mode) (*Header, error) {
	if _, ok := algorithmTags[alg]; !ok {
		return nil, fmt.Errorf("%w: %v", verr.ErrHeaderBadAlgorithm, alg)
	}
	if _, ok := modeTags[mode]; !ok {
		return nil, fmt.Errorf("%w: %v", verr.ErrHeaderBadMode, mode)
	}
	return &Header{
		Algorithm: alg,
		Mode:      mode,
		Nonce:     make([]byte, primitive.NonceLen(alg, mode)),
	}, nil
}

// MarshalBinary serializes h into the fixed HeaderSize wire format.
func (h *Header) MarshalBinary() ([]byte, error) {
	algTag, ok := algorithmTags[h.Algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %v", verr.ErrHeaderBadAlgorithm, h.Algorithm)
	}
	modeTag, ok := modeTags[h.Mode]
	if !ok {
		return nil, fmt.Errorf("%w: %v", verr.ErrHeaderBadMode, h.Mode)
	}
	nonceLen := primitive.NonceLen(h.Algorithm, h.Mode)
	if len(h.Nonce) != nonceLen {
		return nil, fmt.Errorf("%w: nonce length %d, want %d", verr.ErrHeaderTruncated, len(h.Nonce), nonceLen)
	}

	buf := make([]byte, primitive.HeaderSize)
	copy(buf[offVersion:], versionTag[:])
	copy(buf[offAlgorithm:], algTag[:])
	copy(buf[offMode:], modeTag[:])
	copy(buf[offNonce:], h.Nonce)

	for i, ks := range h.Keyslots {
		slotBuf, err := ks.marshal()
		if err != nil {
			return nil, err
		}
		off := offKeyslots + i*primitive.KeyslotSize
		copy(buf[off:off+primitive.KeyslotSize], slotBuf)
	}
	return buf, nil
}

// UnmarshalBinary parses the fixed HeaderSize wire format produced by
// MarshalBinary. A keyslot whose identifier does not start with 0xDF
// (an all-zero one included) is left as its zero Keyslot value
// (Used == false) and its remaining bytes are not inspected; a
// 0xDF-prefixed identifier that names no known kdf version is a hard
// error (ErrHeaderBadSlotTag).
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < primitive.HeaderSize {
		return verr.ErrHeaderTruncated
	}

	var vTag [2]byte
	copy(vTag[:], data[offVersion:offVersion+2])
	if vTag != versionTag {
		return fmt.Errorf("%w: %x", verr.ErrHeaderBadVersion, vTag)
	}

	var aTag [2]byte
	copy(aTag[:], data[offAlgorithm:offAlgorithm+2])
	alg, ok := algorithmByTag[aTag]
	if !ok {
		return fmt.Errorf("%w: %x", verr.ErrHeaderBadAlgorithm, aTag)
	}

	var mTag [2]byte
	copy(mTag[:], data[offMode:offMode+2])
	mode, ok := modeByTag[mTag]
	if !ok {
		return fmt.Errorf("%w: %x", verr.ErrHeaderBadMode, mTag)
	}

	nonceLen := primitive.NonceLen(alg, mode)
	nonce := make([]byte, nonceLen)
	copy(nonce, data[offNonce:offNonce+nonceLen])

	h.Algorithm = alg
	h.Mode = mode
	h.Nonce = nonce

	for i := range h.Keyslots {
		off := offKeyslots + i*primitive.KeyslotSize
		if err := h.Keyslots[i].unmarshal(data[off:off+primitive.KeyslotSize], alg); err != nil {
			return err
		}
	}
	return nil
}

// AAD returns the bytes of the header that feed the payload AEAD as
// associated data: the fixed region only, up to but excluding the
// first keyslot. Keyslots are excluded so that editing one keyslot
// (AddKey/ChangeKey/DeleteKey) never invalidates the payload.
func (h *Header) AAD() ([]byte, error) {
	full, err := h.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return full[:aadLen], nil
}
