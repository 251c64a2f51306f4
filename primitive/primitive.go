// Package primitive collects the fixed sizes and wire tags shared by
// the kdf, cipher, header, and stream packages, so none of them need
// to agree on magic numbers independently.
package primitive

// Algorithm identifies an AEAD construction available to a header.
type Algorithm uint8

const (
	// XChaCha20Poly1305 is the extended-nonce ChaCha20-Poly1305 AEAD.
	XChaCha20Poly1305 Algorithm = iota + 1
	// Aes256GcmSiv is the RFC 8452 nonce-misuse-resistant AEAD.
	Aes256GcmSiv
)

func (a Algorithm) String() string {
	switch a {
	case XChaCha20Poly1305:
		return "XChaCha20Poly1305"
	case Aes256GcmSiv:
		return "Aes256GcmSiv"
	default:
		return "unknown"
	}
}

// Mode controls how the payload is laid out: a single AEAD operation
// over the whole plaintext, or a sequence of fixed-size blocks each
// sealed independently.
type Mode uint8

const (
	// ModeStream splits the payload into BlockSize chunks, each with
	// its own derived nonce and authentication tag.
	ModeStream Mode = iota + 1
	// ModeMemory seals the entire payload as one AEAD operation.
	ModeMemory
)

func (m Mode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeMemory:
		return "memory"
	default:
		return "unknown"
	}
}

const (
	// SaltLen is the length in bytes of a keyslot's KDF salt.
	SaltLen = 16

	// MasterKeyLen is the length in bytes of an unwrapped master key.
	MasterKeyLen = 32

	// EncryptedMasterKeyLen is the length in bytes of a master key
	// once wrapped by a keyslot's AEAD (MasterKeyLen + 16-byte tag).
	EncryptedMasterKeyLen = MasterKeyLen + 16

	// BlockSize is the plaintext size of every block in stream mode,
	// except the final block which may be shorter.
	BlockSize = 1 << 20 // 1 MiB

	// HeaderSize is the fixed, padded size in bytes of a serialized
	// header, keyslots included.
	HeaderSize = 416

	// NumKeyslots is the number of fixed-offset keyslots a header
	// carries.
	NumKeyslots = 4

	// KeyslotSize is the size in bytes of a single keyslot region.
	KeyslotSize = 96

	// blockCounterLen is the width in bytes of the per-block counter
	// field appended to a stream-mode base nonce: three bytes of
	// little-endian block index plus one terminal-marker byte (0x00
	// for every block but the last, 0x01 for the last).
	blockCounterLen = 4
)

// NonceLen returns the AEAD nonce length, in bytes, that algorithm a
// uses in the given mode. In stream mode the base nonce stored in the
// header is shorter than the full AEAD nonce size: the remaining
// blockCounterLen bytes are filled in per block (see stream.blockNonce).
func NonceLen(a Algorithm, m Mode) int {
	switch a {
	case XChaCha20Poly1305:
		if m == ModeMemory {
			return 24
		}
		return 24 - blockCounterLen
	case Aes256GcmSiv:
		if m == ModeMemory {
			return 12
		}
		return 12 - blockCounterLen
	default:
		return 0
	}
}

// FullNonceLen returns the fixed nonce size the underlying AEAD
// construction itself requires, regardless of mode.
func FullNonceLen(a Algorithm) int {
	switch a {
	case XChaCha20Poly1305:
		return 24
	case Aes256GcmSiv:
		return 12
	default:
		return 0
	}
}

// TagLen is the authentication tag overhead every algorithm this
// module supports produces.
const TagLen = 16
