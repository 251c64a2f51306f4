// Package verr defines the error kinds shared by every layer of this
// module. Every boundary that can fail returns one of these sentinels
// (directly, or wrapped with fmt.Errorf's %w) so that callers can use
// errors.Is regardless of which layer produced the failure.
package verr

import "errors"

var (
	// ErrIO wraps a failure reading from or writing to the underlying
	// io.Reader/io.Writer.
	ErrIO = errors.New("envelope: i/o error")

	// ErrHeaderBadVersion is returned when a header's version tag does
	// not match any version this module understands.
	ErrHeaderBadVersion = errors.New("envelope: unrecognised header version")

	// ErrHeaderBadAlgorithm is returned when a header's algorithm tag
	// does not match any cipher this module implements.
	ErrHeaderBadAlgorithm = errors.New("envelope: unrecognised algorithm tag")

	// ErrHeaderBadMode is returned when a header's mode tag is neither
	// stream nor memory.
	ErrHeaderBadMode = errors.New("envelope: unrecognised mode tag")

	// ErrHeaderTruncated is returned when fewer than the fixed header
	// size is available to deserialize.
	ErrHeaderTruncated = errors.New("envelope: truncated header")

	// ErrHeaderBadSlotTag is returned when a keyslot's hashing-algorithm
	// identifier carries the Blake3Balloon prefix byte (0xDF) but names
	// no version this module reads. An identifier without that prefix
	// marks the slot unused instead.
	ErrHeaderBadSlotTag = errors.New("envelope: unrecognised keyslot tag")

	// ErrKdfUnsupportedVersion is returned when asked to derive a key
	// with a Balloon parameter version this module does not implement.
	ErrKdfUnsupportedVersion = errors.New("envelope: unsupported kdf version")

	// ErrKdfInit is returned when the KDF cannot even start (e.g.
	// invalid internal parameters). An empty secret is reported as
	// ErrEmptySecret instead.
	ErrKdfInit = errors.New("envelope: kdf initialisation failed")

	// ErrKdfFailed is returned when the KDF's internal computation
	// fails after starting.
	ErrKdfFailed = errors.New("envelope: kdf computation failed")

	// ErrCipherInit is returned when an AEAD cannot be constructed from
	// its key (e.g. wrong key length).
	ErrCipherInit = errors.New("envelope: cipher initialisation failed")

	// ErrCipherAuth is returned for every authentication failure: a bad
	// key, a bad nonce, a flipped ciphertext byte or a flipped AAD
	// byte all collapse to this single sentinel so that no caller can
	// distinguish "wrong key" from "tampered data" from an error
	// message alone.
	ErrCipherAuth = errors.New("envelope: authentication failed")

	// ErrNoMatchingKey is returned by Unlock when no populated keyslot
	// could be opened with the supplied secret.
	ErrNoMatchingKey = errors.New("envelope: no keyslot matches the supplied secret")

	// ErrNoEmptySlot is returned by AddKey when every keyslot is
	// already populated.
	ErrNoEmptySlot = errors.New("envelope: no empty keyslot available")

	// ErrLastSlot is returned by DeleteKey when asked to remove the
	// only remaining populated keyslot.
	ErrLastSlot = errors.New("envelope: refusing to delete the last keyslot")

	// ErrEmptySecret is returned when a user secret (passphrase, keyfile
	// bytes) is zero-length. This module rejects it by policy rather
	// than deriving a key from nothing.
	ErrEmptySecret = errors.New("envelope: empty secret")
)
