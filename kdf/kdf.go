// Package kdf derives per-keyslot encryption keys from a user secret
// and a random salt using Balloon hashing over BLAKE3, the same
// construction family used throughout this module's wire format
// (see the keyslot identifiers in package header).
package kdf

import (
	"fmt"

	"github.com/duskline/envelope/primitive"
	"github.com/duskline/envelope/secret"
	"github.com/duskline/envelope/verr"
)

// DeriveKey derives a 32-byte key from pw (a passphrase, raw keyfile
// bytes, or any other user secret) and salt under the Balloon
// parameter set named by v. It fails closed with
// ErrKdfUnsupportedVersion for any v this module does not recognise,
// and never silently substitutes a different parameter set.
func DeriveKey(pw *secret.Secret[secret.Bytes], salt [primitive.SaltLen]byte, v Version) (*secret.Secret[*secret.Array32], error) {
	p, ok := v.resolve()
	if !ok {
		return nil, fmt.Errorf("%w: %d", verr.ErrKdfUnsupportedVersion, v)
	}

	plain := pw.Expose()
	if len(plain) == 0 {
		return nil, verr.ErrEmptySecret
	}

	digest := balloon([]byte(plain), salt[:], p)
	if len(digest) != blockLen {
		return nil, verr.ErrKdfFailed
	}

	out := &secret.Array32{}
	copy(out[:], digest)
	for i := range digest {
		digest[i] = 0
	}
	return secret.New(out), nil
}
