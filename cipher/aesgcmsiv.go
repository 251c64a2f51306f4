package cipher

import (
	"crypto/aes"
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/duskline/envelope/verr"
)

// aes256GcmSiv implements AEAD_AES_256_GCM_SIV as specified in RFC
// 8452: a nonce-misuse-resistant construction built from per-nonce
// subkey derivation, a POLYVAL universal hash, and AES-CTR.
//
// No third-party Go implementation of this construction is grounded
// in the retrieved example corpus or known with confidence in the
// wider ecosystem, so it is written directly against crypto/aes and
// crypto/subtle (see the module's design notes).
type aes256GcmSiv struct {
	key [32]byte
}

const (
	gcmSivKeySize   = 32
	gcmSivNonceSize = 12
	gcmSivTagSize   = 16
)

func newAes256GcmSiv(key []byte) (*aes256GcmSiv, error) {
	if len(key) != gcmSivKeySize {
		return nil, fmt.Errorf("%w: want %d-byte key, got %d", verr.ErrCipherInit, gcmSivKeySize, len(key))
	}
	c := &aes256GcmSiv{}
	copy(c.key[:], key)
	return c, nil
}

func (c *aes256GcmSiv) NonceSize() int { return gcmSivNonceSize }
func (c *aes256GcmSiv) Overhead() int  { return gcmSivTagSize }

func (c *aes256GcmSiv) Destroy() {
	for i := range c.key {
		c.key[i] = 0
	}
}

// deriveSubkeys implements RFC 8452 section 2: six AES-ECB block
// encryptions of LE32(counter) || nonce under the top-level key, each
// contributing its low 8 bytes to either the message authentication
// key (counters 0-1, 16 bytes) or the message encryption key
// (counters 2-5, 32 bytes for the 256-bit variant).
func (c *aes256GcmSiv) deriveSubkeys(nonce []byte) (macKey [16]byte, encKey [32]byte, err error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return macKey, encKey, fmt.Errorf("%w: %v", verr.ErrCipherInit, err)
	}

	var lowBytes [6][8]byte
	var in, out [16]byte
	copy(in[4:16], nonce)
	for i := 0; i < 6; i++ {
		binary.LittleEndian.PutUint32(in[0:4], uint32(i))
		block.Encrypt(out[:], in[:])
		copy(lowBytes[i][:], out[:8])
	}

	copy(macKey[0:8], lowBytes[0][:])
	copy(macKey[8:16], lowBytes[1][:])
	copy(encKey[0:8], lowBytes[2][:])
	copy(encKey[8:16], lowBytes[3][:])
	copy(encKey[16:24], lowBytes[4][:])
	copy(encKey[24:32], lowBytes[5][:])
	return macKey, encKey, nil
}

// computeTag implements RFC 8452 section 4 steps 3-5: POLYVAL over
// AAD, plaintext, and a trailing bit-length block, XORed with the
// zero-padded nonce, with the top bit of the final byte cleared, then
// encrypted under the message encryption key.
func computeTag(encKey [32]byte, macKey [16]byte, nonce, aad, plaintext []byte) ([16]byte, error) {
	blocks := append(padBlocks(aad), padBlocks(plaintext)...)
	var lenBlock [16]byte
	binary.LittleEndian.PutUint64(lenBlock[0:8], uint64(len(aad))*8)
	binary.LittleEndian.PutUint64(lenBlock[8:16], uint64(len(plaintext))*8)
	blocks = append(blocks, lenBlock)

	s := polyvalHash(macKey, blocks...)

	var noncePadded [16]byte
	copy(noncePadded[:12], nonce)
	for i := range s {
		s[i] ^= noncePadded[i]
	}
	s[15] &= 0x7f

	block, err := aes.NewCipher(encKey[:])
	if err != nil {
		return [16]byte{}, fmt.Errorf("%w: %v", verr.ErrCipherInit, err)
	}
	var tag [16]byte
	block.Encrypt(tag[:], s[:])
	return tag, nil
}

// ctrXor runs AES-CTR under encKey, seeded from seedBlock with its top
// bit forced to 1 per RFC 8452 section 4 step 6, incrementing the low
// 32 bits of the block as a little-endian counter.
func ctrXor(encKey [32]byte, seedBlock [16]byte, in []byte) ([]byte, error) {
	block, err := aes.NewCipher(encKey[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", verr.ErrCipherInit, err)
	}

	var counterBlock [16]byte
	copy(counterBlock[:], seedBlock[:])
	counterBlock[15] |= 0x80
	ctr := binary.LittleEndian.Uint32(counterBlock[0:4])

	out := make([]byte, len(in))
	var keystream [16]byte
	for i := 0; i < len(in); i += 16 {
		block.Encrypt(keystream[:], counterBlock[:])
		end := i + 16
		if end > len(in) {
			end = len(in)
		}
		for j := i; j < end; j++ {
			out[j] = in[j] ^ keystream[j-i]
		}
		ctr++
		binary.LittleEndian.PutUint32(counterBlock[0:4], ctr)
	}
	return out, nil
}

func (c *aes256GcmSiv) Seal(dst, nonce, plaintext, aad []byte) []byte {
	if len(nonce) != gcmSivNonceSize {
		panic(verr.ErrCipherInit)
	}

	macKey, encKey, err := c.deriveSubkeys(nonce)
	if err != nil {
		panic(err)
	}
	tag, err := computeTag(encKey, macKey, nonce, aad, plaintext)
	if err != nil {
		panic(err)
	}
	ct, err := ctrXor(encKey, tag, plaintext)
	if err != nil {
		panic(err)
	}

	ret, out := sliceForAppend(dst, len(plaintext)+gcmSivTagSize)
	copy(out, ct)
	copy(out[len(ct):], tag[:])
	return ret
}

func (c *aes256GcmSiv) Open(dst, nonce, ciphertext, aad []byte) ([]byte, error) {
	if len(nonce) != gcmSivNonceSize {
		panic(verr.ErrCipherInit)
	}
	if len(ciphertext) < gcmSivTagSize {
		return nil, verr.ErrCipherAuth
	}

	ctBody := ciphertext[:len(ciphertext)-gcmSivTagSize]
	var receivedTag [16]byte
	copy(receivedTag[:], ciphertext[len(ciphertext)-gcmSivTagSize:])

	macKey, encKey, err := c.deriveSubkeys(nonce)
	if err != nil {
		return nil, err
	}

	plaintext, err := ctrXor(encKey, receivedTag, ctBody)
	if err != nil {
		return nil, err
	}

	expectedTag, err := computeTag(encKey, macKey, nonce, aad, plaintext)
	if err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare(expectedTag[:], receivedTag[:]) != 1 {
		for i := range plaintext {
			plaintext[i] = 0
		}
		return nil, verr.ErrCipherAuth
	}

	ret, out := sliceForAppend(dst, len(plaintext))
	copy(out, plaintext)
	return ret, nil
}
