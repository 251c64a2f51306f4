package cipher

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duskline/envelope/primitive"
	"github.com/duskline/envelope/secret"
)

func randomKey(t *testing.T) *secret.Secret[*secret.Array32] {
	t.Helper()
	k := &secret.Array32{}
	_, err := rand.Read(k[:])
	require.NoError(t, err)
	return secret.New(k)
}

func testRoundTrip(t *testing.T, alg primitive.Algorithm) {
	require := require.New(t)

	c, err := New(alg, randomKey(t))
	require.NoError(err)
	defer c.Destroy()

	nonce := make([]byte, c.NonceSize())
	_, err = rand.Read(nonce)
	require.NoError(err)

	plaintext := []byte("the quick brown fox jumps over the lazy dog, several times over")
	aad := []byte("associated data")

	ct := c.Seal(nil, nonce, plaintext, aad)
	require.Len(ct, len(plaintext)+c.Overhead())

	pt, err := c.Open(nil, nonce, ct, aad)
	require.NoError(err)
	require.True(bytes.Equal(pt, plaintext))
}

func TestXChaCha20Poly1305RoundTrip(t *testing.T) {
	testRoundTrip(t, primitive.XChaCha20Poly1305)
}

func TestAes256GcmSivRoundTrip(t *testing.T) {
	testRoundTrip(t, primitive.Aes256GcmSiv)
}

func testEmptyPlaintext(t *testing.T, alg primitive.Algorithm) {
	require := require.New(t)

	c, err := New(alg, randomKey(t))
	require.NoError(err)
	defer c.Destroy()

	nonce := make([]byte, c.NonceSize())
	ct := c.Seal(nil, nonce, nil, []byte("aad only"))
	require.Len(ct, c.Overhead())

	pt, err := c.Open(nil, nonce, ct, []byte("aad only"))
	require.NoError(err)
	require.Empty(pt)
}

func TestXChaCha20Poly1305EmptyPlaintext(t *testing.T) {
	testEmptyPlaintext(t, primitive.XChaCha20Poly1305)
}

func TestAes256GcmSivEmptyPlaintext(t *testing.T) {
	testEmptyPlaintext(t, primitive.Aes256GcmSiv)
}

func testTamperDetection(t *testing.T, alg primitive.Algorithm) {
	require := require.New(t)

	c, err := New(alg, randomKey(t))
	require.NoError(err)
	defer c.Destroy()

	nonce := make([]byte, c.NonceSize())
	plaintext := []byte("sensitive payload")
	aad := []byte("header bytes")
	ct := c.Seal(nil, nonce, plaintext, aad)

	t.Run("flipped ciphertext byte", func(t *testing.T) {
		bad := append([]byte{}, ct...)
		bad[0] ^= 0x01
		_, err := c.Open(nil, nonce, bad, aad)
		require.Error(t, err)
	})

	t.Run("flipped tag byte", func(t *testing.T) {
		bad := append([]byte{}, ct...)
		bad[len(bad)-1] ^= 0x01
		_, err := c.Open(nil, nonce, bad, aad)
		require.Error(t, err)
	})

	t.Run("flipped aad byte", func(t *testing.T) {
		badAAD := append([]byte{}, aad...)
		badAAD[0] ^= 0x01
		_, err := c.Open(nil, nonce, ct, badAAD)
		require.Error(t, err)
	})

	t.Run("wrong key", func(t *testing.T) {
		c2, err := New(alg, randomKey(t))
		require.NoError(err)
		defer c2.Destroy()
		_, err = c2.Open(nil, nonce, ct, aad)
		require.Error(t, err)
	})
}

func TestXChaCha20Poly1305TamperDetection(t *testing.T) {
	testTamperDetection(t, primitive.XChaCha20Poly1305)
}

func TestAes256GcmSivTamperDetection(t *testing.T) {
	testTamperDetection(t, primitive.Aes256GcmSiv)
}

func TestAes256GcmSivMultiBlock(t *testing.T) {
	require := require.New(t)

	c, err := New(primitive.Aes256GcmSiv, randomKey(t))
	require.NoError(err)
	defer c.Destroy()

	nonce := make([]byte, c.NonceSize())
	plaintext := bytes.Repeat([]byte{0x42}, 3*16+7) // spans multiple CTR blocks, unaligned tail
	ct := c.Seal(nil, nonce, plaintext, nil)
	pt, err := c.Open(nil, nonce, ct, nil)
	require.NoError(err)
	require.True(bytes.Equal(pt, plaintext))
}

func TestInvalidKeySize(t *testing.T) {
	require := require.New(t)

	_, err := newXChaCha20Poly1305(make([]byte, 10))
	require.Error(err)

	_, err = newAes256GcmSiv(make([]byte, 10))
	require.Error(err)
}
