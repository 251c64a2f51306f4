package envelope

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duskline/envelope/header"
	"github.com/duskline/envelope/primitive"
	"github.com/duskline/envelope/secret"
	"github.com/duskline/envelope/verr"
)

func pw(s string) *secret.Secret[secret.Bytes] {
	return secret.New(secret.Bytes(s))
}

func allParams() []Params {
	return []Params{
		{Algorithm: primitive.XChaCha20Poly1305, Mode: primitive.ModeMemory},
		{Algorithm: primitive.XChaCha20Poly1305, Mode: primitive.ModeStream},
		{Algorithm: primitive.Aes256GcmSiv, Mode: primitive.ModeMemory},
		{Algorithm: primitive.Aes256GcmSiv, Mode: primitive.ModeStream},
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	for _, p := range allParams() {
		p := p
		t.Run(p.Algorithm.String()+"_"+p.Mode.String(), func(t *testing.T) {
			require := require.New(t)

			plaintext := bytes.Repeat([]byte("round trip payload bytes "), 50000)

			var sealed bytes.Buffer
			require.NoError(Encrypt(bytes.NewReader(plaintext), &sealed, pw("correct horse"), p))

			var out bytes.Buffer
			require.NoError(Decrypt(bytes.NewReader(sealed.Bytes()), &out, pw("correct horse")))
			require.True(bytes.Equal(plaintext, out.Bytes()))
		})
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	require := require.New(t)

	var sealed bytes.Buffer
	require.NoError(Encrypt(bytes.NewReader([]byte("secret data")), &sealed,
		pw("right"), Params{Algorithm: primitive.XChaCha20Poly1305, Mode: primitive.ModeMemory}))

	var out bytes.Buffer
	err := Decrypt(bytes.NewReader(sealed.Bytes()), &out, pw("wrong"))
	require.ErrorIs(err, verr.ErrNoMatchingKey)
}

func TestDecryptTamperedPayloadFailsAuth(t *testing.T) {
	require := require.New(t)

	var sealed bytes.Buffer
	require.NoError(Encrypt(bytes.NewReader([]byte("tamper me if you can")), &sealed,
		pw("pw"), Params{Algorithm: primitive.Aes256GcmSiv, Mode: primitive.ModeMemory}))

	raw := sealed.Bytes()
	raw[len(raw)-1] ^= 0x01

	var out bytes.Buffer
	err := Decrypt(bytes.NewReader(raw), &out, pw("pw"))
	require.Error(err)
}

func TestHeaderAddChangeDeleteVerify(t *testing.T) {
	require := require.New(t)

	var sealed bytes.Buffer
	require.NoError(Encrypt(bytes.NewReader([]byte("payload")), &sealed,
		pw("alice"), Params{Algorithm: primitive.XChaCha20Poly1305, Mode: primitive.ModeMemory}))

	headerBytes, err := HeaderDump(bytes.NewReader(sealed.Bytes()))
	require.NoError(err)

	headerBytes, err = HeaderAddKey(headerBytes, pw("alice"), pw("bob"))
	require.NoError(err)

	ok, err := HeaderVerifyKey(headerBytes, pw("bob"))
	require.NoError(err)
	require.True(ok)

	headerBytes, err = HeaderChangeKey(headerBytes, pw("bob"), pw("bobby"))
	require.NoError(err)
	ok, err = HeaderVerifyKey(headerBytes, pw("bob"))
	require.NoError(err)
	require.False(ok)

	// Reassemble the file with the edited header and confirm decrypt
	// still succeeds for the untouched keyslot.
	var rebuilt bytes.Buffer
	payloadOnly := sealed.Bytes()[primitive.HeaderSize:]
	require.NoError(HeaderRestore(headerBytes, bytes.NewReader(payloadOnly), &rebuilt))

	var out bytes.Buffer
	require.NoError(Decrypt(bytes.NewReader(rebuilt.Bytes()), &out, pw("alice")))
	require.Equal("payload", out.String())

	headerBytes, err = HeaderDelKey(headerBytes, 1, header.AllowLastSlot)
	require.NoError(err)
	ok, err = HeaderVerifyKey(headerBytes, pw("bobby"))
	require.NoError(err)
	require.False(ok)
}

func TestHeaderDelKeyRejectsLastSlot(t *testing.T) {
	require := require.New(t)

	var sealed bytes.Buffer
	require.NoError(Encrypt(bytes.NewReader([]byte("x")), &sealed,
		pw("only"), Params{Algorithm: primitive.XChaCha20Poly1305, Mode: primitive.ModeMemory}))

	headerBytes, err := HeaderDump(bytes.NewReader(sealed.Bytes()))
	require.NoError(err)

	_, err = HeaderDelKey(headerBytes, 0, header.RejectLastSlot)
	require.ErrorIs(err, verr.ErrLastSlot)
}

func TestHeaderStripAndRestoreRoundTrip(t *testing.T) {
	require := require.New(t)

	var sealed bytes.Buffer
	require.NoError(Encrypt(bytes.NewReader([]byte("payload bytes")), &sealed,
		pw("pw"), Params{Algorithm: primitive.XChaCha20Poly1305, Mode: primitive.ModeMemory}))

	headerBytes, err := HeaderDump(bytes.NewReader(sealed.Bytes()))
	require.NoError(err)

	var stripped bytes.Buffer
	require.NoError(HeaderStrip(bytes.NewReader(sealed.Bytes()), &stripped))
	require.Equal(sealed.Len()-primitive.HeaderSize, stripped.Len())

	var restored bytes.Buffer
	require.NoError(HeaderRestore(headerBytes, bytes.NewReader(stripped.Bytes()), &restored))
	require.Equal(sealed.Bytes(), restored.Bytes())
}
