// Package stream implements the chunked codec used in stream mode:
// the payload is split into fixed-size blocks, each sealed
// independently under a nonce derived from a shared base and the
// block's position, so a decoder can detect truncation, reordering,
// or a dropped final block instead of silently emitting partial
// plaintext.
package stream

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/duskline/envelope/cipher"
	"github.com/duskline/envelope/primitive"
	"github.com/duskline/envelope/verr"
)

const sealedBlockSize = primitive.BlockSize + primitive.TagLen

// blockNonce builds the per-block AEAD nonce: the header's base nonce
// followed by a 3-byte little-endian block index and a trailing
// marker byte that is 0x01 for the terminal block and 0x00 for every
// block before it. Embedding the marker in the nonce, rather than in
// the plaintext or as separate metadata, means a truncated stream
// (one whose last block is missing) fails authentication instead of
// decrypting a prefix that looks complete.
func blockNonce(base []byte, index uint32, final bool) []byte {
	nonce := make([]byte, len(base)+4)
	copy(nonce, base)

	var counter [4]byte
	binary.LittleEndian.PutUint32(counter[:], index&0x00FFFFFF)
	if final {
		counter[3] = 0x01
	}
	copy(nonce[len(base):], counter[:])
	return nonce
}

// Encoder writes a sequence of sealed blocks to an underlying
// io.Writer. Callers must call Close to flush the final block, even
// if Write was never called (an empty payload still produces one
// sealed, empty, terminal block).
type Encoder struct {
	w     io.Writer
	aead  cipher.AEAD
	base  []byte
	aad   []byte
	idx   uint32
	buf   []byte
	ended bool
}

// NewEncoder returns an Encoder that seals blocks with aead, using
// base as the shared nonce prefix and aad as the associated data for
// every block.
func NewEncoder(w io.Writer, aead cipher.AEAD, base, aad []byte) *Encoder {
	return &Encoder{w: w, aead: aead, base: base, aad: aad}
}

// Write buffers p, flushing full, non-terminal blocks to the
// underlying writer as they fill.
func (e *Encoder) Write(p []byte) (int, error) {
	if e.ended {
		return 0, fmt.Errorf("%w: write after close", verr.ErrIO)
	}
	n := len(p)
	e.buf = append(e.buf, p...)
	for len(e.buf) >= primitive.BlockSize {
		if err := e.flush(e.buf[:primitive.BlockSize], false); err != nil {
			return 0, err
		}
		e.buf = e.buf[primitive.BlockSize:]
	}
	return n, nil
}

// Close flushes whatever remains buffered (fewer than BlockSize
// bytes, possibly none) as
// the terminal block. It is not safe to call Write after Close.
func (e *Encoder) Close() error {
	if e.ended {
		return nil
	}
	e.ended = true
	return e.flush(e.buf, true)
}

func (e *Encoder) flush(block []byte, final bool) error {
	nonce := blockNonce(e.base, e.idx, final)
	e.idx++

	sealed := e.aead.Seal(nil, nonce, block, e.aad)
	if _, err := e.w.Write(sealed); err != nil {
		return fmt.Errorf("%w: %v", verr.ErrIO, err)
	}
	return nil
}

// Decoder reads a sequence of sealed blocks from an underlying
// io.Reader, verifying and decrypting each in strict order.
type Decoder struct {
	r       io.Reader
	aead    cipher.AEAD
	base    []byte
	aad     []byte
	idx     uint32
	pending []byte
	done    bool
}

// NewDecoder returns a Decoder paired with the aead/base/aad an
// Encoder sealed the stream with. It reads the first raw block
// immediately so that an empty input can be told apart from a genuine
// I/O error at construction time.
func NewDecoder(r io.Reader, aead cipher.AEAD, base, aad []byte) (*Decoder, error) {
	d := &Decoder{r: r, aead: aead, base: base, aad: aad}
	first, err := readRawBlock(r)
	if err != nil {
		return nil, err
	}
	d.pending = first
	return d, nil
}

// Next returns the next decrypted block, or io.EOF once every block
// (including the terminal one) has been returned. A truncated stream
// — one that ends before a block carrying the terminal marker — fails
// with ErrCipherAuth on the block that turns out to have been cut
// short, since the index/marker pair baked into its nonce will not
// match what the encoder used.
func (d *Decoder) Next() ([]byte, error) {
	if d.done {
		return nil, io.EOF
	}

	nextRaw, err := readRawBlock(d.r)
	if err != nil {
		return nil, err
	}

	final := nextRaw == nil
	cur := d.pending
	if final {
		d.done = true
	} else {
		d.pending = nextRaw
	}

	nonce := blockNonce(d.base, d.idx, final)
	d.idx++

	pt, err := d.aead.Open(nil, nonce, cur, d.aad)
	if err != nil {
		return nil, err
	}
	return pt, nil
}

// readRawBlock reads up to sealedBlockSize bytes. It returns (nil,
// nil) on a clean end of stream (zero bytes available), the bytes
// read for a full or short final block, or a wrapped I/O error for
// anything else.
func readRawBlock(r io.Reader) ([]byte, error) {
	buf := make([]byte, sealedBlockSize)
	n, err := io.ReadFull(r, buf)
	switch err {
	case nil:
		return buf, nil
	case io.EOF:
		return nil, nil
	case io.ErrUnexpectedEOF:
		return buf[:n], nil
	default:
		return nil, fmt.Errorf("%w: %v", verr.ErrIO, err)
	}
}
