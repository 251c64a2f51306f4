package envelope

import (
	"fmt"
	"io"

	"github.com/duskline/envelope/header"
	"github.com/duskline/envelope/primitive"
	"github.com/duskline/envelope/secret"
	"github.com/duskline/envelope/verr"
)

// HeaderAddKey unlocks headerBytes with existingPw, wraps the
// resulting master key under newPw in the first empty keyslot, and
// returns the updated header bytes. It never touches payload bytes:
// callers write the returned header back over the original one.
func HeaderAddKey(headerBytes []byte, existingPw, newPw *secret.Secret[secret.Bytes]) ([]byte, error) {
	h, err := parseHeader(headerBytes)
	if err != nil {
		return nil, err
	}

	master, _, err := h.Unlock(existingPw)
	if err != nil {
		return nil, err
	}
	defer master.Destroy()

	if _, err := h.AddKey(newPw, master); err != nil {
		return nil, err
	}
	return h.MarshalBinary()
}

// HeaderChangeKey re-wraps the master key unlocked by oldPw under
// newPw, in the same slot, and returns the updated header bytes.
func HeaderChangeKey(headerBytes []byte, oldPw, newPw *secret.Secret[secret.Bytes]) ([]byte, error) {
	h, err := parseHeader(headerBytes)
	if err != nil {
		return nil, err
	}
	if err := h.ChangeKey(oldPw, newPw); err != nil {
		return nil, err
	}
	return h.MarshalBinary()
}

// HeaderDelKey removes the keyslot at idx and returns the updated
// header bytes. It returns verr.ErrLastSlot under RejectLastSlot if
// idx names the only populated slot.
func HeaderDelKey(headerBytes []byte, idx int, policy header.LastSlotPolicy) ([]byte, error) {
	h, err := parseHeader(headerBytes)
	if err != nil {
		return nil, err
	}
	if err := h.DeleteKey(idx, policy); err != nil {
		return nil, err
	}
	return h.MarshalBinary()
}

// HeaderVerifyKey reports whether pw unlocks any populated keyslot in
// headerBytes.
func HeaderVerifyKey(headerBytes []byte, pw *secret.Secret[secret.Bytes]) (bool, error) {
	h, err := parseHeader(headerBytes)
	if err != nil {
		return false, err
	}
	return h.VerifyKey(pw), nil
}

func parseHeader(headerBytes []byte) (*header.Header, error) {
	h := &header.Header{}
	if err := h.UnmarshalBinary(headerBytes); err != nil {
		return nil, err
	}
	return h, nil
}

// HeaderDump reads and returns the fixed HeaderSize header region from
// the front of r, without validating it: dumping a header makes no
// claim about whether it parses.
func HeaderDump(r io.Reader) ([]byte, error) {
	buf := make([]byte, primitive.HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", verr.ErrIO, err)
	}
	return buf, nil
}

// HeaderStrip copies r to w with its leading header region removed,
// leaving a bare payload stream.
func HeaderStrip(r io.Reader, w io.Writer) error {
	if _, err := HeaderDump(r); err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("%w: %v", verr.ErrIO, err)
	}
	return nil
}

// HeaderRestore writes headerBytes followed by r's remaining contents
// to w, the inverse of HeaderStrip. headerBytes must be exactly
// primitive.HeaderSize long; its contents are not otherwise validated.
func HeaderRestore(headerBytes []byte, r io.Reader, w io.Writer) error {
	if len(headerBytes) != primitive.HeaderSize {
		return fmt.Errorf("%w: header must be %d bytes, got %d", verr.ErrHeaderTruncated, primitive.HeaderSize, len(headerBytes))
	}
	if _, err := w.Write(headerBytes); err != nil {
		return fmt.Errorf("%w: %v", verr.ErrIO, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("%w: %v", verr.ErrIO, err)
	}
	return nil
}
