// Package worker runs queries in an isolated child process reached over a
// framed pipe, so blocking drivers can be cancelled by force and driver
// crashes cannot take down the UI.
package worker

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
)

// MaxFrameSize bounds a single frame payload.
const MaxFrameSize = 64 << 20

// WriteFrame sends one message as a 4-byte big-endian length followed by
// the JSON payload.
func WriteFrame(w io.Writer, msg *Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if len(payload) > MaxFrameSize {
		return errors.Newf("frame of %d bytes exceeds limit", len(payload))
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed message.
func ReadFrame(r io.Reader) (*Message, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return nil, errors.Newf("frame of %d bytes exceeds limit", n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
