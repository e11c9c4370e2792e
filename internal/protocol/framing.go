// Package protocol implements the length-prefixed framing transport and the
// wire message shapes shared by the lobby, game, and persistence services.
//
// Every message on the wire is a 4-byte big-endian payload length followed by
// that many bytes of UTF-8 JSON.
package protocol

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single payload. Anything larger is treated as a
// corrupt stream and the connection should be dropped.
const MaxFrameSize = 1 << 20

// ErrClosed is returned by Read when the peer closed the stream at a message
// boundary. Callers treat it identically to an explicit disconnect.
var ErrClosed = errors.New("connection closed by peer")

// ErrFrameTooLarge is returned when a frame header exceeds MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// Write sends one framed payload.
func Write(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// Read receives one framed payload. An EOF at a frame boundary is reported as
// ErrClosed; an EOF mid-frame is an unexpected stream corruption error.
func Read(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("read frame header: %w", err)
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return payload, nil
}

// WriteJSON marshals v and sends it as one frame.
func WriteJSON(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	return Write(w, payload)
}

// ReadJSON receives one frame and unmarshals it into v.
func ReadJSON(r io.Reader, v any) error {
	payload, err := Read(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("unmarshal frame: %w", err)
	}
	return nil
}
