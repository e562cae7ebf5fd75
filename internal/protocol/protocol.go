package protocol

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	// frameDelim terminates every frame, including the last one in a batch.
	frameDelim = '|'
	// fieldDelim separates the command from the payload. Only the first
	// occurrence is significant; payloads may contain colons.
	fieldDelim = ':'

	maxFrameSize = 64 * 1024 // 64KB per frame
)

// Message is one decoded command/payload pair.
type Message struct {
	Command string
	Payload string
}

// FramingError reports a malformed frame. The connection survives a framing
// error; the offending fragment is discarded and decoding continues.
type FramingError struct {
	Fragment string
	Reason   string
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("framing error: %s in %q", e.Reason, e.Fragment)
}

// Encode produces one self-delimited `command:payload|` frame.
//
// The command must be non-empty and must not contain either delimiter; the
// payload must not contain the frame delimiter. Callers own that contract,
// encode rejects violations instead of emitting an ambiguous frame.
func Encode(command, payload string) ([]byte, error) {
	if command == "" {
		return nil, fmt.Errorf("encode: empty command")
	}
	if strings.ContainsRune(command, fieldDelim) || strings.ContainsRune(command, frameDelim) {
		return nil, fmt.Errorf("encode: command %q contains delimiter", command)
	}
	if strings.ContainsRune(payload, frameDelim) {
		return nil, fmt.Errorf("encode: payload contains frame delimiter")
	}
	if len(command)+len(payload)+2 > maxFrameSize {
		return nil, fmt.Errorf("encode: frame size %d exceeds maximum %d bytes", len(command)+len(payload)+2, maxFrameSize)
	}

	out := make([]byte, 0, len(command)+len(payload)+2)
	out = append(out, command...)
	out = append(out, fieldDelim)
	out = append(out, payload...)
	out = append(out, frameDelim)
	return out, nil
}

// Decoder accumulates bytes from a stream and yields complete frames.
// A partial frame at the tail of a read is buffered and combined with
// subsequent bytes, never dispatched prematurely or dropped.
type Decoder struct {
	buf []byte
}

// Feed consumes complete frames from p plus any previously buffered
// remainder. It returns every fully decoded message in arrival order.
//
// A fragment without a command separator yields a *FramingError; frames
// already decoded before the bad fragment are still returned, and the
// decoder stays usable for subsequent reads.
func (d *Decoder) Feed(p []byte) ([]Message, error) {
	d.buf = append(d.buf, p...)

	var msgs []Message
	for {
		i := bytes.IndexByte(d.buf, frameDelim)
		if i < 0 {
			break
		}
		frag := string(d.buf[:i])
		d.buf = d.buf[i+1:]

		cmd, payload, ok := strings.Cut(frag, string(fieldDelim))
		if !ok || cmd == "" {
			return msgs, &FramingError{Fragment: frag, Reason: "missing command separator"}
		}
		msgs = append(msgs, Message{Command: cmd, Payload: payload})
	}

	if len(d.buf) > maxFrameSize {
		frag := string(d.buf)
		d.buf = nil
		return msgs, &FramingError{Fragment: frag[:64], Reason: "unterminated frame exceeds maximum size"}
	}
	return msgs, nil
}

// Buffered reports how many bytes of an incomplete frame are pending.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}
