package msgpack

import (
	"github.com/wippyai/msgpack/errors"
	"github.com/wippyai/msgpack/internal/endian"
)

// endianCheck is a hook so tests can force the failure path.
var endianCheck = endian.Check

// OverflowHandler is called by a Packer when a write would not fit in
// the remaining window. requested is the number of bytes the pending
// item needs. A nil return means the handler has made at least
// requested contiguous bytes writable, typically by flushing the filled
// window and calling Reset or SetBuffer. Any error return is stored as
// the context's sticky code and propagated.
type OverflowHandler func(p *Packer, requested int) error

// UnderflowHandler is called by an Unpacker when it needs more bytes
// than the window holds. requested is the total contiguous byte count
// the current read needs. A nil return means the handler has made at
// least requested bytes readable. Returning an end-of-input error is
// translated by the caller: at an item boundary it becomes the sticky
// end-of-input code, mid-item it becomes buffer underflow. Any other
// error is stored verbatim.
type UnderflowHandler func(u *Unpacker, requested int) error

// context is the buffer discipline shared by Packer and Unpacker: the
// window, the cursor, the sticky code and the caller's errno slot.
// The window invariant is 0 <= pos <= len(buf) at every observable
// point; the cursor only moves forward. Replacing the window via
// SetBuffer or Reset is the only rewind-like operation, and only
// handlers are expected to do it mid-operation.
type context struct {
	buf      []byte
	pos      int
	consumed int64 // bytes retired by earlier windows
	err      error // sticky; non-nil means poisoned

	// Errno is a caller-settable slot. The codec initializes it to
	// zero and never touches it again.
	Errno int
}

// Buffer returns the current window.
func (c *context) Buffer() []byte {
	return c.buf
}

// Pos returns the cursor position within the current window.
func (c *context) Pos() int {
	return c.pos
}

// Remaining returns the number of bytes between the cursor and the end
// of the window.
func (c *context) Remaining() int {
	return len(c.buf) - c.pos
}

// Offset returns the cursor position within the whole stream, counting
// bytes retired by windows that handlers have since replaced.
func (c *context) Offset() int64 {
	return c.consumed + int64(c.pos)
}

// SetBuffer replaces the window and moves the cursor to its start.
// Bytes before the cursor in the old window count as consumed stream.
func (c *context) SetBuffer(buf []byte) {
	c.consumed += int64(c.pos)
	c.buf = buf
	c.pos = 0
}

// Reset keeps the window but moves the cursor back to its start, the
// flush-and-rewind shape an overflow handler uses after draining the
// filled part.
func (c *context) Reset() {
	c.consumed += int64(c.pos)
	c.pos = 0
}

// ReturnCode returns the sticky status: nil while the context is
// usable, otherwise the first error that poisoned it.
func (c *context) ReturnCode() error {
	return c.err
}

// poison latches the first non-OK outcome. Later calls keep the
// original code.
func (c *context) poison(err error) error {
	if c.err == nil {
		c.err = err
	}
	return err
}

// initContext runs the endian self-check and hands back a fresh window.
// A failed check is permanent for the process, so the context is never
// constructed.
func initContext(buf []byte) (context, error) {
	if !endianCheck() {
		return context{}, errors.WrongByteOrder()
	}
	return context{buf: buf}, nil
}
