package msgpack

import (
	"math"

	"github.com/wippyai/msgpack/errors"
	"github.com/wippyai/msgpack/internal/endian"
)

// Unpacker deserializes one item at a time out of a caller-supplied
// buffer into its current-item record. Blob items alias the buffer; no
// copies are made.
//
// Not safe for concurrent use. Independent Unpackers over independent
// buffers may run on different goroutines without synchronization.
type Unpacker struct {
	context
	item    Item
	handler UnderflowHandler
}

// NewUnpacker wraps buf in a fresh unpack context. handler may be nil,
// in which case running out of bytes is fatal for the context. The
// endian self-check runs here; on mismatch the unpacker is not
// constructed.
func NewUnpacker(buf []byte, handler UnderflowHandler) (*Unpacker, error) {
	ctx, err := initContext(buf)
	if err != nil {
		return nil, err
	}
	return &Unpacker{context: ctx, handler: handler}, nil
}

// Item returns the current-item record. It is overwritten by every
// Next call.
func (u *Unpacker) Item() *Item {
	return &u.item
}

// stopped rejects operations on a poisoned context without touching
// the buffer.
func (u *Unpacker) stopped() error {
	if u.err == nil {
		return nil
	}
	return errors.Stopped(errors.PhaseUnpack)
}

// demand guarantees k readable bytes, invoking the underflow handler
// if the window is short. atBoundary selects the failure code: end of
// input for the first byte of an item (legitimate stream end), buffer
// underflow for every byte after it (truncated item). A handler's
// end-of-input return is translated the same way.
func (u *Unpacker) demand(k int, atBoundary bool) error {
	if len(u.buf)-u.pos >= k {
		return nil
	}
	boundaryCode := func() *errors.Error {
		if atBoundary {
			return errors.EndOfInput(u.Offset())
		}
		return errors.BufferUnderflow(u.Offset(), k)
	}
	if u.handler == nil {
		return u.poison(boundaryCode())
	}
	if err := u.handler(u, k); err != nil {
		if errors.Is(err, errors.ErrEndOfInput) {
			return u.poison(boundaryCode())
		}
		return u.poison(err)
	}
	return nil
}

// loadUint reads an n-byte big-endian unsigned field. n is 1, 2, 4
// or 8; the caller has already consumed the tag byte, so exhaustion
// here is a truncated item.
func (u *Unpacker) loadUint(n int) (uint64, error) {
	if err := u.demand(n, false); err != nil {
		return 0, err
	}
	var v uint64
	switch n {
	case 1:
		v = uint64(u.buf[u.pos])
	case 2:
		v = uint64(endian.Uint16(u.buf[u.pos:]))
	case 4:
		v = uint64(endian.Uint32(u.buf[u.pos:]))
	default:
		v = endian.Uint64(u.buf[u.pos:])
	}
	u.pos += n
	return v, nil
}

// takeBlob records a zero-copy blob of the given length at the cursor
// and advances past it.
func (u *Unpacker) takeBlob(length uint32) error {
	if err := u.demand(int(length), false); err != nil {
		return err
	}
	u.item.Blob = u.buf[u.pos : u.pos+int(length)]
	u.pos += int(length)
	return nil
}

// setSigned records an integer item, normalizing the type: any value
// that is non-negative reports as positive integer, regardless of the
// wire slot that carried it.
func (u *Unpacker) setSigned(i int64) {
	u.item.I64 = i
	u.item.U64 = uint64(i)
	if i >= 0 {
		u.item.Type = ItemPositiveInteger
	} else {
		u.item.Type = ItemNegativeInteger
	}
}

func (u *Unpacker) setUnsigned(v uint64) {
	u.item.Type = ItemPositiveInteger
	u.item.U64 = v
	u.item.I64 = int64(v)
}

// fixExt handles the fixext family: type byte first, then a payload of
// fixed length.
func (u *Unpacker) fixExt(length uint32) error {
	if err := u.demand(1, false); err != nil {
		return err
	}
	u.item.Type = ItemType(int8(u.buf[u.pos]))
	u.pos++
	return u.takeBlob(length)
}

// varExt handles ext 8/16/32: length field first, then type byte, then
// payload.
func (u *Unpacker) varExt(lengthBytes int) error {
	length, err := u.loadUint(lengthBytes)
	if err != nil {
		return err
	}
	if err := u.demand(1, false); err != nil {
		return err
	}
	u.item.Type = ItemType(int8(u.buf[u.pos]))
	u.pos++
	return u.takeBlob(uint32(length))
}

// Next reads one item from the stream into the current-item record.
// Running out of bytes before the first byte of the item reports end
// of input; running out inside the item reports buffer underflow.
func (u *Unpacker) Next() error {
	if err := u.stopped(); err != nil {
		return err
	}

	if err := u.demand(1, true); err != nil {
		return err
	}
	c := u.buf[u.pos]
	u.pos++

	u.item.Blob = nil

	switch {
	case c <= 0x7f: // positive fixint
		u.setUnsigned(uint64(c))

	case c <= 0x8f: // fixmap
		u.item.Type = ItemMap
		u.item.Size = uint32(c & FixMapMask)

	case c <= 0x9f: // fixarray
		u.item.Type = ItemArray
		u.item.Size = uint32(c & FixArrayMask)

	case c <= 0xbf: // fixstr
		u.item.Type = ItemStr
		return u.takeBlob(uint32(c & FixStrMask))

	case c == TagNil:
		u.item.Type = ItemNil

	case c == TagReserved:
		return u.poison(errors.MalformedInput(u.Offset()-1, c))

	case c == TagFalse:
		u.item.Type = ItemBoolean
		u.item.Bool = false

	case c == TagTrue:
		u.item.Type = ItemBoolean
		u.item.Bool = true

	case c == TagBin8, c == TagBin16, c == TagBin32:
		u.item.Type = ItemBin
		length, err := u.loadUint(1 << (c - TagBin8))
		if err != nil {
			return err
		}
		return u.takeBlob(uint32(length))

	case c == TagExt8, c == TagExt16, c == TagExt32:
		return u.varExt(1 << (c - TagExt8))

	case c == TagFloat32:
		u.item.Type = ItemFloat
		bits, err := u.loadUint(4)
		if err != nil {
			return err
		}
		u.item.F64 = float64(math.Float32frombits(uint32(bits)))

	case c == TagFloat64:
		u.item.Type = ItemDouble
		bits, err := u.loadUint(8)
		if err != nil {
			return err
		}
		u.item.F64 = math.Float64frombits(bits)

	case c == TagUint8, c == TagUint16, c == TagUint32, c == TagUint64:
		v, err := u.loadUint(1 << (c - TagUint8))
		if err != nil {
			return err
		}
		u.setUnsigned(v)

	case c == TagInt8:
		v, err := u.loadUint(1)
		if err != nil {
			return err
		}
		u.setSigned(int64(int8(v)))

	case c == TagInt16:
		v, err := u.loadUint(2)
		if err != nil {
			return err
		}
		u.setSigned(int64(int16(v)))

	case c == TagInt32:
		v, err := u.loadUint(4)
		if err != nil {
			return err
		}
		u.setSigned(int64(int32(v)))

	case c == TagInt64:
		v, err := u.loadUint(8)
		if err != nil {
			return err
		}
		u.setSigned(int64(v))

	case c == TagFixExt1:
		return u.fixExt(1)
	case c == TagFixExt2:
		return u.fixExt(2)
	case c == TagFixExt4:
		return u.fixExt(4)
	case c == TagFixExt8:
		return u.fixExt(8)
	case c == TagFixExt16:
		return u.fixExt(16)

	case c == TagStr8, c == TagStr16, c == TagStr32:
		u.item.Type = ItemStr
		length, err := u.loadUint(1 << (c - TagStr8))
		if err != nil {
			return err
		}
		return u.takeBlob(uint32(length))

	case c == TagArray16, c == TagArray32:
		u.item.Type = ItemArray
		size, err := u.loadUint(2 << (c - TagArray16))
		if err != nil {
			return err
		}
		u.item.Size = uint32(size)

	case c == TagMap16, c == TagMap32:
		u.item.Type = ItemMap
		size, err := u.loadUint(2 << (c - TagMap16))
		if err != nil {
			return err
		}
		u.item.Size = uint32(size)

	default: // 0xe0..0xff, negative fixint
		u.setSigned(int64(int8(c)))
	}

	return nil
}
