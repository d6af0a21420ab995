package msgpack

import (
	"math"

	"github.com/wippyai/msgpack/errors"
	"github.com/wippyai/msgpack/internal/endian"
)

// Packer serializes one item at a time into a caller-supplied buffer,
// always choosing the shortest legal encoding. It owns no storage
// beyond its own state; the buffer belongs to the caller.
//
// Not safe for concurrent use. Independent Packers over independent
// buffers may run on different goroutines without synchronization.
type Packer struct {
	context
	handler OverflowHandler
}

// NewPacker wraps buf in a fresh pack context. handler may be nil, in
// which case running out of room is fatal for the context. The endian
// self-check runs here; on mismatch the packer is not constructed.
func NewPacker(buf []byte, handler OverflowHandler) (*Packer, error) {
	ctx, err := initContext(buf)
	if err != nil {
		return nil, err
	}
	return &Packer{context: ctx, handler: handler}, nil
}

// Bytes returns the written prefix of the current window.
func (p *Packer) Bytes() []byte {
	return p.buf[:p.pos]
}

// reserve guarantees room for k more bytes, invoking the overflow
// handler if the window is short. A handler that returns nil must have
// made k bytes writable; the codec trusts it and keeps writing.
func (p *Packer) reserve(k int) error {
	if len(p.buf)-p.pos >= k {
		return nil
	}
	if p.handler == nil {
		return p.poison(errors.BufferOverflow(p.Offset(), k))
	}
	if err := p.handler(p, k); err != nil {
		return p.poison(err)
	}
	return nil
}

// stopped rejects operations on a poisoned context without touching
// the buffer.
func (p *Packer) stopped() error {
	if p.err == nil {
		return nil
	}
	return errors.Stopped(errors.PhasePack)
}

func (p *Packer) put0(tag byte) error {
	if err := p.reserve(1); err != nil {
		return err
	}
	p.buf[p.pos] = tag
	p.pos++
	return nil
}

func (p *Packer) put1(tag, d byte) error {
	if err := p.reserve(2); err != nil {
		return err
	}
	p.buf[p.pos] = tag
	p.buf[p.pos+1] = d
	p.pos += 2
	return nil
}

func (p *Packer) put2(tag byte, d uint16) error {
	if err := p.reserve(3); err != nil {
		return err
	}
	p.buf[p.pos] = tag
	endian.PutUint16(p.buf[p.pos+1:], d)
	p.pos += 3
	return nil
}

func (p *Packer) put4(tag byte, d uint32) error {
	if err := p.reserve(5); err != nil {
		return err
	}
	p.buf[p.pos] = tag
	endian.PutUint32(p.buf[p.pos+1:], d)
	p.pos += 5
	return nil
}

func (p *Packer) put8(tag byte, d uint64) error {
	if err := p.reserve(9); err != nil {
		return err
	}
	p.buf[p.pos] = tag
	endian.PutUint64(p.buf[p.pos+1:], d)
	p.pos += 9
	return nil
}

// PackUnsigned emits i in the shortest unsigned form: positive fixint,
// then uint 8/16/32/64.
func (p *Packer) PackUnsigned(i uint64) error {
	if err := p.stopped(); err != nil {
		return err
	}
	switch {
	case i <= MaxFixUint:
		return p.put0(byte(i))
	case i <= MaxUint8:
		return p.put1(TagUint8, byte(i))
	case i <= MaxUint16:
		return p.put2(TagUint16, uint16(i))
	case i <= MaxUint32:
		return p.put4(TagUint32, uint32(i))
	default:
		return p.put8(TagUint64, i)
	}
}

// PackSigned emits i in the shortest signed form. Non-negative values
// delegate to the unsigned ladder, so they never occupy a signed slot.
func (p *Packer) PackSigned(i int64) error {
	if err := p.stopped(); err != nil {
		return err
	}
	if i >= 0 {
		return p.PackUnsigned(uint64(i))
	}
	switch {
	case i >= MinFixInt:
		return p.put0(byte(i))
	case i >= math.MinInt8:
		return p.put1(TagInt8, byte(i))
	case i >= math.MinInt16:
		return p.put2(TagInt16, uint16(i))
	case i >= math.MinInt32:
		return p.put4(TagInt32, uint32(i))
	default:
		return p.put8(TagInt64, uint64(i))
	}
}

// PackFloat emits f as float 32, big-endian IEEE-754 bit pattern.
func (p *Packer) PackFloat(f float32) error {
	if err := p.stopped(); err != nil {
		return err
	}
	return p.put4(TagFloat32, math.Float32bits(f))
}

// PackDouble emits d as float 64, big-endian IEEE-754 bit pattern.
func (p *Packer) PackDouble(d float64) error {
	if err := p.stopped(); err != nil {
		return err
	}
	return p.put8(TagFloat64, math.Float64bits(d))
}

// PackNil emits the nil item.
func (p *Packer) PackNil() error {
	if err := p.stopped(); err != nil {
		return err
	}
	return p.put0(TagNil)
}

// PackBoolean emits true or false.
func (p *Packer) PackBoolean(b bool) error {
	if err := p.stopped(); err != nil {
		return err
	}
	if b {
		return p.put0(TagTrue)
	}
	return p.put0(TagFalse)
}

// PackArraySize emits an array header announcing n following elements.
// The caller must emit exactly n items afterwards; the codec does not
// track container nesting.
func (p *Packer) PackArraySize(n uint32) error {
	if err := p.stopped(); err != nil {
		return err
	}
	switch {
	case n <= MaxFixCount:
		return p.put0(FixArrayPrefix | byte(n))
	case n <= MaxUint16:
		return p.put2(TagArray16, uint16(n))
	default:
		return p.put4(TagArray32, n)
	}
}

// PackMapSize emits a map header announcing n following key/value
// pairs, i.e. 2n items.
func (p *Packer) PackMapSize(n uint32) error {
	if err := p.stopped(); err != nil {
		return err
	}
	switch {
	case n <= MaxFixCount:
		return p.put0(FixMapPrefix | byte(n))
	case n <= MaxUint16:
		return p.put2(TagMap16, uint16(n))
	default:
		return p.put4(TagMap32, n)
	}
}

// PackStr emits s as a string blob: fixstr, then str 8/16/32. Header
// and payload are reserved together, so a successful header write
// guarantees the payload fits.
func (p *Packer) PackStr(s string) error {
	if err := p.stopped(); err != nil {
		return err
	}
	l := len(s)
	switch {
	case l <= MaxFixStr:
		if err := p.reserve(l + 1); err != nil {
			return err
		}
		p.buf[p.pos] = FixStrPrefix | byte(l)
		p.pos++
	case l <= MaxUint8:
		if err := p.reserve(l + 2); err != nil {
			return err
		}
		p.buf[p.pos] = TagStr8
		p.buf[p.pos+1] = byte(l)
		p.pos += 2
	case l <= MaxUint16:
		if err := p.reserve(l + 3); err != nil {
			return err
		}
		p.buf[p.pos] = TagStr16
		endian.PutUint16(p.buf[p.pos+1:], uint16(l))
		p.pos += 3
	default:
		if err := p.reserve(l + 5); err != nil {
			return err
		}
		p.buf[p.pos] = TagStr32
		endian.PutUint32(p.buf[p.pos+1:], uint32(l))
		p.pos += 5
	}
	copy(p.buf[p.pos:], s)
	p.pos += l
	return nil
}

// PackBin emits v as a binary blob: bin 8/16/32.
func (p *Packer) PackBin(v []byte) error {
	if err := p.stopped(); err != nil {
		return err
	}
	l := len(v)
	switch {
	case l <= MaxUint8:
		if err := p.reserve(l + 2); err != nil {
			return err
		}
		p.buf[p.pos] = TagBin8
		p.buf[p.pos+1] = byte(l)
		p.pos += 2
	case l <= MaxUint16:
		if err := p.reserve(l + 3); err != nil {
			return err
		}
		p.buf[p.pos] = TagBin16
		endian.PutUint16(p.buf[p.pos+1:], uint16(l))
		p.pos += 3
	default:
		if err := p.reserve(l + 5); err != nil {
			return err
		}
		p.buf[p.pos] = TagBin32
		endian.PutUint32(p.buf[p.pos+1:], uint32(l))
		p.pos += 5
	}
	copy(p.buf[p.pos:], v)
	p.pos += l
	return nil
}

// PackExt emits an extension blob with the given signed 8-bit type
// code. Payload lengths 1, 2, 4, 8 and 16 use the fixext forms; other
// lengths use ext 8/16/32.
func (p *Packer) PackExt(typ int8, v []byte) error {
	if err := p.stopped(); err != nil {
		return err
	}
	l := len(v)
	switch l {
	case 1:
		if err := p.reserve(3); err != nil {
			return err
		}
		p.buf[p.pos] = TagFixExt1
		p.pos++
	case 2:
		if err := p.reserve(4); err != nil {
			return err
		}
		p.buf[p.pos] = TagFixExt2
		p.pos++
	case 4:
		if err := p.reserve(6); err != nil {
			return err
		}
		p.buf[p.pos] = TagFixExt4
		p.pos++
	case 8:
		if err := p.reserve(10); err != nil {
			return err
		}
		p.buf[p.pos] = TagFixExt8
		p.pos++
	case 16:
		if err := p.reserve(18); err != nil {
			return err
		}
		p.buf[p.pos] = TagFixExt16
		p.pos++
	default:
		switch {
		case l <= MaxUint8:
			if err := p.reserve(l + 3); err != nil {
				return err
			}
			p.buf[p.pos] = TagExt8
			p.buf[p.pos+1] = byte(l)
			p.pos += 2
		case l <= MaxUint16:
			if err := p.reserve(l + 4); err != nil {
				return err
			}
			p.buf[p.pos] = TagExt16
			endian.PutUint16(p.buf[p.pos+1:], uint16(l))
			p.pos += 3
		default:
			if err := p.reserve(l + 6); err != nil {
				return err
			}
			p.buf[p.pos] = TagExt32
			endian.PutUint32(p.buf[p.pos+1:], uint32(l))
			p.pos += 5
		}
	}
	p.buf[p.pos] = byte(typ)
	p.pos++
	copy(p.buf[p.pos:], v)
	p.pos += l
	return nil
}
