package msgpack

import (
	"github.com/wippyai/msgpack/errors"
)

// Skip advances over count top-level items without materializing them.
// Composite headers push their element counts back onto the same
// counter, so nesting costs no stack and has no depth bound. The
// counter is 64-bit: a map 32 header can contribute 2^33 by itself.
func (u *Unpacker) Skip(count int64) error {
	if err := u.stopped(); err != nil {
		return err
	}

	for ; count > 0; count-- {
		if err := u.demand(1, true); err != nil {
			return err
		}
		c := u.buf[u.pos]
		u.pos++

		switch {
		case c <= 0x7f, c >= 0xe0: // fixint, both signs
		case c == TagNil, c == TagFalse, c == TagTrue:

		case c <= 0x8f: // fixmap
			count += 2 * int64(c&FixMapMask)
		case c <= 0x9f: // fixarray
			count += int64(c & FixArrayMask)

		case c <= 0xbf: // fixstr
			if err := u.skipBytes(int64(c & FixStrMask)); err != nil {
				return err
			}

		case c == TagUint8, c == TagInt8:
			if err := u.skipBytes(1); err != nil {
				return err
			}
		case c == TagUint16, c == TagInt16:
			if err := u.skipBytes(2); err != nil {
				return err
			}
		case c == TagFloat32, c == TagUint32, c == TagInt32:
			if err := u.skipBytes(4); err != nil {
				return err
			}
		case c == TagFloat64, c == TagUint64, c == TagInt64:
			if err := u.skipBytes(8); err != nil {
				return err
			}

		case c == TagFixExt1:
			if err := u.skipBytes(2); err != nil {
				return err
			}
		case c == TagFixExt2:
			if err := u.skipBytes(3); err != nil {
				return err
			}
		case c == TagFixExt4:
			if err := u.skipBytes(5); err != nil {
				return err
			}
		case c == TagFixExt8:
			if err := u.skipBytes(9); err != nil {
				return err
			}
		case c == TagFixExt16:
			if err := u.skipBytes(17); err != nil {
				return err
			}

		case c == TagStr8, c == TagStr16, c == TagStr32:
			length, err := u.loadUint(1 << (c - TagStr8))
			if err != nil {
				return err
			}
			if err := u.skipBytes(int64(length)); err != nil {
				return err
			}
		case c == TagBin8, c == TagBin16, c == TagBin32:
			length, err := u.loadUint(1 << (c - TagBin8))
			if err != nil {
				return err
			}
			if err := u.skipBytes(int64(length)); err != nil {
				return err
			}

		case c == TagExt8, c == TagExt16, c == TagExt32:
			// length field, then type byte plus payload
			length, err := u.loadUint(1 << (c - TagExt8))
			if err != nil {
				return err
			}
			if err := u.skipBytes(int64(length) + 1); err != nil {
				return err
			}

		case c == TagArray16, c == TagArray32:
			size, err := u.loadUint(2 << (c - TagArray16))
			if err != nil {
				return err
			}
			count += int64(size)
		case c == TagMap16, c == TagMap32:
			size, err := u.loadUint(2 << (c - TagMap16))
			if err != nil {
				return err
			}
			count += 2 * int64(size)

		default: // TagReserved
			return u.poison(errors.MalformedInput(u.Offset()-1, c))
		}
	}
	return nil
}

// skipBytes advances the cursor over n payload bytes of the item being
// skipped.
func (u *Unpacker) skipBytes(n int64) error {
	if err := u.demand(int(n), false); err != nil {
		return err
	}
	u.pos += int(n)
	return nil
}
