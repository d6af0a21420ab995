package msgpack

import (
	"math"

	"github.com/wippyai/msgpack/errors"
)

// Typed pulls over Next. Each reads one item and checks its kind; a
// mismatch returns a type_mismatch error without poisoning the context
// — the item was legally framed and has been consumed.

// NextUnsigned reads one item and returns it as a uint64. Only
// positive integer items qualify.
func (u *Unpacker) NextUnsigned() (uint64, error) {
	if err := u.Next(); err != nil {
		return 0, err
	}
	if u.item.Type != ItemPositiveInteger {
		return 0, u.mismatch("positive integer")
	}
	return u.item.U64, nil
}

// NextSigned reads one item and returns it as an int64. Negative
// integers qualify directly; positive integers qualify when they fit.
func (u *Unpacker) NextSigned() (int64, error) {
	if err := u.Next(); err != nil {
		return 0, err
	}
	switch u.item.Type {
	case ItemNegativeInteger:
		return u.item.I64, nil
	case ItemPositiveInteger:
		if u.item.U64 > math.MaxInt64 {
			return 0, u.mismatch("integer representable as int64")
		}
		return u.item.I64, nil
	}
	return 0, u.mismatch("integer")
}

// NextBoolean reads one item and returns it as a bool.
func (u *Unpacker) NextBoolean() (bool, error) {
	if err := u.Next(); err != nil {
		return false, err
	}
	if u.item.Type != ItemBoolean {
		return false, u.mismatch("boolean")
	}
	return u.item.Bool, nil
}

// NextNil reads one item and requires it to be nil.
func (u *Unpacker) NextNil() error {
	if err := u.Next(); err != nil {
		return err
	}
	if u.item.Type != ItemNil {
		return u.mismatch("nil")
	}
	return nil
}

// NextFloat64 reads one item and returns it as a float64. Both wire
// widths qualify; floats arrive widened losslessly.
func (u *Unpacker) NextFloat64() (float64, error) {
	if err := u.Next(); err != nil {
		return 0, err
	}
	if u.item.Type != ItemFloat && u.item.Type != ItemDouble {
		return 0, u.mismatch("float or double")
	}
	return u.item.F64, nil
}

// NextStr reads one item and returns its payload. The slice aliases
// the unpacker's buffer and is valid only until the next read.
func (u *Unpacker) NextStr() ([]byte, error) {
	if err := u.Next(); err != nil {
		return nil, err
	}
	if u.item.Type != ItemStr {
		return nil, u.mismatch("str")
	}
	return u.item.Blob, nil
}

// NextBin reads one item and returns its payload. The slice aliases
// the unpacker's buffer and is valid only until the next read.
func (u *Unpacker) NextBin() ([]byte, error) {
	if err := u.Next(); err != nil {
		return nil, err
	}
	if u.item.Type != ItemBin {
		return nil, u.mismatch("bin")
	}
	return u.item.Blob, nil
}

// NextArraySize reads one item and returns its element count.
func (u *Unpacker) NextArraySize() (uint32, error) {
	if err := u.Next(); err != nil {
		return 0, err
	}
	if u.item.Type != ItemArray {
		return 0, u.mismatch("array")
	}
	return u.item.Size, nil
}

// NextMapSize reads one item and returns its pair count.
func (u *Unpacker) NextMapSize() (uint32, error) {
	if err := u.Next(); err != nil {
		return 0, err
	}
	if u.item.Type != ItemMap {
		return 0, u.mismatch("map")
	}
	return u.item.Size, nil
}

// NextExt reads one item and returns its ext type code and payload.
func (u *Unpacker) NextExt() (int8, []byte, error) {
	if err := u.Next(); err != nil {
		return 0, nil, err
	}
	if !u.item.Type.IsExt() {
		return 0, nil, u.mismatch("ext")
	}
	return int8(u.item.Type), u.item.Blob, nil
}

func (u *Unpacker) mismatch(want string) error {
	return errors.TypeMismatch(u.Offset(), u.item.Type.String(), want)
}
