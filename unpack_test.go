package msgpack

import (
	"bytes"
	stderrors "errors"
	"math"
	"testing"

	"github.com/wippyai/msgpack/errors"
)

func newTestUnpacker(t *testing.T, buf []byte) *Unpacker {
	t.Helper()
	u, err := NewUnpacker(buf, nil)
	if err != nil {
		t.Fatalf("NewUnpacker: %v", err)
	}
	return u
}

func mustNext(t *testing.T, u *Unpacker) *Item {
	t.Helper()
	if err := u.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	return u.Item()
}

func TestUnpackIntegers(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		typ  ItemType
		u64  uint64
		i64  int64
	}{
		{"positive fixint", []byte{0x00}, ItemPositiveInteger, 0, 0},
		{"positive fixint max", []byte{0x7f}, ItemPositiveInteger, 127, 127},
		{"negative fixint", []byte{0xff}, ItemNegativeInteger, 0, -1},
		{"negative fixint min", []byte{0xe0}, ItemNegativeInteger, 0, -32},
		{"uint8", []byte{0xcc, 0xff}, ItemPositiveInteger, 255, 255},
		{"uint16", []byte{0xcd, 0x01, 0x00}, ItemPositiveInteger, 256, 256},
		{"uint32", []byte{0xce, 0xff, 0xff, 0xff, 0xff}, ItemPositiveInteger, 1<<32 - 1, 1<<32 - 1},
		{"uint64", []byte{0xcf, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, ItemPositiveInteger, math.MaxUint64, 0},
		{"int8", []byte{0xd0, 0x80}, ItemNegativeInteger, 0, -128},
		{"int16", []byte{0xd1, 0x80, 0x00}, ItemNegativeInteger, 0, -32768},
		{"int32", []byte{0xd2, 0x80, 0x00, 0x00, 0x00}, ItemNegativeInteger, 0, math.MinInt32},
		{"int64", []byte{0xd3, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, ItemNegativeInteger, 0, math.MinInt64},
		// Non-negative values in signed wire slots normalize to positive.
		{"int8 non-negative", []byte{0xd0, 0x05}, ItemPositiveInteger, 5, 5},
		{"int16 non-negative", []byte{0xd1, 0x00, 0x00}, ItemPositiveInteger, 0, 0},
		{"int32 non-negative", []byte{0xd2, 0x00, 0x00, 0x00, 0x2a}, ItemPositiveInteger, 42, 42},
		{"int64 non-negative", []byte{0xd3, 0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, ItemPositiveInteger, math.MaxInt64, math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newTestUnpacker(t, tt.in)
			it := mustNext(t, u)
			if it.Type != tt.typ {
				t.Fatalf("Type = %v, want %v", it.Type, tt.typ)
			}
			switch tt.typ {
			case ItemPositiveInteger:
				if it.U64 != tt.u64 {
					t.Errorf("U64 = %d, want %d", it.U64, tt.u64)
				}
			case ItemNegativeInteger:
				if it.I64 != tt.i64 {
					t.Errorf("I64 = %d, want %d", it.I64, tt.i64)
				}
			}
			if u.Remaining() != 0 {
				t.Errorf("item consumed %d bytes, %d left over", u.Pos(), u.Remaining())
			}
		})
	}
}

func TestUnpackNilBooleans(t *testing.T) {
	u := newTestUnpacker(t, []byte{0xc0, 0xc3, 0xc2})
	if it := mustNext(t, u); it.Type != ItemNil {
		t.Errorf("Type = %v, want nil", it.Type)
	}
	if it := mustNext(t, u); it.Type != ItemBoolean || !it.Bool {
		t.Errorf("want boolean true, got %v %v", it.Type, it.Bool)
	}
	if it := mustNext(t, u); it.Type != ItemBoolean || it.Bool {
		t.Errorf("want boolean false, got %v %v", it.Type, it.Bool)
	}
}

func TestUnpackFloats(t *testing.T) {
	u := newTestUnpacker(t, []byte{
		0xca, 0x3f, 0x80, 0x00, 0x00,
		0xcb, 0x40, 0x09, 0x21, 0xfb, 0x54, 0x44, 0x2d, 0x18,
	})
	it := mustNext(t, u)
	if it.Type != ItemFloat || it.F64 != 1.0 {
		t.Errorf("float item = %v %v", it.Type, it.F64)
	}
	it = mustNext(t, u)
	if it.Type != ItemDouble || it.F64 != math.Pi {
		t.Errorf("double item = %v %v", it.Type, it.F64)
	}
}

func TestFloatRoundTripBits(t *testing.T) {
	floats := []float32{0, 1, -1, math.Pi, math.MaxFloat32, math.SmallestNonzeroFloat32, float32(math.Inf(1)), float32(math.Inf(-1))}
	for _, f := range floats {
		p := newTestPacker(t, 8)
		if err := p.PackFloat(f); err != nil {
			t.Fatal(err)
		}
		u := newTestUnpacker(t, p.Bytes())
		it := mustNext(t, u)
		if it.Type != ItemFloat {
			t.Fatalf("Type = %v", it.Type)
		}
		if math.Float32bits(float32(it.F64)) != math.Float32bits(f) {
			t.Errorf("float %v did not re-narrow losslessly: got %v", f, float32(it.F64))
		}
	}

	doubles := []float64{0, 1, -1, math.Pi, math.MaxFloat64, math.SmallestNonzeroFloat64, math.Inf(1), math.Inf(-1)}
	for _, d := range doubles {
		p := newTestPacker(t, 16)
		if err := p.PackDouble(d); err != nil {
			t.Fatal(err)
		}
		u := newTestUnpacker(t, p.Bytes())
		it := mustNext(t, u)
		if it.Type != ItemDouble {
			t.Fatalf("Type = %v", it.Type)
		}
		if math.Float64bits(it.F64) != math.Float64bits(d) {
			t.Errorf("double %v bit pattern changed: got %v", d, it.F64)
		}
	}
}

func TestUnpackBlobsZeroCopy(t *testing.T) {
	buf := []byte{0xa2, 'h', 'i', 0xc4, 0x03, 1, 2, 3}
	u := newTestUnpacker(t, buf)

	it := mustNext(t, u)
	if it.Type != ItemStr || string(it.Blob) != "hi" {
		t.Fatalf("str item = %v %q", it.Type, it.Blob)
	}
	// The blob aliases the caller's buffer, not a copy.
	if &it.Blob[0] != &buf[1] {
		t.Error("str blob does not alias the input buffer")
	}

	it = mustNext(t, u)
	if it.Type != ItemBin || !bytes.Equal(it.Blob, []byte{1, 2, 3}) {
		t.Fatalf("bin item = %v % x", it.Type, it.Blob)
	}
	if &it.Blob[0] != &buf[5] {
		t.Error("bin blob does not alias the input buffer")
	}
}

func TestUnpackStrFamilies(t *testing.T) {
	long := bytes.Repeat([]byte{'x'}, 300)
	tests := []struct {
		name    string
		in      []byte
		wantLen int
	}{
		{"fixstr empty", []byte{0xa0}, 0},
		{"str8", append([]byte{0xd9, 0x20}, bytes.Repeat([]byte{'y'}, 32)...), 32},
		{"str16", append([]byte{0xda, 0x01, 0x2c}, long...), 300},
		{"str32", append([]byte{0xdb, 0x00, 0x00, 0x01, 0x2c}, long...), 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newTestUnpacker(t, tt.in)
			it := mustNext(t, u)
			if it.Type != ItemStr || len(it.Blob) != tt.wantLen {
				t.Errorf("got %v len %d, want str len %d", it.Type, len(it.Blob), tt.wantLen)
			}
		})
	}
}

func TestUnpackExt(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		typ     int8
		payload []byte
	}{
		{"fixext1", []byte{0xd4, 0x07, 0xaa}, 7, []byte{0xaa}},
		{"fixext2", []byte{0xd5, 0x01, 1, 2}, 1, []byte{1, 2}},
		{"fixext4", []byte{0xd6, 0xff, 1, 2, 3, 4}, -1, []byte{1, 2, 3, 4}},
		{"fixext8", []byte{0xd7, 0x02, 1, 2, 3, 4, 5, 6, 7, 8}, 2, []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{"fixext16", append([]byte{0xd8, 0x03}, bytes.Repeat([]byte{9}, 16)...), 3, bytes.Repeat([]byte{9}, 16)},
		{"ext8", []byte{0xc7, 0x03, 0x10, 1, 2, 3}, 16, []byte{1, 2, 3}},
		{"ext16", append([]byte{0xc8, 0x01, 0x00, 0x20}, bytes.Repeat([]byte{7}, 256)...), 32, bytes.Repeat([]byte{7}, 256)},
		{"ext32", append([]byte{0xc9, 0x00, 0x00, 0x00, 0x02, 0x05}, 1, 2), 5, []byte{1, 2}},
		// Wire type bytes >= 0x80 read back negative, signed 8-bit.
		{"high type code", []byte{0xd4, 0x80, 0xaa}, -128, []byte{0xaa}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newTestUnpacker(t, tt.in)
			it := mustNext(t, u)
			if !it.Type.IsExt() {
				t.Fatalf("Type = %v, want ext", it.Type)
			}
			if int8(it.Type) != tt.typ {
				t.Errorf("ext type = %d, want %d", int8(it.Type), tt.typ)
			}
			if !bytes.Equal(it.Blob, tt.payload) {
				t.Errorf("payload = % x, want % x", it.Blob, tt.payload)
			}
		})
	}
}

func TestUnpackHeaders(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		typ  ItemType
		size uint32
	}{
		{"fixarray", []byte{0x93}, ItemArray, 3},
		{"array16", []byte{0xdc, 0x01, 0x00}, ItemArray, 256},
		{"array32", []byte{0xdd, 0x00, 0x01, 0x00, 0x00}, ItemArray, 65536},
		{"fixmap", []byte{0x82}, ItemMap, 2},
		{"map16", []byte{0xde, 0x01, 0x00}, ItemMap, 256},
		{"map32", []byte{0xdf, 0x00, 0x01, 0x00, 0x00}, ItemMap, 65536},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newTestUnpacker(t, tt.in)
			it := mustNext(t, u)
			if it.Type != tt.typ || it.Size != tt.size {
				t.Errorf("got %v size %d, want %v size %d", it.Type, it.Size, tt.typ, tt.size)
			}
		})
	}
}

func TestUnpackEndOfInput(t *testing.T) {
	u := newTestUnpacker(t, nil)
	err := u.Next()
	if !stderrors.Is(err, errors.ErrEndOfInput) {
		t.Fatalf("err = %v, want end of input", err)
	}
	// End of input is sticky too; the context is done.
	if !stderrors.Is(u.Next(), errors.ErrStopped) {
		t.Error("second Next should report stopped")
	}
}

func TestUnpackUnderflowMidItem(t *testing.T) {
	u := newTestUnpacker(t, []byte{0xcd}) // uint16 tag, no payload
	err := u.Next()
	if !stderrors.Is(err, errors.ErrBufferUnderflow) {
		t.Fatalf("err = %v, want buffer underflow", err)
	}
	if stderrors.Is(err, errors.ErrEndOfInput) {
		t.Error("mid-item exhaustion must not read as end of input")
	}
}

func TestUnpackUnderflowTruncatedBlob(t *testing.T) {
	u := newTestUnpacker(t, []byte{0xa5, 'h', 'i'}) // fixstr 5, 2 bytes present
	if err := u.Next(); !stderrors.Is(err, errors.ErrBufferUnderflow) {
		t.Fatalf("err = %v, want buffer underflow", err)
	}
}

func TestUnpackMalformed(t *testing.T) {
	u := newTestUnpacker(t, []byte{0xc1, 0xc0})
	err := u.Next()
	if !stderrors.Is(err, errors.ErrMalformedInput) {
		t.Fatalf("err = %v, want malformed input", err)
	}
	if !stderrors.Is(u.Next(), errors.ErrStopped) {
		t.Error("context should be poisoned after malformed input")
	}
	if !stderrors.Is(u.ReturnCode(), errors.ErrMalformedInput) {
		t.Errorf("sticky code = %v", u.ReturnCode())
	}
}

// feedHandler refills the window from a queue of chunks, carrying the
// unconsumed tail forward the way a file reader would.
func feedHandler(chunks [][]byte) UnderflowHandler {
	return func(u *Unpacker, requested int) error {
		next := append([]byte{}, u.Buffer()[u.Pos():]...)
		for len(next) < requested {
			if len(chunks) == 0 {
				return errors.EndOfInput(u.Offset())
			}
			next = append(next, chunks[0]...)
			chunks = chunks[1:]
		}
		u.SetBuffer(next)
		return nil
	}
}

func TestUnpackUnderflowHandlerResupply(t *testing.T) {
	// A uint32 item split across three windows.
	u, err := NewUnpacker([]byte{0xce, 0x00}, feedHandler([][]byte{{0x01}, {0x00, 0x00}}))
	if err != nil {
		t.Fatal(err)
	}
	v, err := u.NextUnsigned()
	if err != nil {
		t.Fatalf("NextUnsigned: %v", err)
	}
	if v != 0x10000 {
		t.Errorf("value = %#x, want 0x10000", v)
	}
	if u.ReturnCode() != nil {
		t.Errorf("successful resupply must not poison: %v", u.ReturnCode())
	}
}

func TestUnpackHandlerEndOfInputTranslation(t *testing.T) {
	// Handler reports end of input. At an item boundary that is the
	// clean termination code...
	u, err := NewUnpacker(nil, feedHandler(nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := u.Next(); !stderrors.Is(err, errors.ErrEndOfInput) {
		t.Fatalf("boundary err = %v, want end of input", err)
	}

	// ...but mid-item it means the item was truncated.
	u, err = NewUnpacker([]byte{0xcd}, feedHandler(nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := u.Next(); !stderrors.Is(err, errors.ErrBufferUnderflow) {
		t.Fatalf("mid-item err = %v, want buffer underflow", err)
	}
}

func TestUnpackHandlerErrorStoredVerbatim(t *testing.T) {
	custom := errors.New(errors.PhaseUnpack, errors.KindBufferUnderflow).
		Detail("socket reset").
		Build()
	u, err := NewUnpacker(nil, func(u *Unpacker, requested int) error {
		return custom
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := u.Next(); got != custom {
		t.Fatalf("handler error not propagated verbatim: %v", got)
	}
	if u.ReturnCode() != custom {
		t.Errorf("sticky code = %v, want handler's error", u.ReturnCode())
	}
}

func TestRoundTripDocument(t *testing.T) {
	p := newTestPacker(t, 256)
	steps := []error{
		p.PackMapSize(3),
		p.PackStr("name"),
		p.PackStr("wippy"),
		p.PackStr("counts"),
		p.PackArraySize(4),
		p.PackUnsigned(1),
		p.PackSigned(-2),
		p.PackFloat(0.5),
		p.PackDouble(-0.25),
		p.PackStr("meta"),
		p.PackMapSize(2),
		p.PackStr("ok"),
		p.PackBoolean(true),
		p.PackStr("tag"),
		p.PackExt(42, []byte{0xde, 0xad}),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("pack step %d: %v", i, err)
		}
	}

	u := newTestUnpacker(t, p.Bytes())
	if n, err := u.NextMapSize(); err != nil || n != 3 {
		t.Fatalf("map size = %d, %v", n, err)
	}
	if s, err := u.NextStr(); err != nil || string(s) != "name" {
		t.Fatalf("key 1 = %q, %v", s, err)
	}
	if s, err := u.NextStr(); err != nil || string(s) != "wippy" {
		t.Fatalf("val 1 = %q, %v", s, err)
	}
	if s, err := u.NextStr(); err != nil || string(s) != "counts" {
		t.Fatalf("key 2 = %q, %v", s, err)
	}
	if n, err := u.NextArraySize(); err != nil || n != 4 {
		t.Fatalf("array size = %d, %v", n, err)
	}
	if v, err := u.NextUnsigned(); err != nil || v != 1 {
		t.Fatalf("elem 1 = %d, %v", v, err)
	}
	if v, err := u.NextSigned(); err != nil || v != -2 {
		t.Fatalf("elem 2 = %d, %v", v, err)
	}
	if f, err := u.NextFloat64(); err != nil || f != 0.5 {
		t.Fatalf("elem 3 = %v, %v", f, err)
	}
	if f, err := u.NextFloat64(); err != nil || f != -0.25 {
		t.Fatalf("elem 4 = %v, %v", f, err)
	}
	if s, err := u.NextStr(); err != nil || string(s) != "meta" {
		t.Fatalf("key 3 = %q, %v", s, err)
	}
	if n, err := u.NextMapSize(); err != nil || n != 2 {
		t.Fatalf("inner map = %d, %v", n, err)
	}
	if s, err := u.NextStr(); err != nil || string(s) != "ok" {
		t.Fatalf("inner key 1 = %q, %v", s, err)
	}
	if b, err := u.NextBoolean(); err != nil || !b {
		t.Fatalf("inner val 1 = %v, %v", b, err)
	}
	if s, err := u.NextStr(); err != nil || string(s) != "tag" {
		t.Fatalf("inner key 2 = %q, %v", s, err)
	}
	typ, data, err := u.NextExt()
	if err != nil || typ != 42 || !bytes.Equal(data, []byte{0xde, 0xad}) {
		t.Fatalf("ext = %d % x, %v", typ, data, err)
	}

	if err := u.Next(); !stderrors.Is(err, errors.ErrEndOfInput) {
		t.Fatalf("after document: %v, want end of input", err)
	}
}

func TestTypedAccessorMismatch(t *testing.T) {
	u := newTestUnpacker(t, []byte{0xa2, 'h', 'i', 0x05})
	if _, err := u.NextUnsigned(); !stderrors.Is(err, errors.ErrTypeMismatch) {
		t.Fatalf("err = %v, want type mismatch", err)
	}
	// A mismatch consumes the item but does not poison the context.
	if u.ReturnCode() != nil {
		t.Fatalf("mismatch poisoned the context: %v", u.ReturnCode())
	}
	if v, err := u.NextUnsigned(); err != nil || v != 5 {
		t.Fatalf("next item = %d, %v", v, err)
	}
}

func TestNextSignedAcceptsPositive(t *testing.T) {
	u := newTestUnpacker(t, []byte{0x2a})
	if v, err := u.NextSigned(); err != nil || v != 42 {
		t.Fatalf("NextSigned = %d, %v", v, err)
	}

	// A positive value beyond int64 does not qualify.
	u = newTestUnpacker(t, []byte{0xcf, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	if _, err := u.NextSigned(); !stderrors.Is(err, errors.ErrTypeMismatch) {
		t.Fatalf("err = %v, want type mismatch", err)
	}
}

func TestItemTypeString(t *testing.T) {
	tests := []struct {
		t    ItemType
		want string
	}{
		{ItemNil, "nil"},
		{ItemPositiveInteger, "positive integer"},
		{ItemStr, "str"},
		{ItemType(7), "ext(7)"},
		{ItemType(-1), "ext(-1)"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestErrnoUntouched(t *testing.T) {
	p := newTestPacker(t, 4)
	p.Errno = 17
	if err := p.PackNil(); err != nil {
		t.Fatal(err)
	}
	_ = p.PackStr("too long for the window")
	if p.Errno != 17 {
		t.Errorf("Errno = %d, want 17", p.Errno)
	}
}
