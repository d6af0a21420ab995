// Package endian normalizes 16/32/64-bit big-endian loads and stores
// against the host byte order. MessagePack frames every multi-byte field
// big-endian; all codec field access goes through this package.
//
// Check runs a one-shot self-check that frames the ASCII pattern "1234"
// through the store path and verifies the load path reads it back as
// 0x31323334. Context initialization calls it so a miscompiled or
// shadowed implementation surfaces before the first item is framed
// rather than as corrupt output.
package endian
