// Package msgpack implements a streaming codec for the MessagePack
// binary interchange format over caller-supplied byte buffers.
//
// # Architecture Overview
//
// Two peer components share the buffer discipline but have disjoint
// state:
//
//	msgpack/             Root package: Packer, Unpacker, Item
//	├── internal/endian/ Big-endian field access + startup self-check
//	├── errors/          Structured errors (the closed return-code set)
//	└── cmd/inspect/     Stream dump CLI with interactive TUI
//
// The Packer accepts typed items one at a time and emits the shortest
// legal MessagePack encoding for each. The Unpacker reads the next
// prefix byte, dispatches by tag class and fills a single current-item
// record. Both move a forward-only cursor over a half-open window into
// the caller's buffer; neither rewinds and neither performs I/O.
//
//	Items ──→ [Packer] ──→ bytes        bytes ──→ [Unpacker] ──→ Items
//
// # Buffer Exhaustion and Handlers
//
// The codec owns no storage. When output would exceed the window the
// Packer invokes its OverflowHandler; when input runs short the
// Unpacker invokes its UnderflowHandler. A handler typically flushes or
// refills the window (SetBuffer, Reset) and may perform I/O — the codec
// neither requires nor forbids it. Without a handler, exhaustion is
// fatal for the context.
//
// The Unpacker distinguishes running dry before an item's first byte
// (end of input — legitimate stream termination) from running dry
// inside an item (buffer underflow — truncation). That distinction is
// the only way a stream consumer knows whether the stream ended
// cleanly.
//
// # Poisoning
//
// The first failure latches into the context's sticky return code;
// every later operation fails with a stopped error without touching
// the buffer. The only recovery is to discard the context. Handlers
// that successfully resupply a window mid-operation do not poison.
//
// # Zero-Copy Blobs
//
// String, binary and extension payloads alias the caller's buffer.
// They stay valid only until the next Next or Skip call, since an
// underflow handler may replace the window.
//
// # Skip
//
// Skip advances over N top-level items without decoding them.
// Composite headers push their element counts back onto the skip
// counter, so arbitrarily nested containers cost no stack.
//
// # Thread Safety
//
// A Packer or Unpacker is single-threaded. Independent contexts over
// independent buffers may be used concurrently without synchronization.
//
// # Errors
//
// Every operation returns an error from the closed set defined in the
// errors subpackage; use errors.Is against the exported sentinels:
//
//	if errors.Is(err, errors.ErrEndOfInput) {
//		// clean stream termination
//	}
package msgpack
