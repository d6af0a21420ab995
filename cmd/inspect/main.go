package main

import (
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/msgpack"
	"github.com/wippyai/msgpack/errors"
)

func main() {
	var (
		inFile      = flag.String("in", "", "Path to a MessagePack stream (default stdin)")
		maxItems    = flag.Int("n", 0, "Stop after this many top-level items (0 = all)")
		skipItems   = flag.Int("skip", 0, "Skip this many top-level items before dumping")
		verbose     = flag.Bool("v", false, "Verbose diagnostics")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		msgpack.SetLogger(logger)
	}

	data, err := readInput(*inFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(data); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := dump(os.Stdout, data, *skipItems, *maxItems); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// dump prints one line per item, indenting the contents of composite
// items. Composite headers announce counts only, so nesting is tracked
// as a stack of remaining-item counters.
func dump(w io.Writer, data []byte, skip, max int) error {
	u, err := msgpack.NewUnpacker(data, nil)
	if err != nil {
		return err
	}
	log := msgpack.Logger()
	log.Debug("dumping stream", zap.Int("bytes", len(data)), zap.Int("skip", skip))

	if skip > 0 {
		if err := u.Skip(int64(skip)); err != nil {
			return fmt.Errorf("skip %d item(s): %w", skip, err)
		}
	}

	var pending []uint32 // remaining items per open composite
	topLevel := 0
	for {
		if max > 0 && len(pending) == 0 && topLevel >= max {
			return nil
		}
		start := u.Offset()
		if err := u.Next(); err != nil {
			if stderrors.Is(err, errors.ErrEndOfInput) && len(pending) == 0 {
				log.Debug("stream end", zap.Int("items", topLevel))
				return nil
			}
			return err
		}
		if len(pending) == 0 {
			topLevel++
		}

		it := u.Item()
		fmt.Fprintf(w, "%08x  %s%s\n", start, strings.Repeat("  ", len(pending)), renderItem(it))

		// This item fills one slot of the innermost open composite.
		if len(pending) > 0 {
			pending[len(pending)-1]--
		}
		// A non-empty header opens a new level; finished levels close,
		// cascading outwards.
		switch it.Type {
		case msgpack.ItemArray:
			if it.Size > 0 {
				pending = append(pending, it.Size)
			}
		case msgpack.ItemMap:
			if it.Size > 0 {
				pending = append(pending, 2*it.Size)
			}
		}
		for len(pending) > 0 && pending[len(pending)-1] == 0 {
			pending = pending[:len(pending)-1]
		}
	}
}

func renderItem(it *msgpack.Item) string {
	switch it.Type {
	case msgpack.ItemNil:
		return "nil"
	case msgpack.ItemBoolean:
		return fmt.Sprintf("boolean %v", it.Bool)
	case msgpack.ItemPositiveInteger:
		return fmt.Sprintf("+int %d", it.U64)
	case msgpack.ItemNegativeInteger:
		return fmt.Sprintf("-int %d", it.I64)
	case msgpack.ItemFloat:
		return fmt.Sprintf("float %v", it.F64)
	case msgpack.ItemDouble:
		return fmt.Sprintf("double %v", it.F64)
	case msgpack.ItemStr:
		return fmt.Sprintf("str %q", it.Blob)
	case msgpack.ItemBin:
		return fmt.Sprintf("bin %d byte(s) % x", len(it.Blob), preview(it.Blob))
	case msgpack.ItemArray:
		return fmt.Sprintf("array [%d]", it.Size)
	case msgpack.ItemMap:
		return fmt.Sprintf("map {%d}", it.Size)
	}
	if it.Type.IsExt() {
		return fmt.Sprintf("ext type=%d %d byte(s) % x", int8(it.Type), len(it.Blob), preview(it.Blob))
	}
	return it.Type.String()
}

func preview(b []byte) []byte {
	if len(b) > 16 {
		return b[:16]
	}
	return b
}
