package resp3

import "github.com/valyala/bytebufferpool"

// compactAfter is the consumed-prefix threshold, in bytes, past which the
// buffer relocates its unread suffix to offset zero instead of letting the
// consumed prefix keep growing. This mirrors the teacher's connBuffer,
// which resets its bytes.Buffer on every fully-drained read; here the
// buffer may still hold an unread tail, so compaction is conditional
// rather than unconditional.
const compactAfter = 64 * 1024

// buffer is the append-only input buffer described in the RESP3 parsing
// design: the caller only ever appends bytes (feed), while the parser
// tracks a read cursor into the accumulated bytes and periodically
// relocates the unread suffix to reclaim the consumed prefix.
//
// Every Value handed back by Parser.TryParse copies its payload out of the
// buffer's backing array before the commit that produced it (see
// parser.go), so compaction never races with an outstanding borrow — there
// are none. Scanned slices (scanLine's line, scanCounted's data) must never
// be read after the commit call that follows them.
type buffer struct {
	bb  *bytebufferpool.ByteBuffer
	off int
}

func newBuffer() *buffer {
	return &buffer{bb: bytebufferpool.Get()}
}

// feed appends p to the buffer. It never fails and never blocks.
func (b *buffer) feed(p []byte) {
	if len(p) == 0 {
		return
	}
	b.bb.B = append(b.bb.B, p...)
}

// unread returns the contiguous view of bytes appended but not yet
// committed. The returned slice is only valid until the next feed or
// commit call.
func (b *buffer) unread() []byte {
	return b.bb.B[b.off:]
}

// commit advances the read cursor past n bytes that have been successfully
// turned into a token, then applies the compaction policy.
func (b *buffer) commit(n int) {
	b.off += n
	b.compact()
}

func (b *buffer) compact() {
	total := len(b.bb.B)
	switch {
	case b.off == 0:
		return
	case b.off == total:
		b.bb.B = b.bb.B[:0]
		b.off = 0
	case b.off >= total/2 || b.off >= compactAfter:
		n := copy(b.bb.B, b.bb.B[b.off:])
		b.bb.B = b.bb.B[:n]
		b.off = 0
	}
}

// reset discards all buffered bytes, read and unread alike.
func (b *buffer) reset() {
	b.bb.Reset()
	b.off = 0
}

// release returns the backing byte slice to the shared pool. The buffer
// must not be used afterward.
func (b *buffer) release() {
	bytebufferpool.Put(b.bb)
	b.bb = nil
}
