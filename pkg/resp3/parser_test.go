package resp3

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryParseSimpleString(t *testing.T) {
	p := New(32, 1<<20)
	p.Feed([]byte("+OK\r\n"))
	v, n, err := p.TryParse()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.True(t, Equal(NewSimpleString("OK"), v))
}

func TestTryParseBulkStringAcrossThreeChunks(t *testing.T) {
	p := New(32, 1<<20)

	p.Feed([]byte("$5"))
	_, _, err := p.TryParse()
	assert.ErrorIs(t, err, ErrNotEnoughData)

	p.Feed([]byte("\r\nhello"))
	_, _, err = p.TryParse()
	assert.ErrorIs(t, err, ErrNotEnoughData)

	p.Feed([]byte("\r\n"))
	v, n, err := p.TryParse()
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.True(t, Equal(NewBulkString([]byte("hello")), v))
}

func TestTryParseBulkStringOneByteAtATime(t *testing.T) {
	wire := []byte("$5\r\nhello\r\n")
	p := New(32, 1<<20)

	var v Value
	var n int
	var err error
	for i, b := range wire {
		p.Feed([]byte{b})
		v, n, err = p.TryParse()
		if i < len(wire)-1 {
			assert.ErrorIs(t, err, ErrNotEnoughData, "at byte %d", i)
		}
	}
	require.NoError(t, err)
	assert.Equal(t, len(wire), n)
	assert.True(t, Equal(NewBulkString([]byte("hello")), v))
}

func TestTryParseNullArray(t *testing.T) {
	p := New(32, 1<<20)
	p.Feed([]byte("*-1\r\n"))
	v, n, err := p.TryParse()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.True(t, v.IsNull())
	assert.Equal(t, Array, v.Kind)
}

func TestTryParseNestedArray(t *testing.T) {
	p := New(32, 1<<20)
	p.Feed([]byte("*2\r\n:1\r\n:2\r\n"))
	v, n, err := p.TryParse()
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	want := NewArray([]Value{NewInteger(1), NewInteger(2)})
	assert.True(t, Equal(want, v))
}

// TestTryParseMap also doubles as the regression case for a buffer-
// compaction bug: with this exact wire in a single 20-byte chunk, the
// buffer's "off >= total/2" compaction trigger fires twice, and the second
// firing relocates the very bytes backing the "b" key's still-live slice.
// Cloning that slice before (not after) the commit that can trigger
// compaction is what keeps the key from reading back as "2".
func TestTryParseMap(t *testing.T) {
	p := New(32, 1<<20)
	p.Feed([]byte("%2\r\n+a\r\n:1\r\n+b\r\n:2\r\n"))
	v, n, err := p.TryParse()
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	want := NewMap([]KVPair{
		{Key: NewSimpleString("a"), Value: NewInteger(1)},
		{Key: NewSimpleString("b"), Value: NewInteger(2)},
	})
	assert.True(t, Equal(want, v))
}

// TestTryParseTwoValuesInOneChunk feeds two complete top-level values in a
// single Feed call and parses both back out via two TryParse calls,
// exercising the same compaction path at the boundary between values rather
// than mid-value.
func TestTryParseTwoValuesInOneChunk(t *testing.T) {
	p := New(32, 1<<20)
	p.Feed([]byte("+first\r\n+second\r\n"))

	v1, n1, err := p.TryParse()
	require.NoError(t, err)
	assert.Equal(t, 8, n1)
	assert.True(t, Equal(NewSimpleString("first"), v1))

	v2, n2, err := p.TryParse()
	require.NoError(t, err)
	assert.Equal(t, 9, n2)
	assert.True(t, Equal(NewSimpleString("second"), v2))
}

func TestTryParseMapPreservesDuplicateKeys(t *testing.T) {
	p := New(32, 1<<20)
	p.Feed([]byte("%2\r\n+a\r\n:1\r\n+a\r\n:2\r\n"))
	v, _, err := p.TryParse()
	require.NoError(t, err)
	require.Len(t, v.Pairs, 2)
	assert.True(t, Equal(NewSimpleString("a"), v.Pairs[0].Key))
	assert.True(t, Equal(NewSimpleString("a"), v.Pairs[1].Key))
}

func TestTryParseIntegerOverflow(t *testing.T) {
	p := New(32, 1<<20)
	p.Feed([]byte(":9223372036854775808\r\n"))
	_, _, err := p.TryParse()
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindIntegerOverflow, pe.Kind)
	assert.True(t, pe.Kind.Terminal())
}

// TestTryParseHugeBulkLengthDoesNotPanic regresses against an adversarial
// peer declaring a BulkString length near math.MaxInt64: the declared
// length must be reported as "not enough data" (or rejected once genuinely
// too much were ever buffered), never panic via an overflowed bounds check.
func TestTryParseHugeBulkLengthDoesNotPanic(t *testing.T) {
	p := New(32, 1<<20)
	p.Feed([]byte("$9223372036854775807\r\nabc"))
	assert.NotPanics(t, func() {
		_, _, err := p.TryParse()
		assert.ErrorIs(t, err, ErrNotEnoughData)
	})
}

func TestTryParseDepthExceeded(t *testing.T) {
	p := New(2, 1<<20)
	p.Feed([]byte("*1\r\n*1\r\n*1\r\n:0\r\n"))
	_, _, err := p.TryParse()
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindDepthExceeded, pe.Kind)
}

func TestTryParseDepthExceededLatchesParser(t *testing.T) {
	p := New(1, 1<<20)
	p.Feed([]byte("*1\r\n*1\r\n:0\r\n"))
	_, _, err := p.TryParse()
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindDepthExceeded, pe.Kind)

	_, _, err = p.TryParse()
	assert.Error(t, err)

	p.Reset()
	p.Feed([]byte(":1\r\n"))
	v, n, err := p.TryParse()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, Equal(NewInteger(1), v))
}

func TestTryParseElementLimitExceeded(t *testing.T) {
	p := New(32, 2)
	p.Feed([]byte("*3\r\n:1\r\n:2\r\n:3\r\n"))
	_, _, err := p.TryParse()
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindElementLimitExceeded, pe.Kind)
}

func TestTryParseElementLimitCountsEveryLeaf(t *testing.T) {
	// Array header itself counts as one element, leaving only one slot for
	// children under a limit of two.
	p := New(32, 2)
	p.Feed([]byte("*2\r\n:1\r\n:2\r\n"))
	_, _, err := p.TryParse()
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindElementLimitExceeded, pe.Kind)
}

func TestTryParseVerbatimString(t *testing.T) {
	p := New(32, 1<<20)
	p.Feed([]byte("=15\r\ntxt:Some string\r\n"))
	v, n, err := p.TryParse()
	require.NoError(t, err)
	assert.Equal(t, 22, n)
	assert.Equal(t, [3]byte{'t', 'x', 't'}, v.VerbatimTag)
	assert.Equal(t, "Some string", string(v.Str))
}

func TestTryParseBoolean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"true", "#t\r\n", true},
		{"false", "#f\r\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(32, 1<<20)
			p.Feed([]byte(tt.input))
			v, n, err := p.TryParse()
			require.NoError(t, err)
			assert.Equal(t, len(tt.input), n)
			assert.Equal(t, tt.want, v.Bool)
		})
	}
}

func TestTryParseRejectsUnknownMarker(t *testing.T) {
	p := New(32, 1<<20)
	p.Feed([]byte("?hello\r\n"))
	_, _, err := p.TryParse()
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindInvalidType, pe.Kind)
}

func TestTryParseRejectsBareLineFeed(t *testing.T) {
	p := New(32, 1<<20)
	p.Feed([]byte("+OK\n"))
	_, _, err := p.TryParse()
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindInvalidFormat, pe.Kind)
}

func TestTryParseRejectsNegativeLengthOtherThanMinusOne(t *testing.T) {
	p := New(32, 1<<20)
	p.Feed([]byte("$-5\r\n"))
	_, _, err := p.TryParse()
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindInvalidLength, pe.Kind)
}

func TestTryParseRejectsNullOnTypeWithoutNullEncoding(t *testing.T) {
	p := New(32, 1<<20)
	p.Feed([]byte("~-1\r\n"))
	_, _, err := p.TryParse()
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindInvalidLength, pe.Kind)
}

func TestTryParseExactLengthIgnoresEmbeddedCRLF(t *testing.T) {
	p := New(32, 1<<20)
	p.Feed([]byte("$6\r\nhe\r\nlo\r\n"))
	v, n, err := p.TryParse()
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, "he\r\nlo", string(v.Str))
}

func TestTryParseZeroLengthArrayAndMap(t *testing.T) {
	p := New(32, 1<<20)
	p.Feed([]byte("*0\r\n"))
	v, n, err := p.TryParse()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, Equal(NewArray(nil), v))

	p.Feed([]byte("%0\r\n"))
	v, n, err = p.TryParse()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, Equal(NewMap(nil), v))
}

func TestTryParseChunkSizeIndependence(t *testing.T) {
	wire := []byte("*2\r\n$3\r\nGET\r\n$3\r\nkey\r\n")
	want := NewArray([]Value{NewBulkString([]byte("GET")), NewBulkString([]byte("key"))})

	for chunk := 1; chunk <= len(wire); chunk++ {
		p := New(32, 1<<20)
		var v Value
		var n int
		var err error
		for off := 0; off < len(wire); off += chunk {
			end := off + chunk
			if end > len(wire) {
				end = len(wire)
			}
			p.Feed(wire[off:end])
			v, n, err = p.TryParse()
			if err == nil {
				break
			}
			if !errors.Is(err, ErrNotEnoughData) && !errors.Is(err, ErrUnexpectedEOF) {
				t.Fatalf("chunk size %d: unexpected error %v", chunk, err)
			}
		}
		require.NoError(t, err, "chunk size %d", chunk)
		assert.Equal(t, len(wire), n, "chunk size %d", chunk)
		assert.True(t, Equal(want, v), "chunk size %d", chunk)
	}
}

func TestTryParseSetAndPush(t *testing.T) {
	p := New(32, 1<<20)
	p.Feed([]byte("~2\r\n:1\r\n:2\r\n"))
	v, _, err := p.TryParse()
	require.NoError(t, err)
	assert.Equal(t, Set, v.Kind)
	assert.Len(t, v.Elems, 2)

	p.Feed([]byte(">2\r\n+message\r\n+hi\r\n"))
	v, _, err = p.TryParse()
	require.NoError(t, err)
	assert.Equal(t, Push, v.Kind)
	assert.Len(t, v.Elems, 2)
}

func TestTryParseReusesParserAfterEachTopLevelValue(t *testing.T) {
	p := New(32, 1<<20)
	p.Feed([]byte("+a\r\n+b\r\n"))

	v1, n1, err := p.TryParse()
	require.NoError(t, err)
	assert.Equal(t, 4, n1)
	assert.True(t, Equal(NewSimpleString("a"), v1))

	v2, n2, err := p.TryParse()
	require.NoError(t, err)
	assert.Equal(t, 4, n2)
	assert.True(t, Equal(NewSimpleString("b"), v2))
}

func TestTryParseExplicitPositiveSignOption(t *testing.T) {
	p := New(32, 1<<20, WithExplicitPositiveSign(true))
	p.Feed([]byte(":+5\r\n"))
	v, _, err := p.TryParse()
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Int)

	p2 := New(32, 1<<20)
	p2.Feed([]byte(":+5\r\n"))
	_, _, err = p2.TryParse()
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindInvalidFormat, pe.Kind)
}
