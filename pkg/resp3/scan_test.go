package resp3

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanLine(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantLine     string
		wantConsumed int
		wantErr      error
	}{
		{"complete line", "OK\r\nrest", "OK", 4, nil},
		{"no crlf yet", "OK", "", 0, errScanIncomplete},
		{"lone cr", "OK\r", "", 0, errScanIncomplete},
		{"empty line", "\r\n", "", 2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, n, err := scanLine([]byte(tt.input))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLine, string(line))
			assert.Equal(t, tt.wantConsumed, n)
		})
	}
}

func TestScanLineRejectsBareLineFeed(t *testing.T) {
	_, _, err := scanLine([]byte("OK\nrest"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindInvalidFormat, pe.Kind)
}

func TestScanLineRejectsBareCarriageReturnFollowedByOther(t *testing.T) {
	_, _, err := scanLine([]byte("OK\rX\r\n"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindInvalidFormat, pe.Kind)
}

func TestScanInteger(t *testing.T) {
	n, consumed, err := scanInteger([]byte("123\r\n"), false)
	require.NoError(t, err)
	assert.Equal(t, int64(123), n)
	assert.Equal(t, 5, consumed)

	n, _, err = scanInteger([]byte("-1\r\n"), false)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), n)
}

func TestScanIntegerRejectsPlusByDefault(t *testing.T) {
	_, _, err := scanInteger([]byte("+5\r\n"), false)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindInvalidFormat, pe.Kind)
}

func TestScanIntegerAllowsPlusWhenEnabled(t *testing.T) {
	n, _, err := scanInteger([]byte("+5\r\n"), true)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestScanIntegerRejectsNonDigit(t *testing.T) {
	_, _, err := scanInteger([]byte("12a\r\n"), false)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindInvalidFormat, pe.Kind)
}

func TestScanIntegerOverflow(t *testing.T) {
	_, _, err := scanInteger([]byte("9223372036854775808\r\n"), false)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindIntegerOverflow, pe.Kind)
}

func TestScanCounted(t *testing.T) {
	data, consumed, err := scanCounted([]byte("hello\r\nrest"), 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, 7, consumed)
}

func TestScanCountedIncomplete(t *testing.T) {
	_, _, err := scanCounted([]byte("hel"), 5)
	assert.Equal(t, errScanIncomplete, err)
}

func TestScanCountedRejectsMissingCRLF(t *testing.T) {
	_, _, err := scanCounted([]byte("helloXX"), 5)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindInvalidFormat, pe.Kind)
}

func TestScanCountedToleratesEmbeddedCRLF(t *testing.T) {
	data, consumed, err := scanCounted([]byte("he\r\nlo\r\n"), 6)
	require.NoError(t, err)
	assert.Equal(t, "he\r\nlo", string(data))
	assert.Equal(t, 8, consumed)
}

// TestScanCountedRejectsHugeLengthWithoutPanicking regresses against an
// integer-overflow bug: a declared length near math.MaxInt64 used to make
// the "len(view) < n+2" bounds check wrap negative, so the check passed and
// the subsequent view[n] indexed far out of range and panicked instead of
// reporting incomplete input.
func TestScanCountedRejectsHugeLengthWithoutPanicking(t *testing.T) {
	assert.NotPanics(t, func() {
		_, _, err := scanCounted([]byte("abc"), math.MaxInt64)
		assert.Equal(t, errScanIncomplete, err)
	})

	assert.NotPanics(t, func() {
		_, _, err := scanCounted([]byte("abc"), math.MaxInt64-1)
		assert.Equal(t, errScanIncomplete, err)
	})
}
