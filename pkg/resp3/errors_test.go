package resp3

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseErrorIsMatchesByKind(t *testing.T) {
	err := newErr(KindNotEnoughData, "mid bulk string body")
	assert.True(t, errors.Is(err, ErrNotEnoughData))
	assert.False(t, errors.Is(err, ErrUnexpectedEOF))
}

func TestKindTerminal(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want bool
	}{
		{KindUnexpectedEOF, false},
		{KindNotEnoughData, false},
		{KindInvalidType, true},
		{KindInvalidFormat, true},
		{KindIntegerOverflow, true},
		{KindInvalidLength, true},
		{KindDepthExceeded, true},
		{KindElementLimitExceeded, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.Terminal(), tt.kind.String())
	}
}

func TestParseErrorMessage(t *testing.T) {
	err := newErr(KindInvalidFormat, "non-digit byte in integer")
	assert.Equal(t, "resp3: invalid format: non-digit byte in integer", err.Error())

	bare := &ParseError{Kind: KindDepthExceeded}
	assert.Equal(t, "resp3: depth exceeded", bare.Error())
}
