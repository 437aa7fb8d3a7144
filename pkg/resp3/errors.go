package resp3

import "errors"

// ErrorKind identifies the semantic category of a parse error, independent
// of the Go error type used to carry it. See the RESP3 protocol spec for the
// full error taxonomy this maps onto.
type ErrorKind int

const (
	// KindUnexpectedEOF means the unread view is empty where a token is
	// required. Non-terminal: feed more bytes and retry.
	KindUnexpectedEOF ErrorKind = iota

	// KindNotEnoughData means a token was started (a type marker or length
	// was seen) but the buffer ran out before it could be completed.
	// Non-terminal: feed more bytes and retry.
	KindNotEnoughData

	// KindInvalidType means the byte at the head of the unread view is not
	// one of the recognized RESP3 type markers. Terminal.
	KindInvalidType

	// KindInvalidFormat means a scalar token was malformed: a non-digit in
	// an integer or length, a lone CR/LF where forbidden, a missing
	// verbatim-string separator, a boolean body that isn't 't'/'f'. Terminal.
	KindInvalidFormat

	// KindIntegerOverflow means an integer or length did not fit in a
	// signed 64-bit value. Terminal.
	KindIntegerOverflow

	// KindInvalidLength means a negative length other than -1, or a -1 on
	// a type that has no null encoding. Terminal.
	KindInvalidLength

	// KindDepthExceeded means pushing a new aggregate frame would exceed
	// the configured maximum nesting depth. Terminal.
	KindDepthExceeded

	// KindElementLimitExceeded means admitting a new element would exceed
	// the configured maximum element count for this top-level value.
	// Terminal.
	KindElementLimitExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnexpectedEOF:
		return "unexpected EOF"
	case KindNotEnoughData:
		return "not enough data"
	case KindInvalidType:
		return "invalid type marker"
	case KindInvalidFormat:
		return "invalid format"
	case KindIntegerOverflow:
		return "integer overflow"
	case KindInvalidLength:
		return "invalid length"
	case KindDepthExceeded:
		return "depth exceeded"
	case KindElementLimitExceeded:
		return "element limit exceeded"
	default:
		return "unknown parse error"
	}
}

// Terminal reports whether an error of this kind latches the parser into an
// error state (true) or merely means the caller should feed more bytes and
// call TryParse again (false).
func (k ErrorKind) Terminal() bool {
	switch k {
	case KindUnexpectedEOF, KindNotEnoughData:
		return false
	default:
		return true
	}
}

// ParseError is the error type returned by TryParse for both non-terminal
// "need more bytes" outcomes and terminal protocol/limit failures. Callers
// that only care about the outcome class should use errors.Is against the
// package-level sentinels (ErrUnexpectedEOF, ErrNotEnoughData) or inspect
// Kind directly.
type ParseError struct {
	Kind ErrorKind
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Msg == "" {
		return "resp3: " + e.Kind.String()
	}
	return "resp3: " + e.Kind.String() + ": " + e.Msg
}

// Is makes ParseError compatible with errors.Is against the sentinels below
// when the Kind matches, regardless of Msg.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel errors for the two non-terminal outcomes, usable with errors.Is.
var (
	ErrUnexpectedEOF = &ParseError{Kind: KindUnexpectedEOF}
	ErrNotEnoughData = &ParseError{Kind: KindNotEnoughData}
)

func newErr(kind ErrorKind, msg string) *ParseError {
	return &ParseError{Kind: kind, Msg: msg}
}

// errLatched is returned by TryParse once a terminal error has been raised
// and the caller has not yet called Reset.
var errLatched = errors.New("resp3: parser is in a latched error state, call Reset")
