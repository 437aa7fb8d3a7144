// Package resp3 implements an incremental parser and serializer for the
// Redis Serialization Protocol, version 3 (RESP3).
//
// The package consumes opaque byte chunks of arbitrary size, down to a
// single byte at a time, and incrementally produces fully materialized
// protocol values. Recursion depth and aggregate element counts are bounded
// by caller-supplied limits so that an adversarial peer cannot exhaust
// memory or stack by sending deeply nested or very large aggregates.
//
// # Reading RESP3 values
//
//	p := resp3.New(32, 1<<20)
//	p.Feed([]byte("*2\r\n$3\r\nGET\r\n$3\r\nkey\r\n"))
//	v, n, err := p.TryParse()
//	// v.Kind == resp3.Array, n == 22
//
// TryParse never blocks. When the buffered bytes don't yet contain a full
// top-level value it returns a *ParseError with Kind KindUnexpectedEOF or
// KindNotEnoughData; the caller feeds more bytes and calls TryParse again.
// Any other error is terminal for that top-level value.
//
// # Writing RESP3 values
//
//	var out []byte
//	out = resp3.Append(out, resp3.NewSimpleString("OK"))       // +OK\r\n
//	out = resp3.Append(out, resp3.NewInteger(42))               // :42\r\n
//	out = resp3.Append(out, resp3.NewBulkString([]byte("hi")))  // $2\r\nhi\r\n
//
// Append is the exact inverse of parsing: for every Value a Parser can
// produce, it writes the wire form that parses back to an equal Value.
package resp3

import "math"

// Kind identifies the RESP3 variant a Value carries.
type Kind byte

// RESP3 type markers. These are the first byte of any framed RESP3 element.
const (
	SimpleString   Kind = '+'
	SimpleError    Kind = '-'
	Integer        Kind = ':'
	BulkString     Kind = '$'
	Array          Kind = '*'
	Null           Kind = '_'
	Boolean        Kind = '#'
	Double         Kind = ','
	BigNumber      Kind = '('
	BulkError      Kind = '!'
	VerbatimString Kind = '='
	Map            Kind = '%'
	Set            Kind = '~'
	Push           Kind = '>'
)

func (k Kind) String() string {
	switch k {
	case SimpleString:
		return "SimpleString"
	case SimpleError:
		return "SimpleError"
	case Integer:
		return "Integer"
	case BulkString:
		return "BulkString"
	case Array:
		return "Array"
	case Null:
		return "Null"
	case Boolean:
		return "Boolean"
	case Double:
		return "Double"
	case BigNumber:
		return "BigNumber"
	case BulkError:
		return "BulkError"
	case VerbatimString:
		return "VerbatimString"
	case Map:
		return "Map"
	case Set:
		return "Set"
	case Push:
		return "Push"
	default:
		return "Unknown"
	}
}

// KVPair is one key/value pair of a Map value. Order is preserved exactly
// as parsed; duplicate keys are never deduplicated.
type KVPair struct {
	Key   Value
	Value Value
}

// Value is a tagged union over the RESP3 type set. Only the fields relevant
// to Kind are meaningful; the zero Value is not a valid RESP3 value.
//
// Values returned by Parser.TryParse own their payloads: the parser copies
// every text payload (Str, BigNum) out of its input buffer, so a Value
// stays valid after later Feed, TryParse, or Reset calls.
type Value struct {
	Kind Kind

	// Str carries the payload for SimpleString, SimpleError, BulkString,
	// BulkError, and VerbatimString. Null is represented by Null == true
	// with Str == nil, distinguishing it from an empty (non-null) payload.
	Str  []byte
	Null bool

	// Int carries the signed 64-bit payload for Integer.
	Int int64

	// Float carries the payload for Double, including +Inf/-Inf/NaN.
	Float float64

	// Bool carries the payload for Boolean.
	Bool bool

	// BigNum carries the decimal-text payload for BigNumber, stored as the
	// exact digits (with optional leading '-') rather than parsed into a
	// fixed-width integer, since RESP3 big numbers are arbitrary precision.
	BigNum []byte

	// VerbatimTag carries the 3-byte encoding tag (e.g. "txt", "mkd") for
	// VerbatimString; Str carries the payload after the tag separator.
	VerbatimTag [3]byte

	// Elems carries the ordered children for Array, Set, and Push.
	Elems []Value

	// Pairs carries the ordered key/value pairs for Map.
	Pairs []KVPair
}

// NewSimpleString builds a SimpleString value. s must not contain CR or LF;
// the parser enforces that invariant on read, while neither this
// constructor nor Append checks it.
func NewSimpleString(s string) Value {
	return Value{Kind: SimpleString, Str: []byte(s)}
}

// NewSimpleError builds a SimpleError value.
func NewSimpleError(s string) Value {
	return Value{Kind: SimpleError, Str: []byte(s)}
}

// NewInteger builds an Integer value.
func NewInteger(n int64) Value {
	return Value{Kind: Integer, Int: n}
}

// NewBulkString builds a non-null BulkString value. A nil s with a
// non-nil-but-empty distinction is not representable this way; use
// NewNullBulkString for the null bulk string.
func NewBulkString(s []byte) Value {
	if s == nil {
		s = []byte{}
	}
	return Value{Kind: BulkString, Str: s}
}

// NewNullBulkString builds the null BulkString ($-1\r\n).
func NewNullBulkString() Value {
	return Value{Kind: BulkString, Null: true}
}

// NewBulkError builds a non-null BulkError value.
func NewBulkError(s []byte) Value {
	if s == nil {
		s = []byte{}
	}
	return Value{Kind: BulkError, Str: s}
}

// NewNullBulkError builds the null BulkError (!-1\r\n).
func NewNullBulkError() Value {
	return Value{Kind: BulkError, Null: true}
}

// NewArray builds a non-null Array value from its children.
func NewArray(elems []Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: Array, Elems: elems}
}

// NewNullArray builds the null Array (*-1\r\n).
func NewNullArray() Value {
	return Value{Kind: Array, Null: true}
}

// NewNull builds the RESP3-dedicated null (_\r\n), distinct from a null
// bulk string or null array.
func NewNull() Value {
	return Value{Kind: Null}
}

// NewBoolean builds a Boolean value.
func NewBoolean(b bool) Value {
	return Value{Kind: Boolean, Bool: b}
}

// NewDouble builds a Double value, including +Inf/-Inf/NaN.
func NewDouble(f float64) Value {
	return Value{Kind: Double, Float: f}
}

// NewBigNumber builds a BigNumber value from its decimal-text digits
// (optionally prefixed with '-'). The digits are not validated here; the
// parser validates on read, and Append emits them verbatim.
func NewBigNumber(digits []byte) Value {
	return Value{Kind: BigNumber, BigNum: digits}
}

// NewVerbatimString builds a VerbatimString value. tag must be exactly 3
// bytes (e.g. "txt", "mkd"); the caller is responsible for that invariant
// when building values programmatically, as Append does not validate it.
func NewVerbatimString(tag string, payload []byte) Value {
	var v Value
	v.Kind = VerbatimString
	copy(v.VerbatimTag[:], tag)
	if payload == nil {
		payload = []byte{}
	}
	v.Str = payload
	return v
}

// NewMap builds a non-null Map value from its ordered key/value pairs.
func NewMap(pairs []KVPair) Value {
	if pairs == nil {
		pairs = []KVPair{}
	}
	return Value{Kind: Map, Pairs: pairs}
}

// NewNullMap builds the null Map. RESP3 defines no wire encoding for a null
// map distinct from an empty one; this constructor exists for symmetry with
// NewNullArray but Append renders it as an empty map (%0\r\n).
func NewNullMap() Value {
	return Value{Kind: Map, Null: true}
}

// NewSet builds a non-null Set value from its ordered children. RESP3 does
// not deduplicate set members on the wire; this type is a framing marker,
// not a semantic set.
func NewSet(elems []Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: Set, Elems: elems}
}

// NewPush builds a Push (out-of-band) value from its ordered children.
// Push has no null encoding.
func NewPush(elems []Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: Push, Elems: elems}
}

// IsNull reports whether v is the null encoding of its Kind (null bulk
// string, null bulk error, null array, or the dedicated RESP3 Null).
func (v Value) IsNull() bool {
	return v.Kind == Null || v.Null
}

// Equal reports structural equality: order matters inside ordered
// aggregates, and Map equality requires identical key/value pair order
// (RESP3 defines no map canonicalization). NaN Doubles compare equal to
// each other here (classification-based, not IEEE bit equality) since two
// parsed "nan" tokens represent the same observable protocol value.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.IsNull() != b.IsNull() {
		return false
	}
	switch a.Kind {
	case SimpleString, SimpleError, BulkString, BulkError:
		if a.IsNull() {
			return true
		}
		return bytesEqual(a.Str, b.Str)
	case Integer:
		return a.Int == b.Int
	case Null:
		return true
	case Boolean:
		return a.Bool == b.Bool
	case Double:
		if math.IsNaN(a.Float) && math.IsNaN(b.Float) {
			return true
		}
		return a.Float == b.Float
	case BigNumber:
		return bytesEqual(a.BigNum, b.BigNum)
	case VerbatimString:
		return a.VerbatimTag == b.VerbatimTag && bytesEqual(a.Str, b.Str)
	case Array, Set, Push:
		if a.IsNull() {
			return true
		}
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	case Map:
		if a.IsNull() {
			return true
		}
		if len(a.Pairs) != len(b.Pairs) {
			return false
		}
		for i := range a.Pairs {
			if !Equal(a.Pairs[i].Key, b.Pairs[i].Key) || !Equal(a.Pairs[i].Value, b.Pairs[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
