package resp3

import (
	"math"
	"strconv"
)

// appendPrefix appends a "<marker><decimal>\r\n" length/count header. This
// mirrors the teacher package's small-integer fast path for the common
// single-digit case.
func appendPrefix(b []byte, marker byte, n int64) []byte {
	if n >= 0 && n <= 9 {
		return append(b, marker, byte('0'+n), '\r', '\n')
	}
	b = append(b, marker)
	b = strconv.AppendInt(b, n, 10)
	return append(b, '\r', '\n')
}

// AppendSimpleString appends a RESP3 simple string: "+<text>\r\n".
// The caller is responsible for ensuring text contains no CR or LF;
// Append (the Value-dispatching entry point) does not silently rewrite it,
// unlike the teacher's AppendString, because RESP3 round-tripping requires
// byte-exactness (invariant 4 in the data model).
func AppendSimpleString(b []byte, text []byte) []byte {
	b = append(b, byte(SimpleString))
	b = append(b, text...)
	return append(b, '\r', '\n')
}

// AppendSimpleError appends a RESP3 simple error: "-<text>\r\n".
func AppendSimpleError(b []byte, text []byte) []byte {
	b = append(b, byte(SimpleError))
	b = append(b, text...)
	return append(b, '\r', '\n')
}

// AppendInteger appends a RESP3 integer: ":<n>\r\n".
func AppendInteger(b []byte, n int64) []byte {
	return appendPrefix(b, byte(Integer), n)
}

// AppendBulkString appends a RESP3 bulk string. A nil data appends the null
// encoding ($-1\r\n); use an empty, non-nil slice for the empty bulk string.
func AppendBulkString(b []byte, data []byte) []byte {
	if data == nil {
		return append(b, '$', '-', '1', '\r', '\n')
	}
	b = appendPrefix(b, byte(BulkString), int64(len(data)))
	b = append(b, data...)
	return append(b, '\r', '\n')
}

// AppendBulkError appends a RESP3 bulk error. A nil data appends the null
// encoding (!-1\r\n).
func AppendBulkError(b []byte, data []byte) []byte {
	if data == nil {
		return append(b, '!', '-', '1', '\r', '\n')
	}
	b = appendPrefix(b, byte(BulkError), int64(len(data)))
	b = append(b, data...)
	return append(b, '\r', '\n')
}

// AppendNull appends the RESP3-dedicated null: "_\r\n".
func AppendNull(b []byte) []byte {
	return append(b, '_', '\r', '\n')
}

// AppendBoolean appends a RESP3 boolean: "#t\r\n" or "#f\r\n".
func AppendBoolean(b []byte, v bool) []byte {
	b = append(b, byte(Boolean))
	if v {
		b = append(b, 't')
	} else {
		b = append(b, 'f')
	}
	return append(b, '\r', '\n')
}

// AppendDouble appends a RESP3 double: ",<value>\r\n". Non-finite values
// are rendered as the literals "inf", "-inf", and "nan" per the protocol;
// finite values use the shortest decimal representation that round-trips.
func AppendDouble(b []byte, f float64) []byte {
	b = append(b, byte(Double))
	switch {
	case math.IsNaN(f):
		b = append(b, 'n', 'a', 'n')
	case math.IsInf(f, 1):
		b = append(b, 'i', 'n', 'f')
	case math.IsInf(f, -1):
		b = append(b, '-', 'i', 'n', 'f')
	default:
		b = strconv.AppendFloat(b, f, 'g', -1, 64)
	}
	return append(b, '\r', '\n')
}

// AppendBigNumber appends a RESP3 big number: "(<digits>\r\n". digits is
// written verbatim; it is the caller's responsibility to pass a valid
// optionally-signed decimal integer (Parser.TryParse enforces this on read).
func AppendBigNumber(b []byte, digits []byte) []byte {
	b = append(b, byte(BigNumber))
	b = append(b, digits...)
	return append(b, '\r', '\n')
}

// AppendVerbatimString appends a RESP3 verbatim string:
// "=<len>\r\n<tag>:<payload>\r\n". tag must be exactly 3 bytes.
func AppendVerbatimString(b []byte, tag [3]byte, payload []byte) []byte {
	b = appendPrefix(b, byte(VerbatimString), int64(len(payload)+4))
	b = append(b, tag[0], tag[1], tag[2], ':')
	b = append(b, payload...)
	return append(b, '\r', '\n')
}

// AppendArrayHeader appends a RESP3 array header: "*<n>\r\n". n == -1
// writes the null-array encoding ("*-1\r\n"); other negative values are
// written as given. Callers normally use Append with a Value instead of
// calling this directly.
func AppendArrayHeader(b []byte, n int) []byte {
	return appendPrefix(b, byte(Array), int64(n))
}

// AppendMapHeader appends a RESP3 map header: "%<n>\r\n", where n is the
// number of key/value pairs (not 2*n).
func AppendMapHeader(b []byte, n int) []byte {
	return appendPrefix(b, byte(Map), int64(n))
}

// AppendSetHeader appends a RESP3 set header: "~<n>\r\n".
func AppendSetHeader(b []byte, n int) []byte {
	return appendPrefix(b, byte(Set), int64(n))
}

// AppendPushHeader appends a RESP3 push header: "><n>\r\n".
func AppendPushHeader(b []byte, n int) []byte {
	return appendPrefix(b, byte(Push), int64(n))
}

// Append appends the wire form of v to b. It is the exact inverse of
// parsing: for every Value a Parser can produce, a Parser fed
// Append(nil, v) will produce (v, len(Append(nil, v)), nil) from TryParse.
// A null Map is written as an empty map (which parses back as non-null) and
// a null Set as "~-1\r\n" (which the parser rejects); neither round-trips.
func Append(b []byte, v Value) []byte {
	switch v.Kind {
	case SimpleString:
		return AppendSimpleString(b, v.Str)
	case SimpleError:
		return AppendSimpleError(b, v.Str)
	case Integer:
		return AppendInteger(b, v.Int)
	case BulkString:
		if v.Null {
			return AppendBulkString(b, nil)
		}
		return AppendBulkString(b, v.Str)
	case BulkError:
		if v.Null {
			return AppendBulkError(b, nil)
		}
		return AppendBulkError(b, v.Str)
	case Null:
		return AppendNull(b)
	case Boolean:
		return AppendBoolean(b, v.Bool)
	case Double:
		return AppendDouble(b, v.Float)
	case BigNumber:
		return AppendBigNumber(b, v.BigNum)
	case VerbatimString:
		return AppendVerbatimString(b, v.VerbatimTag, v.Str)
	case Array:
		if v.Null {
			return AppendArrayHeader(b, -1)
		}
		b = AppendArrayHeader(b, len(v.Elems))
		for _, e := range v.Elems {
			b = Append(b, e)
		}
		return b
	case Set:
		if v.Null {
			return AppendSetHeader(b, -1)
		}
		b = AppendSetHeader(b, len(v.Elems))
		for _, e := range v.Elems {
			b = Append(b, e)
		}
		return b
	case Push:
		b = AppendPushHeader(b, len(v.Elems))
		for _, e := range v.Elems {
			b = Append(b, e)
		}
		return b
	case Map:
		if v.Null {
			return AppendMapHeader(b, 0)
		}
		b = AppendMapHeader(b, len(v.Pairs))
		for _, p := range v.Pairs {
			b = Append(b, p.Key)
			b = Append(b, p.Value)
		}
		return b
	default:
		return b
	}
}
