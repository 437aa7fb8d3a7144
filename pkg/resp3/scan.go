package resp3

import (
	"errors"
	"strconv"
)

// errScanIncomplete is the internal "need more bytes" signal shared by all
// three scanners. It never escapes the package: the parser translates it
// into KindNotEnoughData, since every scan runs after a type marker has
// already been committed (§4.3/§4.4 of the protocol design).
var errScanIncomplete = errors.New("resp3: scan incomplete")

// scanLine locates the next CRLF in view and returns the bytes before it
// (excluding the CRLF) and the number of bytes consumed including the
// CRLF. It never consumes bytes beyond what it successfully matches: if no
// CRLF is present yet, it returns errScanIncomplete without advancing
// anything. A lone CR not followed by LF, or a lone LF not preceded by CR,
// is a protocol error rather than a scan miss.
//
// scanLine is a pure function of view: calling it again on an extended
// view that shares the same prefix produces the same result, satisfying
// the re-entrancy requirement for resumed scans.
func scanLine(view []byte) (line []byte, consumed int, err error) {
	for i := 0; i < len(view); i++ {
		switch view[i] {
		case '\n':
			return nil, 0, newErr(KindInvalidFormat, "line feed without preceding carriage return")
		case '\r':
			if i+1 >= len(view) {
				return nil, 0, errScanIncomplete
			}
			if view[i+1] != '\n' {
				return nil, 0, newErr(KindInvalidFormat, "carriage return without following line feed")
			}
			return view[:i], i + 2, nil
		}
	}
	return nil, 0, errScanIncomplete
}

// scanInteger scans a CRLF-terminated decimal integer line and converts it
// to a signed 64-bit value. allowPlus controls whether a leading '+' is
// accepted (the explicit_positive_sign configuration option); when false,
// a leading '+' is a format error rather than being silently accepted.
func scanInteger(view []byte, allowPlus bool) (n int64, consumed int, err error) {
	line, consumed, err := scanLine(view)
	if err != nil {
		return 0, 0, err
	}
	if len(line) == 0 {
		return 0, 0, newErr(KindInvalidFormat, "empty integer")
	}
	if line[0] == '+' && !allowPlus {
		return 0, 0, newErr(KindInvalidFormat, "explicit '+' sign is not enabled")
	}
	for i, c := range line {
		if c == '-' && i == 0 {
			continue
		}
		if c == '+' && i == 0 {
			continue
		}
		if c < '0' || c > '9' {
			return 0, 0, newErr(KindInvalidFormat, "non-digit byte in integer")
		}
	}
	v, perr := strconv.ParseInt(string(line), 10, 64)
	if perr != nil {
		if ne, ok := perr.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, 0, newErr(KindIntegerOverflow, string(line))
		}
		return 0, 0, newErr(KindInvalidFormat, "invalid integer: "+string(line))
	}
	return v, consumed, nil
}

// scanCounted checks whether n bytes followed by CRLF are available in
// view. It returns the n-byte slice and the number of bytes consumed
// including the trailing CRLF, or errScanIncomplete if not enough bytes
// have arrived yet. If the two bytes at position n are present but are not
// exactly CR LF, it signals a protocol error instead of a scan miss.
func scanCounted(view []byte, n int) (data []byte, consumed int, err error) {
	if n < 0 {
		return nil, 0, newErr(KindInvalidLength, "negative counted length")
	}
	if n > len(view)-2 {
		return nil, 0, errScanIncomplete
	}
	if view[n] != '\r' || view[n+1] != '\n' {
		return nil, 0, newErr(KindInvalidFormat, "missing CRLF after counted payload")
	}
	return view[:n], n + 2, nil
}
