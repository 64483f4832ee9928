package resp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// ErrIncomplete signals that the buffer does not yet hold a full value.
// The caller must keep the buffered bytes and retry after reading more.
var ErrIncomplete = errors.New("incomplete value")

// MalformedError reports input that can never become a valid value.
// The stream is desynchronized and cannot be safely resumed.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string { return e.Reason }

func malformedf(format string, args ...any) error {
	return &MalformedError{Reason: fmt.Sprintf(format, args...)}
}

var crlf = []byte("\r\n")

// Declared lengths and line fields come from the peer, so both are
// bounded before any arithmetic or allocation trusts them.
const (
	// maxLineLen caps integer, simple string and length-header lines.
	// The terminator must appear within this many bytes; it also keeps a
	// terminator-less line from making every retry rescan a growing buffer.
	maxLineLen = 4096

	// maxBulkLen caps a single bulk string payload at the protocol's
	// conventional 512MB limit.
	maxBulkLen = 512 << 20
)

// Decode reads a single value from the front of buf and returns it
// together with the exact number of bytes consumed. A call that returns
// ErrIncomplete consumed nothing; calling again once more bytes have been
// appended behaves as if the whole buffer had been presented at once.
func Decode(buf []byte) (Value, int, error) {
	if len(buf) == 0 {
		return Value{}, 0, ErrIncomplete
	}

	switch buf[0] {
	case TypeInteger:
		return decodeInteger(buf)
	case TypeSimpleString:
		return decodeSimpleString(buf)
	case TypeBulkString:
		return decodeBulkString(buf)
	case TypeArray:
		return decodeArray(buf)
	default:
		return Value{}, 0, malformedf("unknown prefix %q", buf[0])
	}
}

// decodeLine returns the bytes between the type prefix and the first
// CRLF, plus the count of bytes consumed including the terminator.
func decodeLine(buf []byte) ([]byte, int, error) {
	window := buf
	if len(window) > maxLineLen {
		window = window[:maxLineLen]
	}

	pos := bytes.Index(window, crlf)
	if pos < 0 {
		if len(buf) >= maxLineLen {
			return nil, 0, malformedf("line exceeds %d bytes without terminator", maxLineLen)
		}
		return nil, 0, ErrIncomplete
	}
	return buf[1:pos], pos + 2, nil
}

func decodeInteger(buf []byte) (Value, int, error) {
	line, n, err := decodeLine(buf)
	if err != nil {
		return Value{}, 0, err
	}

	num, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return Value{}, 0, malformedf("invalid integer %q", line)
	}

	return MakeInteger(num), n, nil
}

func decodeSimpleString(buf []byte) (Value, int, error) {
	line, n, err := decodeLine(buf)
	if err != nil {
		return Value{}, 0, err
	}

	val := Value{
		Type:   TypeSimpleString,
		String: append([]byte(nil), line...),
	}
	return val, n, nil
}

func decodeBulkString(buf []byte) (Value, int, error) {
	line, n, err := decodeLine(buf)
	if err != nil {
		return Value{}, 0, err
	}

	length, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return Value{}, 0, malformedf("invalid bulk string length %q", line)
	}

	if length == -1 {
		return MakeNilBulkString(), n, nil
	}
	if length < 0 {
		return Value{}, 0, malformedf("negative bulk string length %d", length)
	}
	if length > maxBulkLen {
		return Value{}, 0, malformedf("bulk string length %d exceeds limit %d", length, maxBulkLen)
	}

	// Compare in int64 so a hostile length cannot wrap the total.
	if int64(len(buf)) < int64(n)+length+2 {
		return Value{}, 0, ErrIncomplete
	}
	total := n + int(length) + 2

	if !bytes.Equal(buf[n+int(length):total], crlf) {
		return Value{}, 0, malformedf("missing CRLF after bulk string data")
	}

	// Copy with make so even a zero-length payload stays non-nil: the
	// command layer tells "no argument" from "empty argument" by nilness.
	data := make([]byte, length)
	copy(data, buf[n:n+int(length)])

	val := Value{
		Type:   TypeBulkString,
		String: data,
	}
	return val, total, nil
}

func decodeArray(buf []byte) (Value, int, error) {
	line, consumed, err := decodeLine(buf)
	if err != nil {
		return Value{}, 0, err
	}

	length, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return Value{}, 0, malformedf("invalid array length %q", line)
	}

	if length == -1 {
		return Value{Type: TypeArray, IsNull: true}, consumed, nil
	}
	if length < 0 {
		return Value{}, 0, malformedf("negative array length %d", length)
	}

	// The declared length is untrusted, so only hint the allocation.
	capHint := length
	if capHint > 64 {
		capHint = 64
	}

	elements := make([]Value, 0, capHint)
	for i := int64(0); i < length; i++ {
		element, n, err := Decode(buf[consumed:])
		if err != nil {
			// Incomplete propagates untouched: arrays decode all-or-nothing.
			return Value{}, 0, err
		}
		elements = append(elements, element)
		consumed += n
	}

	return MakeArray(elements), consumed, nil
}
