package resp

import (
	"bufio"
	"io"
	"strconv"
)

// Append serializes v in wire form and appends it to dst.
func Append(dst []byte, v Value) []byte {
	switch v.Type {
	case TypeInteger:
		dst = append(dst, TypeInteger)
		dst = strconv.AppendInt(dst, v.Integer, 10)
		dst = append(dst, crlf...)

	case TypeSimpleString, TypeError:
		dst = append(dst, v.Type)
		dst = append(dst, v.String...)
		dst = append(dst, crlf...)

	case TypeBulkString:
		if v.IsNull {
			dst = append(dst, "$-1\r\n"...)
			break
		}
		dst = append(dst, TypeBulkString)
		dst = strconv.AppendInt(dst, int64(len(v.String)), 10)
		dst = append(dst, crlf...)
		dst = append(dst, v.String...)
		dst = append(dst, crlf...)

	case TypeArray:
		if v.IsNull {
			dst = append(dst, "*-1\r\n"...)
			break
		}
		dst = append(dst, TypeArray)
		dst = strconv.AppendInt(dst, int64(len(v.Array)), 10)
		dst = append(dst, crlf...)
		for _, el := range v.Array {
			dst = Append(dst, el)
		}
	}

	return dst
}

// Encoder handles the serialization of RESP Value objects into an output stream
type Encoder struct {
	writer  *bufio.Writer
	scratch []byte
}

// NewEncoder initializes an Encoder with a buffered writer
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		writer: bufio.NewWriter(w),
	}
}

// Write serializes a RESP Value into the underlying buffer.
// The bytes reach the stream on Flush or when the buffer fills up.
func (e *Encoder) Write(v Value) error {
	e.scratch = Append(e.scratch[:0], v)
	_, err := e.writer.Write(e.scratch)
	return err
}

// Flush sends all buffered data to the stream
func (e *Encoder) Flush() error {
	return e.writer.Flush()
}
