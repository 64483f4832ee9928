package server

import (
	"errors"
	"io"
	"net"

	"github.com/midnightkv/midnight/internal/command"
	"github.com/midnightkv/midnight/internal/resp"
	"github.com/midnightkv/midnight/internal/store"
	"go.uber.org/zap"
)

const defaultReadBufferSize = 4096

// session drives one client connection. It owns the receive buffer of
// unconsumed input and answers one reply per decoded command, so
// pipelined requests drain before the next blocking read
type session struct {
	conn    net.Conn
	enc     *resp.Encoder
	store   *store.Store
	log     *zap.Logger
	buf     []byte // unconsumed input
	scratch []byte // reusable read chunk
}

func newSession(conn net.Conn, st *store.Store, log *zap.Logger, readBufferSize int) *session {
	if readBufferSize <= 0 {
		readBufferSize = defaultReadBufferSize
	}

	return &session{
		conn:    conn,
		enc:     resp.NewEncoder(conn),
		store:   st,
		log:     log,
		scratch: make([]byte, readBufferSize),
	}
}

func (s *session) serve() {
	addr := s.conn.RemoteAddr().String()
	if s.log.Core().Enabled(zap.DebugLevel) {
		s.log.Debug("client connected", zap.String("addr", addr))
	}

	defer func() {
		s.conn.Close() //nolint:errcheck
		if s.log.Core().Enabled(zap.DebugLevel) {
			s.log.Debug("client disconnected", zap.String("addr", addr))
		}
	}()

	for {
		for len(s.buf) > 0 {
			value, consumed, err := resp.Decode(s.buf)
			if errors.Is(err, resp.ErrIncomplete) {
				break
			}
			if err != nil {
				// Framing is lost, the stream cannot be resumed.
				// Report once and drop the connection.
				s.enc.Write(resp.MakeError("ERR " + err.Error())) //nolint:errcheck
				s.enc.Flush()                                     //nolint:errcheck
				s.log.Warn("malformed input", zap.String("addr", addr), zap.Error(err))
				return
			}
			s.buf = s.buf[consumed:]

			if err := s.enc.Write(s.dispatch(value)); err != nil {
				s.log.Error("write response failed", zap.String("addr", addr), zap.Error(err))
				return
			}
		}

		// Everything decodable has been answered; push the replies out
		// before blocking for more input
		if err := s.enc.Flush(); err != nil {
			s.log.Error("flush failed", zap.String("addr", addr), zap.Error(err))
			return
		}

		n, err := s.conn.Read(s.scratch)
		if err != nil {
			if err != io.EOF {
				s.log.Warn("read failed", zap.String("addr", addr), zap.Error(err))
			}
			return
		}
		s.buf = append(s.buf, s.scratch[:n]...)
	}
}

// dispatch parses and executes one decoded value. Command-layer errors
// become -ERR replies and leave the connection usable
func (s *session) dispatch(value resp.Value) resp.Value {
	cmd, err := command.Parse(value)
	if err != nil {
		return resp.MakeError("ERR " + err.Error())
	}

	if s.log.Core().Enabled(zap.DebugLevel) {
		s.log.Debug("executing command", zap.String("cmd", cmd.Name()))
	}

	return command.Execute(cmd, s.store)
}
