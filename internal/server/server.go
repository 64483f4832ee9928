// Package server owns the TCP surface: the accept loop and the
// per-connection sessions that feed raw bytes through the wire decoder
// and dispatch decoded commands against the shared store.
package server

import (
	"errors"
	"net"
	"sync"

	"github.com/midnightkv/midnight/internal/config"
	"github.com/midnightkv/midnight/internal/store"
	"go.uber.org/zap"
)

type Server struct {
	cfg   *config.Config
	store *store.Store
	log   *zap.Logger
	wg    sync.WaitGroup
}

func New(cfg *config.Config, st *store.Store, log *zap.Logger) *Server {
	return &Server{
		cfg:   cfg,
		store: st,
		log:   log,
	}
}

// Serve accepts connections until the listener is closed, spawning one
// session goroutine per connection. Sessions run independently; the only
// state they share is the store
func (s *Server) Serve(l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			newSession(conn, s.store, s.log, s.cfg.Server.ReadBufferSize).serve()
		}()
	}
}

// Wait blocks until every session has finished. Call after closing the
// listener to drain in-flight connections
func (s *Server) Wait() {
	s.wg.Wait()
}
