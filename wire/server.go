/*
 * Copyright 2026 The OrdainSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package wire

import (
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/OrdainSQL/OrdainSQL/conf"
	"github.com/OrdainSQL/OrdainSQL/crypto/kms"
	"github.com/OrdainSQL/OrdainSQL/utils/log"
)

// ServerConfig collects the connection server knobs.
type ServerConfig struct {
	ListenAddr     string
	MaxConnections int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// DefaultServerConfig returns a ServerConfig with the default knob values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ListenAddr:     conf.DefaultListenAddr,
		MaxConnections: conf.DefaultMaxConnections,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
	}
}

// ServerConfigFromGlobal returns a ServerConfig built from the loaded global
// configuration, falling back to defaults for unset knobs.
func ServerConfigFromGlobal() *ServerConfig {
	cfg := DefaultServerConfig()
	if conf.GConf == nil {
		return cfg
	}
	if conf.GConf.ListenAddr != "" {
		cfg.ListenAddr = conf.GConf.ListenAddr
	}
	if conf.GConf.MaxConnections > 0 {
		cfg.MaxConnections = conf.GConf.MaxConnections
	}
	if conf.GConf.ReadTimeout > 0 {
		cfg.ReadTimeout = conf.GConf.ReadTimeout
	}
	if conf.GConf.WriteTimeout > 0 {
		cfg.WriteTimeout = conf.GConf.WriteTimeout
	}
	if conf.GConf.IdleTimeout > 0 {
		cfg.IdleTimeout = conf.GConf.IdleTimeout
	}
	return cfg
}

// session carries the per-connection protocol state. Requests of a
// connection are served strictly in order, so the fields need no locking.
type session struct {
	connID       uint64
	inTx         bool
	txDatabase   string
	txStatements []Statement
}

// Server serves the binary client protocol over persistent connections.
type Server struct {
	cfg      *ServerConfig
	provider DatabaseProvider

	listener net.Listener
	conns    sync.Map // map[uint64]net.Conn
	stopCh   chan struct{}
	wg       sync.WaitGroup

	connCount    int32
	connSeq      uint64
	totalRequest uint64
}

// NewServer returns a new Server answering client statements via provider.
func NewServer(cfg *ServerConfig, provider DatabaseProvider) *Server {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	return &Server{
		cfg:      cfg,
		provider: provider,
		stopCh:   make(chan struct{}),
	}
}

// InitServer loads the local key pair and binds the configured listen
// address.
func (s *Server) InitServer(privateKeyPath string, masterKey []byte) (err error) {
	if err = kms.InitLocalKeyPair(privateKeyPath, masterKey); err != nil {
		err = errors.Wrap(err, "init local key pair failed")
		return
	}
	var l net.Listener
	if l, err = net.Listen("tcp", s.cfg.ListenAddr); err != nil {
		err = errors.Wrap(err, "create listener failed")
		return
	}
	s.SetListener(l)
	return
}

// SetListener sets the listener used by the Serve main loop.
func (s *Server) SetListener(l net.Listener) {
	s.listener = l
}

// Addr returns the listener address.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve starts the server main loop. Connections beyond the configured limit
// are closed right away instead of being queued.
func (s *Server) Serve() {
serverLoop:
	for {
		select {
		case <-s.stopCh:
			log.Info("stopping server loop")
			break serverLoop
		default:
			conn, err := s.listener.Accept()
			if err != nil {
				continue
			}
			if limit := s.cfg.MaxConnections; limit > 0 &&
				int(atomic.AddInt32(&s.connCount, 1)) > limit {
				atomic.AddInt32(&s.connCount, -1)
				connRejected.Inc()
				log.WithField("remote", conn.RemoteAddr().String()).
					Warning("connection limit reached, rejecting")
				_ = conn.Close()
				continue
			}
			connAccepted.Inc()
			connActive.Inc()
			log.WithField("remote", conn.RemoteAddr().String()).Info("accept")
			s.wg.Add(1)
			go s.handleConn(conn)
		}
	}
}

// ServeConn serves one established connection until it terminates. It is the
// entry for connections accepted outside the Serve main loop.
func (s *Server) ServeConn(conn net.Conn) {
	atomic.AddInt32(&s.connCount, 1)
	connActive.Inc()
	s.wg.Add(1)
	s.handleConn(conn)
}

func (s *Server) handleConn(conn net.Conn) {
	var (
		id     = uuid.Must(uuid.NewV4()).String()
		connID = atomic.AddUint64(&s.connSeq, 1)
		le     = log.WithFields(log.Fields{
			"conn":   id,
			"remote": conn.RemoteAddr().String(),
		})
		sess = &session{connID: connID}
	)
	s.conns.Store(connID, conn)
	defer func() {
		s.conns.Delete(connID)
		_ = conn.Close()
		atomic.AddInt32(&s.connCount, -1)
		connActive.Dec()
		s.wg.Done()
	}()
	le.Debug("serving connection")

sessionLoop:
	for {
		select {
		case <-s.stopCh:
			le.Debug("stopping session loop")
			break sessionLoop
		default:
			if err := s.serveRequest(conn, sess); err != nil {
				if err != io.EOF {
					le.WithError(err).Debug("session terminated")
				}
				break sessionLoop
			}
		}
	}
}

// serveRequest reads and answers exactly one request. A non-nil return
// terminates the connection; statement level failures are answered with an
// error frame and return nil.
func (s *Server) serveRequest(conn net.Conn, sess *session) (err error) {
	// The idle deadline covers waiting for the next request, the read
	// deadline the request body itself.
	if s.cfg.IdleTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
	}
	var h *Header
	if h, err = ReadHeader(conn); err != nil {
		if err == ErrBadMagic || err == ErrVersionTooNew {
			protocolErrorCount.Inc()
		}
		return
	}
	if s.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}

	atomic.AddUint64(&s.totalRequest, 1)
	requestCount.WithLabelValues(typeString(h.Type)).Inc()
	var start = time.Now()

	if h.Type == TypePing {
		recordQueryCost(start, h.Type, nil)
		s.setWriteDeadline(conn)
		return WritePong(conn, h.RequestID)
	}

	if h.Type != TypeQuery && h.Type != TypeExec && h.Type != TypeTxBegin &&
		h.Type != TypeTxCommit && h.Type != TypeTxRollback {
		protocolErrorCount.Inc()
		s.setWriteDeadline(conn)
		_ = WriteErrorResponse(conn, h.RequestID, ErrUnknownMessageType.Error())
		// The body of an unknown type cannot be parsed, the stream cannot be
		// resynchronized.
		return ErrUnknownMessageType
	}

	var req *Request
	if req, err = ReadRequestBody(conn, h); err != nil {
		protocolErrorCount.Inc()
		s.setWriteDeadline(conn)
		_ = WriteErrorResponse(conn, h.RequestID, err.Error())
		return
	}

	switch h.Type {
	case TypeQuery:
		var (
			columns []string
			rows    [][]Value
			qerr    error
		)
		if sess.inTx {
			qerr = ErrReadInTransaction
		} else {
			columns, rows, qerr = s.provider.Query(
				sess.connID, req.DatabaseID, Statement{SQL: req.SQL, Args: req.Bindings})
		}
		recordQueryCost(start, h.Type, qerr)
		s.setWriteDeadline(conn)
		if qerr != nil {
			return WriteErrorResponse(conn, h.RequestID, qerr.Error())
		}
		if h.Flags&FlagStreaming != 0 {
			return writeStreamedResult(conn, h.RequestID, columns, rows)
		}
		return WriteQueryResult(conn, h.RequestID, columns, rows)

	case TypeExec:
		var (
			lastInsertID, rowsAffected int64
			xerr                       error
		)
		if sess.inTx {
			if req.DatabaseID != sess.txDatabase {
				xerr = ErrCrossDatabaseTransaction
			} else {
				// Queued statements are acknowledged with zero counts, the
				// final counts are returned by the commit.
				sess.txStatements = append(sess.txStatements,
					Statement{SQL: req.SQL, Args: req.Bindings})
			}
		} else {
			lastInsertID, rowsAffected, xerr = s.provider.Exec(
				sess.connID, req.DatabaseID,
				[]Statement{{SQL: req.SQL, Args: req.Bindings}})
		}
		recordQueryCost(start, h.Type, xerr)
		s.setWriteDeadline(conn)
		if xerr != nil {
			return WriteErrorResponse(conn, h.RequestID, xerr.Error())
		}
		return WriteExecResult(conn, h.RequestID, lastInsertID, rowsAffected)

	case TypeTxBegin:
		var xerr error
		if sess.inTx {
			xerr = ErrTransactionOpen
		} else {
			sess.inTx = true
			sess.txDatabase = req.DatabaseID
			sess.txStatements = nil
		}
		recordQueryCost(start, h.Type, xerr)
		s.setWriteDeadline(conn)
		if xerr != nil {
			return WriteErrorResponse(conn, h.RequestID, xerr.Error())
		}
		return WriteExecResult(conn, h.RequestID, 0, 0)

	case TypeTxCommit:
		var (
			lastInsertID, rowsAffected int64
			xerr                       error
		)
		if !sess.inTx {
			xerr = ErrNotInTransaction
		} else {
			stmts, db := sess.txStatements, sess.txDatabase
			// The commit attempt consumes the buffer either way.
			sess.inTx = false
			sess.txStatements = nil
			if len(stmts) > 0 {
				lastInsertID, rowsAffected, xerr = s.provider.Exec(sess.connID, db, stmts)
			}
		}
		recordQueryCost(start, h.Type, xerr)
		s.setWriteDeadline(conn)
		if xerr != nil {
			return WriteErrorResponse(conn, h.RequestID, xerr.Error())
		}
		return WriteExecResult(conn, h.RequestID, lastInsertID, rowsAffected)

	default: // TypeTxRollback
		var xerr error
		if !sess.inTx {
			xerr = ErrNotInTransaction
		} else {
			sess.inTx = false
			sess.txStatements = nil
		}
		recordQueryCost(start, h.Type, xerr)
		s.setWriteDeadline(conn)
		if xerr != nil {
			return WriteErrorResponse(conn, h.RequestID, xerr.Error())
		}
		return WriteExecResult(conn, h.RequestID, 0, 0)
	}
}

func (s *Server) setWriteDeadline(conn net.Conn) {
	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
}

func writeStreamedResult(w io.Writer, requestID uint32, columns []string, rows [][]Value) (err error) {
	if err = WriteRowsStart(w, requestID, columns); err != nil {
		return
	}
	for i := range rows {
		if err = WriteRow(w, rows[i]); err != nil {
			return
		}
	}
	return WriteRowsEnd(w, requestID)
}

// Stats returns the current connection and request counters.
func (s *Server) Stats() map[string]interface{} {
	return map[string]interface{}{
		"connections":    atomic.LoadInt32(&s.connCount),
		"total_requests": atomic.LoadUint64(&s.totalRequest),
	}
}

// Stop stops the server main loop, closes the active connections and waits
// for their session loops to return.
func (s *Server) Stop() {
	if s.listener != nil {
		_ = s.listener.Close()
	}
	close(s.stopCh)
	s.conns.Range(func(_, value interface{}) bool {
		_ = value.(net.Conn).Close()
		return true
	})
	s.wg.Wait()
}
