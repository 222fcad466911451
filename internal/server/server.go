package server

import (
	"bufio"
	"errors"
	"net"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"github.com/dreamware/kvcache/internal/cluster"
	"github.com/dreamware/kvcache/internal/protocol"
	"github.com/dreamware/kvcache/internal/router"
	"github.com/dreamware/kvcache/internal/store"
)

// Server accepts client connections and drives each through the
// command loop: read a line, parse it, dispatch it by cluster policy,
// write the response. One goroutine per connection; within a
// connection commands are strictly ordered, with no pipelining.
//
// In cluster mode (topo and rt non-nil) dispatch follows the routing
// table: reads are served wherever a copy of the shard lives, client
// writes are executed on the primary and mirrored to the replica, and
// replication traffic is accepted only by the shard's replica. In
// standalone mode both are nil and every command executes locally.
type Server struct {
	self   int
	store  *store.Store
	topo   *cluster.Topology
	rt     *router.Router
	logger *log.Logger

	listener net.Listener
}

// New assembles a server. topo and rt must both be nil (standalone)
// or both be set (cluster member); self is ignored in standalone mode.
func New(self int, st *store.Store, topo *cluster.Topology, rt *router.Router, logger *log.Logger) *Server {
	return &Server{
		self:   self,
		store:  st,
		topo:   topo,
		rt:     rt,
		logger: logger,
	}
}

// Serve accepts connections on l until the listener is closed. It
// blocks for the life of the server and returns nil after Stop.
func (s *Server) Serve(l net.Listener) error {
	s.listener = l
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.SetNoDelay(true)
		}
		go s.handleConn(conn)
	}
}

// Stop closes the listener, unblocking Serve. Connections already
// accepted are not closed: each session keeps being served until its
// client quits or disconnects.
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
}

// handleConn runs one client session. The scanner caps lines at the
// protocol limit; a longer line leaves the buffer unrecoverable, so it
// gets one error response and the connection is closed. Idle clients
// are never timed out — sessions are persistent.
func (s *Server) handleConn(conn net.Conn) {
	openConnections.Inc()
	defer openConnections.Dec()
	defer conn.Close()

	remote := conn.RemoteAddr()
	s.logger.Debugf("client connected: %s", remote)

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, protocol.MaxLineLen), protocol.MaxLineLen)
	w := bufio.NewWriter(conn)

	for sc.Scan() {
		line := sc.Text()
		if !utf8.ValidString(line) {
			s.writeResponse(w, protocol.Error("invalid encoding"))
			return
		}

		cmd, err := protocol.Parse(line)
		if err != nil {
			if !s.writeResponse(w, protocol.Error(err.Error())) {
				return
			}
			continue
		}

		if cmd.Kind == protocol.KindQuit {
			s.writeResponse(w, protocol.Bye())
			s.logger.Debugf("client quit: %s", remote)
			return
		}

		resp := s.dispatch(cmd)
		commandsTotal.WithLabelValues(cmd.Kind.String(), outcomeLabel(resp.OK)).Inc()
		if !s.writeResponse(w, resp) {
			return
		}
	}

	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			s.writeResponse(w, protocol.Error("line too long"))
			return
		}
		s.logger.Debugf("client read error: %s: %v", remote, err)
		return
	}
	s.logger.Debugf("client disconnected: %s", remote)
}

// writeResponse flushes one response line before the next read, which
// is what keeps per-connection ordering strict. Returns false when the
// client is gone.
func (s *Server) writeResponse(w *bufio.Writer, resp protocol.Response) bool {
	if _, err := w.WriteString(protocol.FormatResponse(resp)); err != nil {
		return false
	}
	return w.Flush() == nil
}

// dispatch applies the cluster routing policy to one command.
func (s *Server) dispatch(cmd protocol.Command) protocol.Response {
	if s.topo == nil {
		// Standalone: no routing checks, everything is local.
		return s.serveLocal(cmd)
	}

	switch {
	case cmd.IsReplication():
		// Replication traffic terminates here: it is never forwarded
		// and never re-replicated, regardless of outcome.
		if !s.topo.IsReplica(s.self, cmd.Key) {
			return protocol.Error("not a replica for this key")
		}
		return s.serveLocal(cmd)

	case cmd.IsRead():
		// Any node holding a copy of the shard answers a read.
		if s.topo.Owns(s.self, cmd.Key) {
			return s.serveLocal(cmd)
		}
		return s.forward(cmd)

	case cmd.IsWrite():
		if !s.topo.IsPrimary(s.self, cmd.Key) {
			return s.forward(cmd)
		}
		resp := s.serveLocal(cmd)
		if resp.OK {
			// Replication is best-effort: the client's answer does
			// not change if the mirror fails, but the failure is
			// visible to operators.
			if err := s.rt.Replicate(cmd); err != nil {
				replicationFailuresTotal.Inc()
				s.logger.Warnf("replication failed: %v", err)
			}
		}
		return resp
	}

	return protocol.Error("invalid command")
}

// forward relays a command to the key's primary and returns its
// response verbatim.
func (s *Server) forward(cmd protocol.Command) protocol.Response {
	resp, err := s.rt.ForwardToPrimary(cmd)
	if err != nil {
		s.logger.Warnf("forward failed: %v", err)
		return protocol.Error("upstream unavailable")
	}
	forwardsTotal.Inc()
	return resp
}

// serveLocal executes a command against this node's store.
func (s *Server) serveLocal(cmd protocol.Command) protocol.Response {
	switch cmd.Kind {
	case protocol.KindPut, protocol.KindReplPut:
		s.store.Put(cmd.Key, cmd.Value, time.Duration(cmd.TTL)*time.Second)
		return protocol.Stored()

	case protocol.KindGet:
		value, ok := s.store.Get(cmd.Key)
		if !ok {
			return protocol.Error("key not found")
		}
		return protocol.Value(value)

	case protocol.KindDelete:
		if !s.store.Delete(cmd.Key) {
			return protocol.Error("key not found")
		}
		return protocol.Deleted()

	case protocol.KindReplDelete:
		// The mirror delete is idempotent: the replica acknowledges
		// even if local eviction already removed the key.
		s.store.Delete(cmd.Key)
		return protocol.Deleted()

	case protocol.KindExists:
		return protocol.Exists(s.store.Exists(cmd.Key))
	}
	return protocol.Error("invalid command")
}
