package router

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/dreamware/kvcache/internal/cluster"
	"github.com/dreamware/kvcache/internal/protocol"
)

// DefaultTimeout bounds every peer dial, write and read. A peer that
// does not answer within it is treated as failed and its connection is
// discarded.
const DefaultTimeout = 5 * time.Second

// Router is the outbound half of the cluster: a client for the other
// nodes' listening ports. It keeps one lazily-dialed persistent TCP
// connection per peer and allows exactly one request in flight on each,
// which is what guarantees that a shard's replica observes writes in
// the order the primary applied them.
//
// A connection that fails is dropped on the spot and redialed on the
// next call, so peer restarts heal without any management traffic.
type Router struct {
	self    int
	topo    *cluster.Topology
	logger  *log.Logger
	timeout time.Duration

	mu    sync.Mutex
	peers map[int]*peer

	// reads coalesces concurrent identical forwarded reads so a hot
	// key probed by many local clients costs one peer round trip.
	// Writes are never coalesced.
	reads singleflight.Group
}

// peer is one outbound connection slot. Its mutex enforces the
// one-request-in-flight discipline: whoever holds it writes one line
// and reads exactly one response line.
type peer struct {
	id   int
	addr string

	mu   sync.Mutex
	conn net.Conn
	br   *bufio.Reader
}

// New creates a router for the given node. The topology supplies peer
// addresses; connections are opened on first use, never eagerly.
func New(self int, topo *cluster.Topology, logger *log.Logger) *Router {
	return &Router{
		self:    self,
		topo:    topo,
		logger:  logger,
		timeout: DefaultTimeout,
		peers:   make(map[int]*peer),
	}
}

// ForwardToPrimary relays a client command, unchanged, to the primary
// of the key's shard and returns the primary's response. Concurrent
// identical reads share one round trip; writes always go out
// individually.
//
// An I/O failure discards the peer connection and surfaces as an
// error; the caller turns it into "ERROR upstream unavailable".
func (r *Router) ForwardToPrimary(cmd protocol.Command) (protocol.Response, error) {
	target := r.topo.PrimaryFor(cmd.Key)
	line := protocol.FormatCommand(cmd)
	r.logger.Debugf("forwarding %s %s to node %d", cmd.Kind, cmd.Key, target)

	var raw string
	var err error
	if cmd.IsRead() {
		var v interface{}
		v, err, _ = r.reads.Do(line, func() (interface{}, error) {
			return r.exchange(target, line)
		})
		if err == nil {
			raw = v.(string)
		}
	} else {
		raw, err = r.exchange(target, line)
	}
	if err != nil {
		return protocol.Response{}, fmt.Errorf("forward to node %d: %w", target, err)
	}
	return protocol.ParseResponse(raw)
}

// Replicate sends the replication form of an applied write (REPL_PUT
// or REPL_DELETE) to the replica of the key's shard and waits for its
// acknowledgement. A transport failure or an ERROR acknowledgement is
// returned as an error; the caller decides that replication is
// best-effort, not this layer.
func (r *Router) Replicate(cmd protocol.Command) error {
	target := r.topo.ReplicaFor(cmd.Key)
	repl := cmd.Repl()
	r.logger.Debugf("replicating %s %s to node %d", repl.Kind, repl.Key, target)

	raw, err := r.exchange(target, protocol.FormatCommand(repl))
	if err != nil {
		return fmt.Errorf("replicate to node %d: %w", target, err)
	}
	resp, err := protocol.ParseResponse(raw)
	if err != nil {
		return fmt.Errorf("replicate to node %d: %w", target, err)
	}
	if !resp.OK {
		return fmt.Errorf("replica %d rejected %s %s: %s", target, repl.Kind, repl.Key, resp.Payload)
	}
	return nil
}

// Close tears down every open peer connection. Safe to call at any
// time; in-flight exchanges finish or fail on their own deadlines.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.peers {
		p.mu.Lock()
		p.closeLocked()
		p.mu.Unlock()
	}
}

// exchange performs one request/response round trip with a peer.
func (r *Router) exchange(node int, line string) (string, error) {
	p, err := r.peer(node)
	if err != nil {
		return "", err
	}
	return p.roundTrip(line, r.timeout)
}

// peer returns the connection slot for a node, creating it on first
// use. The slot exists for the life of the router even while its
// connection is down.
func (r *Router) peer(id int) (*peer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.peers[id]; ok {
		return p, nil
	}
	addr, err := r.topo.Addr(id)
	if err != nil {
		return nil, err
	}
	p := &peer{id: id, addr: addr.String()}
	r.peers[id] = p
	return p, nil
}

// roundTrip writes one request line and reads one response line,
// holding the peer mutex throughout. Any failure closes the
// connection so the next call starts from a fresh dial.
func (p *peer) roundTrip(line string, timeout time.Duration) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		conn, err := net.DialTimeout("tcp", p.addr, timeout)
		if err != nil {
			return "", fmt.Errorf("dial %s: %w", p.addr, err)
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.SetNoDelay(true)
		}
		p.conn = conn
		p.br = bufio.NewReader(conn)
	}

	if err := p.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		p.closeLocked()
		return "", err
	}
	if _, err := p.conn.Write([]byte(line)); err != nil {
		p.closeLocked()
		return "", err
	}

	if err := p.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		p.closeLocked()
		return "", err
	}
	resp, err := p.br.ReadString('\n')
	if err != nil {
		p.closeLocked()
		return "", err
	}
	return resp, nil
}

func (p *peer) closeLocked() {
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
		p.br = nil
	}
}
