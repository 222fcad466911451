package cluster

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"strconv"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Assignment names the two nodes responsible for one shard. The
// primary accepts client writes; the replica mirrors them and serves
// reads. The two must be distinct nodes.
type Assignment struct {
	Primary int `yaml:"primary"`
	Replica int `yaml:"replica"`
}

// NodeAddr is where a node listens. Hosts may be literal (localhost)
// or logical container names, depending on deployment.
type NodeAddr struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// String renders the address in host:port form suitable for dialing.
func (a NodeAddr) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Topology is the static cluster table: which nodes exist, where they
// listen, and which node pair owns each shard. It is immutable after
// startup, so every lookup is lock-free.
//
// The reference three-node layout is:
//
//	shard 0 -> primary 1, replica 3
//	shard 1 -> primary 2, replica 1
//	shard 2 -> primary 3, replica 2
//
// Every node is primary for one shard and replica for another, so each
// node holds copies of two of the three shards; reads for the third
// shard are forwarded to its primary.
type Topology struct {
	Shards map[int]Assignment `yaml:"shards"`
	Nodes  map[int]NodeAddr   `yaml:"nodes"`
}

// Default returns the built-in reference topology: three nodes on
// localhost ports 5001-5003 with the shard table above.
func Default() *Topology {
	return &Topology{
		Shards: map[int]Assignment{
			0: {Primary: 1, Replica: 3},
			1: {Primary: 2, Replica: 1},
			2: {Primary: 3, Replica: 2},
		},
		Nodes: map[int]NodeAddr{
			1: {Host: "localhost", Port: 5001},
			2: {Host: "localhost", Port: 5002},
			3: {Host: "localhost", Port: 5003},
		},
	}
}

// Load reads a topology table from a YAML file:
//
//	shards:
//	  0: {primary: 1, replica: 3}
//	  1: {primary: 2, replica: 1}
//	  2: {primary: 3, replica: 2}
//	nodes:
//	  1: {host: kv-node-1, port: 5001}
//	  2: {host: kv-node-2, port: 5001}
//	  3: {host: kv-node-3, port: 5001}
//
// The result is validated before being returned.
func Load(path string) (*Topology, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topology: %w", err)
	}
	var t Topology
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse topology: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks the structural invariants of the table: shard IDs
// are contiguous from zero, each shard names two distinct nodes, and
// every named node has an address.
func (t *Topology) Validate() error {
	if len(t.Shards) == 0 {
		return fmt.Errorf("topology has no shards")
	}
	ids := make([]int, 0, len(t.Shards))
	for id := range t.Shards {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for i, id := range ids {
		if id != i {
			return fmt.Errorf("shard IDs must be contiguous from 0, found %d", id)
		}
	}
	for id, a := range t.Shards {
		if a.Primary == a.Replica {
			return fmt.Errorf("shard %d: primary and replica are both node %d", id, a.Primary)
		}
		if _, ok := t.Nodes[a.Primary]; !ok {
			return fmt.Errorf("shard %d: unknown primary node %d", id, a.Primary)
		}
		if _, ok := t.Nodes[a.Replica]; !ok {
			return fmt.Errorf("shard %d: unknown replica node %d", id, a.Replica)
		}
	}
	return nil
}

// NumShards returns the shard count S.
func (t *Topology) NumShards() int { return len(t.Shards) }

// HasNode reports whether the table knows the given node ID.
func (t *Topology) HasNode(id int) bool {
	_, ok := t.Nodes[id]
	return ok
}

// Addr returns the listen address of a node.
func (t *Topology) Addr(id int) (NodeAddr, error) {
	addr, ok := t.Nodes[id]
	if !ok {
		return NodeAddr{}, fmt.Errorf("unknown node %d", id)
	}
	return addr, nil
}

// ShardForKey maps a key onto its shard: the first eight bytes of the
// key's SHA-256 digest, read big-endian, modulo the shard count. Every
// node computes the same mapping, which is what makes the table a
// routing authority rather than a suggestion.
func (t *Topology) ShardForKey(key string) int {
	digest := sha256.Sum256([]byte(key))
	h := binary.BigEndian.Uint64(digest[:8])
	return int(h % uint64(len(t.Shards)))
}

// PrimaryFor returns the node that accepts client writes for the
// key's shard.
func (t *Topology) PrimaryFor(key string) int {
	return t.Shards[t.ShardForKey(key)].Primary
}

// ReplicaFor returns the node that mirrors the key's shard.
func (t *Topology) ReplicaFor(key string) int {
	return t.Shards[t.ShardForKey(key)].Replica
}

// IsPrimary reports whether node is the primary for the key's shard.
func (t *Topology) IsPrimary(node int, key string) bool {
	return t.PrimaryFor(key) == node
}

// IsReplica reports whether node is the replica for the key's shard.
func (t *Topology) IsReplica(node int, key string) bool {
	return t.ReplicaFor(key) == node
}

// Owns reports whether node holds a copy of the key's shard at all,
// as primary or replica. Reads are served locally wherever this is
// true.
func (t *Topology) Owns(node int, key string) bool {
	return t.IsPrimary(node, key) || t.IsReplica(node, key)
}

// PrimaryShards lists, in order, the shards the node is primary for.
func (t *Topology) PrimaryShards(node int) []int {
	var shards []int
	for id, a := range t.Shards {
		if a.Primary == node {
			shards = append(shards, id)
		}
	}
	slices.Sort(shards)
	return shards
}

// ReplicaShards lists, in order, the shards the node replicates.
func (t *Topology) ReplicaShards(node int) []int {
	var shards []int
	for id, a := range t.Shards {
		if a.Replica == node {
			shards = append(shards, id)
		}
	}
	slices.Sort(shards)
	return shards
}
