// Package store provides the node-local cache: a bounded map with
// least-recently-used eviction and per-entry time-to-live expiration.
// It is the storage engine under every node, standalone or clustered;
// the cluster layers (routing, replication) sit entirely above it and
// the store never knows which shard an entry belongs to.
//
// # Overview
//
// The store answers four questions, each in O(1):
//
//	Put(k, v, ttl)  - insert or overwrite, always succeeds
//	Get(k)          - value or miss, refreshes recency
//	Delete(k)       - removal, reports whether a live entry died
//	Exists(k)       - liveness probe, leaves recency untouched
//
// Capacity is a hard bound: inserting into a full store evicts the
// least recently used entry first, so the size invariant holds at the
// end of every public operation, never just eventually.
//
// # Architecture
//
// Two structures share ownership of every entry:
//
//	┌───────────────────────────────────────────────┐
//	│                    Store                      │
//	├───────────────────────────────────────────────┤
//	│  items: map[key]*list.Element     O(1) lookup │
//	│  order: doubly linked list        O(1) splice │
//	│                                               │
//	│   front (MRU) ◄──► ... ◄──► back (LRU)        │
//	│        ▲                         │            │
//	│   refreshed by                 evicted        │
//	│   Get / Put                    when full      │
//	└───────────────────────────────────────────────┘
//
// The map yields the list element for a key; the element carries the
// entry (key, value, deadline). Every map key appears in the list
// exactly once and vice versa — the bijection is the package's core
// invariant, and every mutation path goes through the same two
// helpers (remove, evictOldest) to preserve it.
//
// # Recency rules
//
//   - Get on a live key moves it to the most-recent position.
//   - Put always places the key at the most-recent position, whether
//     inserting or updating, and an update also resets the deadline.
//   - Exists never touches recency; a probe is not a use.
//   - Eviction always removes the list tail, the least recently used.
//
// # Expiration
//
// Deadlines are absolute timestamps computed at Put time; a zero
// deadline means the entry never expires. Expiration is lazy: any
// read, probe or delete that encounters a dead entry removes it and
// reports a miss, so observers agree on liveness without a timer per
// entry. A dead entry that nothing touches still occupies a slot,
// which is why the size reported by Len can momentarily include
// entries a client would be told do not exist.
//
// StartSweeper adds an optional background pass for exactly that
// residue: each tick it examines a bounded sample of entries (map
// iteration order makes the sample arbitrary) and drops the expired
// ones. The sweep holds the same mutex as foreground operations, so
// the sample bound is what keeps pauses short. Sweeping is purely an
// optimization; correctness never depends on it.
//
// # Concurrency model
//
// One mutex serializes every operation. Critical sections are a map
// probe plus a couple of pointer splices — tens of nanoseconds — so a
// single lock is cheaper than the bookkeeping of striped locks would
// be at this scale, and it keeps the map/list bijection trivially
// atomic. Contention is bounded by the connection handlers above,
// whose time is dominated by network round trips, not by the store.
//
// A striped design would be a drop-in replacement if profiling ever
// demanded one, provided each stripe kept its own recency list; a
// shared list under striped map locks would break the invariant.
//
// # Performance characteristics
//
//	Put       O(1): probe + splice, eviction included
//	Get       O(1): probe + move-to-front
//	Delete    O(1): probe + unlink
//	Exists    O(1): probe
//	Stats     O(n): full walk, monitoring only
//	sweep     O(sample): bounded per tick
//
// Memory per entry is the entry struct, its list element and the map
// slot — roughly 150 bytes of overhead on top of the key and value
// strings. The default capacity of 10 000 keys therefore costs a few
// megabytes fully loaded.
//
// # Monitoring
//
// Stats returns held keys, the expired-but-uncollected residue and
// the configured capacity. The server layer exposes those through its
// metrics registry; inside this package they are plain numbers with
// no collection machinery attached.
//
// # Testing
//
// The clock is an unexported function field defaulting to time.Now,
// so expiration tests substitute a fake clock and travel in time
// instead of sleeping. Only tests touch it.
package store
