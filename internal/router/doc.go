// Package router implements a node's outbound connections to its
// peers: forwarding client writes to a shard's primary and mirroring
// applied writes to a shard's replica.
//
// # Connection discipline
//
// Each peer gets exactly one persistent TCP connection, dialed on
// first use and guarded by a per-peer mutex that admits one request in
// flight at a time. Ordering per peer is a correctness property, not a
// tuning choice: the replica must apply writes in the order the
// primary issued them, and a single serialized connection provides
// that order without any sequencing protocol.
//
// # Failure handling
//
// Every dial, write and read carries a bounded deadline. On any I/O
// error the connection is closed and forgotten; the next call redials.
// The router reports failures to its caller and never retries on its
// own — whether a failed exchange is fatal (a forward) or merely
// logged (a replication) is the server's policy decision.
//
// # Traffic shapes
//
// ForwardToPrimary sends the command exactly as a client would write
// it, never in REPL_* form, and returns the primary's one-line
// response verbatim. Replicate sends the REPL_* form and demands an OK
// acknowledgement. Replication commands are never forwarded, which
// together with the server's dispatch rules makes replication loops
// impossible.
package router
