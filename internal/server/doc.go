// Package server is the inbound half of a node: it accepts TCP
// connections, reads newline-terminated command lines, and answers
// each with one response line.
//
// # Concurrency
//
// Every accepted connection gets its own goroutine. Within a
// connection the loop is strictly sequential — the next line is not
// read until the previous response has been flushed — so clients
// always see responses in the order they sent commands. Across
// connections the only shared state is the store (one mutex, O(1)
// critical sections) and the router's peer slots (one mutex each).
//
// # Dispatch
//
// Parsed commands flow through the cluster routing policy:
//
//	GET/EXISTS    served locally when this node is primary OR replica
//	              of the key's shard, else forwarded to the primary
//	PUT/DELETE    executed locally on the primary, then mirrored to
//	              the replica; forwarded to the primary from any
//	              other node
//	REPL_*        accepted only by the shard's replica, executed
//	              locally, never forwarded or re-replicated
//	QUIT          answered with "OK bye", then the connection closes
//
// Replication is synchronous but best-effort: the primary waits for
// the replica's acknowledgement, logs a failure, and still reports
// success to the client. In standalone mode (no topology) the entire
// table collapses to "serve locally".
//
// # Failure policy
//
// Parse errors answer ERROR and keep the connection. Over-long lines
// and invalid encodings answer ERROR once and close, because the
// stream is no longer trustworthy. EOF and I/O errors close silently.
package server
