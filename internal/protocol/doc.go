// Package protocol implements the line-oriented text codec spoken by
// clients, and by nodes to each other.
//
// # Wire format
//
// A request is one ASCII line terminated by '\n' ('\r' immediately
// before the newline is tolerated and stripped). Tokens are separated
// by spaces:
//
//	PUT <key> <value> [<ttl>]
//	GET <key>
//	DELETE <key>
//	EXISTS <key>
//	REPL_PUT <key> <value> [<ttl>]
//	REPL_DELETE <key>
//	QUIT
//
// REPL_PUT and REPL_DELETE carry the same payload as their client
// counterparts and differ only by tag; they are produced exclusively by
// a shard primary replicating an applied write to the shard replica.
//
// A response is one line: "OK" with an optional payload token, or
// "ERROR" followed by a message that may contain spaces:
//
//	OK stored
//	OK deleted
//	OK <value>
//	OK 1
//	OK 0
//	ERROR key not found
//
// # Contract
//
// Parse and the Format functions are pure. Parse maps syntactic
// failures to errors whose text is exactly the message the server must
// put on the wire, so the caller never invents error strings. Keys and
// values are limited to 256 bytes, TTLs to non-negative 31-bit second
// counts, and request lines to 1 KiB.
package protocol
