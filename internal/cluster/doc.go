// Package cluster defines the static topology table that every node
// loads at startup: the shard count, the (primary, replica) node pair
// owning each shard, and the listen address of each node.
//
// # Model
//
// The keyspace is partitioned into S shards by hashing each key and
// reducing modulo S. Each shard is owned by exactly one primary node,
// which accepts client writes, and mirrored on exactly one replica
// node, which accepts only the primary's replication traffic but
// serves reads. Membership is fixed: there is no discovery, no
// rebalancing and no failover, so the table can be immutable and every
// lookup lock-free.
//
// # Sources
//
// Nodes use the built-in reference table (three nodes, three shards)
// unless a YAML topology file is supplied, which is how containerised
// deployments substitute logical hostnames. Either way the table is
// validated once at startup; a node whose own ID is absent from the
// table refuses to start.
package cluster
