// Package main implements the kvcache node binary: one member of the
// replicated cache cluster, or a standalone cache when NODE_ID is 0 or
// unset.
//
// Configuration (environment):
//   - NODE_ID: this node's ID in the topology (>= 1), or 0 for
//     standalone mode (default: 0)
//   - PORT: TCP port to listen on (default: 7171, or the topology's
//     port for this node in cluster mode)
//   - MAX_KEYS: cache capacity before LRU eviction (default: 10000)
//   - TOPOLOGY_FILE: YAML topology table; omit for the built-in
//     three-node reference layout
//   - SWEEP_INTERVAL: seconds between expired-entry sweeps, 0 to
//     disable (default: 60)
//   - LOG_LEVEL: trace..error (default: info)
//   - METRICS_ADDR: host:port for the Prometheus /metrics endpoint;
//     omit to disable
//
// Example:
//
//	# Node 2 of the reference cluster
//	NODE_ID=2 PORT=5002 ./node
//
//	# Standalone cache with a small capacity
//	MAX_KEYS=1000 PORT=7171 ./node
//
// Exit codes: 0 after a clean signal-driven shutdown; non-zero when
// the port cannot be bound or NODE_ID has no entry in the topology.
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dreamware/kvcache/internal/cluster"
	"github.com/dreamware/kvcache/internal/logging"
	"github.com/dreamware/kvcache/internal/router"
	"github.com/dreamware/kvcache/internal/server"
	"github.com/dreamware/kvcache/internal/store"
)

const defaultPort = 7171

func main() {
	nodeID := getenvInt("NODE_ID", 0)
	maxKeys := getenvInt("MAX_KEYS", store.DefaultMaxKeys)
	sweepSecs := getenvInt("SWEEP_INTERVAL", 60)

	appName := "standalone"
	if nodeID > 0 {
		appName = fmt.Sprintf("node-%d", nodeID)
	}
	logger, err := logging.New(getenv("LOG_LEVEL", "info"), appName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kvcache: %v\n", err)
		os.Exit(1)
	}

	st := store.New(maxKeys)
	if sweepSecs > 0 {
		st.StartSweeper(time.Duration(sweepSecs) * time.Second)
	}
	defer st.Close()
	server.RegisterStoreMetrics(st)

	// Cluster wiring: topology table plus the outbound router. In
	// standalone mode neither exists and dispatch is purely local.
	var topo *cluster.Topology
	var rt *router.Router
	port := getenvInt("PORT", defaultPort)
	if nodeID > 0 {
		if path := os.Getenv("TOPOLOGY_FILE"); path != "" {
			topo, err = cluster.Load(path)
		} else {
			topo = cluster.Default()
			err = topo.Validate()
		}
		if err != nil {
			logger.Fatalf("topology: %v", err)
		}
		addr, err := topo.Addr(nodeID)
		if err != nil {
			logger.Fatalf("topology: %v", err)
		}
		if os.Getenv("PORT") == "" {
			port = addr.Port
		}

		rt = router.New(nodeID, topo, logger)
		defer rt.Close()

		logger.Infof("node %d: primary for shards %v, replica for shards %v",
			nodeID, topo.PrimaryShards(nodeID), topo.ReplicaShards(nodeID))
	} else {
		logger.Info("standalone mode: all keys served locally")
	}

	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Infof("metrics on http://%s/metrics", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Errorf("metrics endpoint: %v", err)
			}
		}()
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		logger.Fatalf("listen: %v", err)
	}

	srv := server.New(nodeID, st, topo, rt, logger)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-stop
		logger.Infof("received %s, shutting down", sig)
		srv.Stop()
	}()

	logger.Infof("listening on :%d (capacity %d keys)", port, maxKeys)
	if err := srv.Serve(lis); err != nil {
		logger.Fatalf("serve: %v", err)
	}
	logger.Info("node stopped")
}

// getenv retrieves an environment variable with a default fallback.
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getenvInt is getenv for integer settings; a malformed value is a
// startup error, not a silent default.
func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kvcache: %s must be an integer, got %q\n", k, v)
		os.Exit(1)
	}
	return n
}
