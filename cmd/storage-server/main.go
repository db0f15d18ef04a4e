package main

import (
	"flag"
	"log"

	"github.com/arjunmenon/meridian/internal/config"
	"github.com/arjunmenon/meridian/servers/storage"
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML config file (when set, it replaces the flags below)")
		nodeID      = flag.String("node-id", "storage", "Node ID")
		hostname    = flag.String("hostname", "localhost", "Hostname advertised in the stubs sent to the naming server")
		storagePort = flag.Int("storage-port", 9080, "Client-facing storage port")
		commandPort = flag.Int("command-port", 9090, "Naming-server-facing command port")
		root        = flag.String("root", "./data", "Local filesystem root")
		namingAddr  = flag.String("naming-addr", "localhost:8090", "Naming server registration address")
		logDir      = flag.String("log-dir", "./logs", "Log directory")
		logLevel    = flag.String("log-level", "INFO", "Minimum log level")
	)
	flag.Parse()

	opts := storage.Options{
		NodeID:      *nodeID,
		Hostname:    *hostname,
		StoragePort: *storagePort,
		CommandPort: *commandPort,
		Root:        *root,
		NamingAddr:  *namingAddr,
		LogDir:      *logDir,
		LogLevel:    *logLevel,
	}

	if *configPath != "" {
		cfg, err := config.LoadStorage(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		opts = storage.Options{
			NodeID:      cfg.NodeID,
			Hostname:    cfg.Hostname,
			StoragePort: cfg.StoragePort,
			CommandPort: cfg.CommandPort,
			Root:        cfg.Root,
			NamingAddr:  cfg.NamingAddr,
			LogDir:      cfg.LogDir,
			LogLevel:    cfg.LogLevel,
		}
	}

	server, err := storage.Build(opts)
	if err != nil {
		log.Fatalf("Failed to build storage server: %v", err)
	}
	if err := server.Run(); err != nil {
		log.Fatalf("Storage server failed: %v", err)
	}
}
