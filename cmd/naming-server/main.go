package main

import (
	"flag"
	"log"

	"github.com/arjunmenon/meridian/internal/config"
	"github.com/arjunmenon/meridian/servers/naming"
)

func main() {
	var (
		configPath       = flag.String("config", "", "YAML config file (when set, it replaces the flags below)")
		nodeID           = flag.String("node-id", "naming", "Node ID")
		hostname         = flag.String("hostname", "localhost", "Hostname of this naming server (accepted but not used for listening or advertising)")
		servicePort      = flag.Int("service-port", 8080, "Client-facing service port")
		registrationPort = flag.Int("registration-port", 8090, "Storage-server registration port")
		logDir           = flag.String("log-dir", "./logs", "Log directory")
		logLevel         = flag.String("log-level", "INFO", "Minimum log level")
	)
	flag.Parse()

	opts := naming.Options{
		NodeID:           *nodeID,
		Hostname:         *hostname,
		ServicePort:      *servicePort,
		RegistrationPort: *registrationPort,
		LogDir:           *logDir,
		LogLevel:         *logLevel,
	}

	if *configPath != "" {
		cfg, err := config.LoadNaming(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		opts = naming.Options{
			NodeID:           cfg.NodeID,
			Hostname:         cfg.Hostname,
			ServicePort:      cfg.ServicePort,
			RegistrationPort: cfg.RegistrationPort,
			LogDir:           cfg.LogDir,
			LogLevel:         cfg.LogLevel,
		}
	}

	server, err := naming.Build(opts)
	if err != nil {
		log.Fatalf("Failed to build naming server: %v", err)
	}
	if err := server.Run(); err != nil {
		log.Fatalf("Naming server failed: %v", err)
	}
}
