// Package config holds the YAML boot configuration for both server
// roles. A storage server advertises its stubs under its configured
// hostname so they carry an externally routable address rather than a
// loopback. The naming server's hostname is required here but is not
// used by its process wiring.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Naming configures one naming-server process.
type Naming struct {
	NodeID           string `yaml:"node_id"`
	Hostname         string `yaml:"hostname"`
	ServicePort      int    `yaml:"service_port"`
	RegistrationPort int    `yaml:"registration_port"`
	LogDir           string `yaml:"log_dir"`
	LogLevel         string `yaml:"log_level"`
}

// Storage configures one storage-server process.
type Storage struct {
	NodeID      string `yaml:"node_id"`
	Hostname    string `yaml:"hostname"`
	StoragePort int    `yaml:"storage_port"`
	CommandPort int    `yaml:"command_port"`
	Root        string `yaml:"root"`
	NamingAddr  string `yaml:"naming_addr"`
	LogDir      string `yaml:"log_dir"`
	LogLevel    string `yaml:"log_level"`
}

// LoadNaming decodes a Naming config from the YAML file at path.
func LoadNaming(path string) (Naming, error) {
	var cfg Naming
	if err := load(path, &cfg); err != nil {
		return Naming{}, err
	}
	if cfg.Hostname == "" {
		return Naming{}, fmt.Errorf("config: %s: hostname is required", path)
	}
	return cfg, nil
}

// LoadStorage decodes a Storage config from the YAML file at path.
func LoadStorage(path string) (Storage, error) {
	var cfg Storage
	if err := load(path, &cfg); err != nil {
		return Storage{}, err
	}
	if cfg.Hostname == "" {
		return Storage{}, fmt.Errorf("config: %s: hostname is required", path)
	}
	if cfg.NamingAddr == "" {
		return Storage{}, fmt.Errorf("config: %s: naming_addr is required", path)
	}
	return cfg, nil
}

func load(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}
