package config

import "time"

// DefaultPort is the port the server listens on unless configured otherwise.
const DefaultPort = 1389

// DefaultConfig returns a Config with the default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        ":1389",
			MaxConnections: 1000,
			ReadTimeout:    5 * time.Minute,
			WriteTimeout:   30 * time.Second,
		},
		Directory: DirectoryConfig{
			RecordFile: "fakepasswd",
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}
