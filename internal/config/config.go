// Package config provides configuration loading for the fakeldap server.
package config

import "time"

// Config holds the complete server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Directory DirectoryConfig `yaml:"directory" mapstructure:"directory"`
	Logging   LogConfig       `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig holds listener configuration.
type ServerConfig struct {
	// Address is the TCP listen address, host:port.
	Address string `yaml:"address" mapstructure:"address"`
	// MaxConnections caps concurrent client connections; 0 means no limit.
	MaxConnections int `yaml:"maxConnections" mapstructure:"maxConnections"`
	// ReadTimeout bounds the wait for the next request on a connection; 0
	// disables it.
	ReadTimeout time.Duration `yaml:"readTimeout" mapstructure:"readTimeout"`
	// WriteTimeout bounds each response write; 0 disables it.
	WriteTimeout time.Duration `yaml:"writeTimeout" mapstructure:"writeTimeout"`
}

// DirectoryConfig holds directory configuration.
type DirectoryConfig struct {
	// RecordFile is the path of the colon-delimited user record file.
	RecordFile string `yaml:"recordFile" mapstructure:"recordFile"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
}
