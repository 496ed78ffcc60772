package config

import (
	"strings"

	"github.com/joomcode/errorx"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override config
// keys, e.g. FAKELDAP_SERVER_ADDRESS for server.address.
const EnvPrefix = "FAKELDAP"

var (
	ErrNamespace = errorx.NewNamespace("config")

	// NotFoundError is returned when the config file cannot be read.
	NotFoundError = ErrNamespace.NewType("not_found")
	// InvalidConfig is returned for unparsable or invalid configuration.
	InvalidConfig = ErrNamespace.NewType("invalid")
)

// LoadConfig loads the configuration. Values come from DefaultConfig, then
// the YAML file at path when path is not empty, then FAKELDAP_* environment
// variables. The result is validated.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, NotFoundError.Wrap(err, "failed to read config file: %s", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, InvalidConfig.Wrap(err, "failed to parse configuration")
	}

	if errs := ValidateConfig(cfg); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return nil, InvalidConfig.New("%s", strings.Join(msgs, "; "))
	}

	return cfg, nil
}

// setDefaults registers every key so environment overrides apply to keys
// the file leaves out.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.address", cfg.Server.Address)
	v.SetDefault("server.maxConnections", cfg.Server.MaxConnections)
	v.SetDefault("server.readTimeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.writeTimeout", cfg.Server.WriteTimeout)
	v.SetDefault("directory.recordFile", cfg.Directory.RecordFile)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
}
