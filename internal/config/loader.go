package config

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a
// Config. Flag values override config-file settings.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := &Config{
		Mode:        ModeWrite,
		Total:       1000,
		Concurrency: 1,
		BatchSize:   100,
		ReadLimit:   100,
		PayloadSize: 64,
		Timeout:     30 * time.Second,
		ConfigFile:  configPath,
		Feeder:      FeederConfig{KeyField: "key", Rewind: true},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Mode = Mode(strings.ToLower(strings.TrimSpace(string(cfg.Mode))))
	cfg.DSN = strings.TrimSpace(cfg.DSN)
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.Path = strings.TrimSpace(cfg.Path)

	if cfg.Feeder.Path != "" && cfg.Feeder.Type == "" {
		cfg.Feeder.Type = feederTypeFromExtension(cfg.Feeder.Path)
	}

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	stringFields := []struct {
		dst  *string
		keys []string
	}{
		{&cfg.Backend, []string{"backend"}},
		{&cfg.DSN, []string{"dsn"}},
		{&cfg.Addr, []string{"addr"}},
		{&cfg.Password, []string{"password"}},
		{&cfg.Path, []string{"path"}},
		{&cfg.Table, []string{"table"}},
		{&cfg.KeyPrefix, []string{"keyprefix", "key_prefix", "key-prefix"}},
	}
	for _, f := range stringFields {
		if raw, ok := lookupSetting(settings, f.keys...); ok {
			val, err := asString(raw)
			if err != nil {
				return err
			}
			*f.dst = val
		}
	}

	intFields := []struct {
		dst  *int
		keys []string
	}{
		{&cfg.RedisDB, []string{"redisdb", "redis_db", "redis-db"}},
		{&cfg.MaxConns, []string{"maxconns", "max_conns", "max-conns"}},
		{&cfg.Total, []string{"total"}},
		{&cfg.Concurrency, []string{"concurrency"}},
		{&cfg.BatchSize, []string{"batchsize", "batch_size", "batch-size"}},
		{&cfg.ReadLimit, []string{"readlimit", "read_limit", "read-limit"}},
		{&cfg.PayloadSize, []string{"payloadsize", "payload_size", "payload-size"}},
		{&cfg.SeedOps, []string{"seedops", "seed_ops", "seed-ops"}},
		{&cfg.Rate, []string{"rate"}},
	}
	for _, f := range intFields {
		if raw, ok := lookupSetting(settings, f.keys...); ok {
			val, err := asInt(raw)
			if err != nil {
				return err
			}
			*f.dst = val
		}
	}

	if raw, ok := lookupSetting(settings, "mode"); ok {
		val, err := asString(raw)
		if err != nil {
			return err
		}
		if val != "" {
			cfg.Mode = Mode(val)
		}
	}

	if raw, ok := lookupSetting(settings, "timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return err
		}
		cfg.Timeout = dur
	}

	boolFields := []struct {
		dst  *bool
		keys []string
	}{
		{&cfg.JSONOutput, []string{"jsonoutput", "json_output", "json-output", "json"}},
		{&cfg.Dashboard, []string{"dashboard"}},
		{&cfg.LogErrors, []string{"logerrors", "log_errors", "log-errors"}},
	}
	for _, f := range boolFields {
		if raw, ok := lookupSetting(settings, f.keys...); ok {
			val, err := asBool(raw)
			if err != nil {
				return err
			}
			*f.dst = val
		}
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		vals, err := asStringSlice(raw)
		if err != nil {
			return err
		}
		cfg.Thresholds = vals
	}

	if raw, ok := lookupSetting(settings, "feeder"); ok {
		if err := applyFeederSettings(&cfg.Feeder, raw); err != nil {
			return err
		}
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := applyTracingSettings(&cfg.Tracing, raw); err != nil {
			return err
		}
	}

	return nil
}

func applyFeederSettings(feeder *FeederConfig, raw interface{}) error {
	section, err := asSettingsMap(raw)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(section, "path"); ok {
		if feeder.Path, err = asString(raw); err != nil {
			return err
		}
	}
	if raw, ok := lookupSetting(section, "type"); ok {
		if feeder.Type, err = asString(raw); err != nil {
			return err
		}
	}
	if raw, ok := lookupSetting(section, "keyfield", "key_field", "key-field"); ok {
		if feeder.KeyField, err = asString(raw); err != nil {
			return err
		}
	}
	if raw, ok := lookupSetting(section, "rewind"); ok {
		if feeder.Rewind, err = asBool(raw); err != nil {
			return err
		}
	}
	return nil
}

func applyTracingSettings(tracing *TracingConfig, raw interface{}) error {
	section, err := asSettingsMap(raw)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(section, "endpoint"); ok {
		if tracing.Endpoint, err = asString(raw); err != nil {
			return err
		}
	}
	if raw, ok := lookupSetting(section, "protocol"); ok {
		if tracing.Protocol, err = asString(raw); err != nil {
			return err
		}
	}
	if raw, ok := lookupSetting(section, "servicename", "service_name", "service-name"); ok {
		if tracing.ServiceName, err = asString(raw); err != nil {
			return err
		}
	}
	if raw, ok := lookupSetting(section, "insecure"); ok {
		if tracing.Insecure, err = asBool(raw); err != nil {
			return err
		}
	}
	if raw, ok := lookupSetting(section, "samplerate", "sample_rate", "sample-rate"); ok {
		if tracing.SampleRate, err = asFloat(raw); err != nil {
			return err
		}
	}
	return nil
}

// applyFlagOverrides applies explicitly-set flags over file settings.
func applyFlagOverrides(cfg *Config, flags *pflag.FlagSet) error {
	var err error
	flags.Visit(func(flag *pflag.Flag) {
		if err != nil {
			return
		}
		switch flag.Name {
		case "backend":
			cfg.Backend, err = flags.GetString("backend")
		case "dsn":
			cfg.DSN, err = flags.GetString("dsn")
		case "addr":
			cfg.Addr, err = flags.GetString("addr")
		case "password":
			cfg.Password, err = flags.GetString("password")
		case "redis-db":
			cfg.RedisDB, err = flags.GetInt("redis-db")
		case "path":
			cfg.Path, err = flags.GetString("path")
		case "table":
			cfg.Table, err = flags.GetString("table")
		case "max-conns":
			cfg.MaxConns, err = flags.GetInt("max-conns")
		case "mode":
			var mode string
			mode, err = flags.GetString("mode")
			cfg.Mode = Mode(mode)
		case "total":
			cfg.Total, err = flags.GetInt("total")
		case "concurrency":
			cfg.Concurrency, err = flags.GetInt("concurrency")
		case "batch-size":
			cfg.BatchSize, err = flags.GetInt("batch-size")
		case "read-limit":
			cfg.ReadLimit, err = flags.GetInt("read-limit")
		case "payload-size":
			cfg.PayloadSize, err = flags.GetInt("payload-size")
		case "seed-ops":
			cfg.SeedOps, err = flags.GetInt("seed-ops")
		case "key-prefix":
			cfg.KeyPrefix, err = flags.GetString("key-prefix")
		case "rate":
			cfg.Rate, err = flags.GetInt("rate")
		case "timeout":
			cfg.Timeout, err = flags.GetDuration("timeout")
		case "json":
			cfg.JSONOutput, err = flags.GetBool("json")
		case "dashboard":
			cfg.Dashboard, err = flags.GetBool("dashboard")
		case "log-errors":
			cfg.LogErrors, err = flags.GetBool("log-errors")
		case "threshold":
			cfg.Thresholds, err = flags.GetStringSlice("threshold")
		case "feeder":
			cfg.Feeder.Path, err = flags.GetString("feeder")
		case "feeder-type":
			cfg.Feeder.Type, err = flags.GetString("feeder-type")
		case "feeder-key-field":
			cfg.Feeder.KeyField, err = flags.GetString("feeder-key-field")
		case "feeder-rewind":
			cfg.Feeder.Rewind, err = flags.GetBool("feeder-rewind")
		}
	})
	return err
}

func feederTypeFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	default:
		return ""
	}
}
