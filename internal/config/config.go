package config

import (
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Arena controls the declared size accounting of internal/arena.Arena.
type Arena struct {
	InitialSize uint64 `mapstructure:"initial-size" default:"4096"`
}

// Scheduler controls spec.md §4.10's cycle periods and the task timeout,
// with the defaults spec.md §4 recommends. RequestTimeout is applied as
// one context deadline over a whole scheduler task (an inventory cycle
// plus its event tail, or a performance cycle), not to each SOAP request
// separately.
type Scheduler struct {
	InventoryPeriod time.Duration `mapstructure:"inventory-period" default:"60s"`
	PerfPeriod      time.Duration `mapstructure:"perf-period" default:"60s"`
	ServiceTTL      time.Duration `mapstructure:"service-ttl" default:"1h"`
	CompactPeriod   time.Duration `mapstructure:"compact-period" default:"24h"`
	RequestTimeout  time.Duration `mapstructure:"request-timeout" default:"10s"`

	// BackoffInitial/BackoffMax bound the per-service retry delay applied
	// after a failed inventory cycle (event-log backoff initial/cap,
	// spec.md §4 "event-log backoff initial 10, cap 1000" generalised to
	// every failing cycle, not only event tailing).
	BackoffInitial time.Duration `mapstructure:"backoff-initial" default:"10s"`
	BackoffMax     time.Duration `mapstructure:"backoff-max" default:"1000s"`
}

// StatusAPI controls the optional gin HTTP introspection surface.
type StatusAPI struct {
	Enabled bool   `mapstructure:"enabled" default:"true"`
	Addr    string `mapstructure:"addr" default:":8081"`
}

// Configuration is the whole-process configuration tree.
type Configuration struct {
	Arena     Arena     `mapstructure:"arena"`
	Scheduler Scheduler `mapstructure:"scheduler"`
	StatusAPI StatusAPI `mapstructure:"status-api"`
	LogLevel  string    `mapstructure:"log-level" default:"info"`
	Insecure  bool      `mapstructure:"insecure" default:"true"`
}

// BindFlags registers every configuration field as a pflag, so
// cmd/vcenter-collectord can expose them on the CLI in addition to
// VCC_-prefixed environment variables and an optional config file.
func BindFlags(flags *pflag.FlagSet) {
	flags.Uint64("arena.initial-size", 4096, "initial declared arena size in bytes")
	flags.Duration("scheduler.inventory-period", 60*time.Second, "minimum interval between inventory cycles per service")
	flags.Duration("scheduler.perf-period", 60*time.Second, "minimum interval between performance cycles per service")
	flags.Duration("scheduler.service-ttl", time.Hour, "idle time before an unused service is removed")
	flags.Duration("scheduler.compact-period", 24*time.Hour, "minimum interval between arena compactions")
	flags.Duration("scheduler.request-timeout", 10*time.Second, "deadline for one whole scheduler task, covering all of its SOAP requests")
	flags.Duration("scheduler.backoff-initial", 10*time.Second, "initial retry delay after a failed cycle")
	flags.Duration("scheduler.backoff-max", 1000*time.Second, "maximum retry delay after a failed cycle")
	flags.Bool("status-api.enabled", true, "serve the read-only HTTP introspection API")
	flags.String("status-api.addr", ":8081", "status API listen address")
	flags.String("log-level", "info", "zap log level")
	flags.Bool("insecure", true, "skip TLS certificate verification against vCenter/ESXi")
}

// Load builds a Configuration from defaults, an optional config file, and
// VCC_-prefixed environment variables, with flags (already bound to v via
// BindPFlags by the caller) taking precedence over both.
func Load(v *viper.Viper) (*Configuration, error) {
	cfg := &Configuration{}
	if err := defaults.Set(cfg); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewViper returns a viper instance preconfigured for this process: env
// prefix VCC_, with "." and "-" both mapped to "_" so
// "scheduler.perf-period" reads from VCC_SCHEDULER_PERF_PERIOD.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("vcc")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper already knows about, so register every
	// flag name as an env-backed key too.
	keys := pflag.NewFlagSet("keys", pflag.ContinueOnError)
	BindFlags(keys)
	keys.VisitAll(func(f *pflag.Flag) { _ = v.BindEnv(f.Name) })
	return v
}
