// Package config defines the collector process's Configuration: arena
// sizing, scheduler periods, the status API listener, logging, and the
// TLS setting the fetchers dial every Service with.
//
// Unlike the option-generator pattern this package's predecessor used,
// Configuration here is loaded with github.com/spf13/viper (file + env,
// prefix VCC_) bound to github.com/spf13/cobra/pflag flags, and defaulted
// with github.com/creasty/defaults struct tags — there is nothing here
// code generation buys that twelve scalar fields need.
//
// # Configuration Structure
//
//	Configuration
//	├── Arena     - declared cache size accounting
//	├── Scheduler - cycle periods and timeouts
//	├── StatusAPI - HTTP introspection listener
//	├── LogLevel  - logging verbosity
//	└── Insecure  - skip TLS verification when dialling endpoints
package config
