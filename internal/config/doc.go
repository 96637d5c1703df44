// Package config provides configuration loading and validation for
// the ACL authorizer.
//
// Configuration is a single YAML file with environment variable
// substitution (${VAR} and ${VAR:-default}):
//
//	cfg, err := config.LoadConfig("configs/authorizer.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := config.ValidateConfig(cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// Durations are human-readable strings ("10s", "1m30s") parsed into
// the Duration wrapper type.
package config
