// Package config provides citemark's configuration.
//
// Configuration is assembled from three layers, later layers overriding
// earlier ones:
//
//	┌─────────────────────────────┐
//	│  3. Environment (CITEMARK_) │  ← Highest priority
//	├─────────────────────────────┤
//	│  2. TOML config file        │
//	├─────────────────────────────┤
//	│  1. Built-in defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// The merged map is decoded into the typed Config struct and validated.
//
//	cfg, err := config.Load("citemark.toml")
//	if err != nil {
//	    return err
//	}
//	zone := cfg.Citations.Zone
package config
