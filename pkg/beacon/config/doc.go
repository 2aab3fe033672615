/*
Package config loads beacon client settings from files and the environment.

# Overview

config wraps a map[string]any of settings and provides typed accessor methods
that handle missing keys and type mismatches gracefully by returning default
values. Sources (YAML files, JSON files, BEACON_* environment variables) can
be merged, and the result converts directly into a beacon.Config.

# Recognized settings

	api_key          ingestion API key (empty -> disabled mode)
	host             "us", "eu", or a custom base URL
	batch_size       events per delivery batch
	flush_interval   idle flush period ("5s", or numeric seconds)
	shutdown_timeout drain budget for Close ("2s", or numeric seconds)

# Loading

Load reads an optional file and overlays the environment, so deployment
environments override checked-in settings:

	cfg, err := config.Load("beacon.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	client, err := beacon.NewClient(cfg.ClientConfig())

Sources can also be combined by hand:

	fileCfg, err := config.FromFile("beacon.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	cfg := fileCfg.Merge(config.FromEnv())

# Type coercion

Duration accepts duration strings ("30s", "1m30s"), bare numbers interpreted
as seconds, and time.Duration values. Int accepts ints, whole floats (JSON
numbers), and numeric strings (environment values). All accessors return the
given default when the key is missing or the value cannot be converted.

# Thread safety

Config is safe for concurrent read access. The underlying map is not modified
after creation.
*/
package config
