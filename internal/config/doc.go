// Package config loads, normalizes, and validates speakerline configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HF_TOKEN. The Config type centralizes every knob the pipeline and CLI need:
// work/output directories, model settings, alignment heuristics, and identity
// voting parameters.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical anchor names, and clear validation errors.
package config
