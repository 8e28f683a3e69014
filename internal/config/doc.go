// Package config resolves the run configuration of parminmax.
//
// # Layers
//
// Configuration is assembled in layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← Highest priority (only flags that were set)
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← PARMINMAX_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← --config run.toml / run.yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Every layer decodes into an Overrides value whose nil fields mean "not
// set here"; Resolve applies them in order and validates the result.
//
// # Example File
//
//	seed = 42
//	array_size = 1000000
//	pnum = 8
//	by_files = false
//	timeout = 1
//	log_level = "info"
package config
