// Package config handles configuration loading for tagmind-orchestrator.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from TAGMIND_CONFIG environment variable
//  2. ./config.yaml (current directory)
//  3. ~/.config/tagmind/orchestrator.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	database:
//	  path: "${TAGMIND_DB_PATH}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	upstream:
//	  connect_timeout: "2s"
//	  llm_read_timeout: "5s"
//	  retriever_read_timeout: "3s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8082"  # REST API
//
// Database:
//
//	database:
//	  path: "/var/lib/tagmind/orchestrator.db"
//
// Upstream services:
//
//	upstream:
//	  llm_url: "http://llm-gateway/v1/complete"        # LLM_URL env var wins
//	  retriever_url: "http://web-retriever/v1/search"  # RETRIEVER_URL env var wins
//	  connect_timeout: "2s"
//	  llm_read_timeout: "5s"
//	  retriever_read_timeout: "3s"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - server.http_addr present
//   - database.path present
//   - Duration format validity
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load("/etc/tagmind/orchestrator.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
