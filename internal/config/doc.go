// Package config provides configuration parsing for upform.
//
// The configuration is stored in upform.yaml, looked up from the working
// directory upward. This package handles loading, saving, and validating it.
//
// # Configuration File Structure
//
//	base_url: https://api.example.com
//	headers:
//	  Authorization: Bearer token
//	timeout: 10s
//	clear_errors: before   # or on-success
//	log_level: info
//	metrics:
//	  enabled: true
//	  namespace: upform
//	tracing:
//	  enabled: false
//	  tracer_name: upform
//	serve:
//	  addr: localhost:8080
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    return err
//	}
//	c := client.New(cfg.ClientConfig())
//	f := form.New(shape, form.WithClient(c), form.WithClearPolicy(cfg.ClearPolicy()))
package config
