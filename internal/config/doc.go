// Package config provides configuration management for the chat gateway.
//
// Configuration is loaded from environment variables and validated on startup.
// Provider credentials (agent, knowledge base, speech) are optional: a missing
// credential disables the feature instead of failing the process.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg)
package config
