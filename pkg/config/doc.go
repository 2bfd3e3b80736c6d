// Package config loads service configuration from an optional YAML file and
// HUB_* environment variables, with env taking precedence.
//
// # Usage
//
//	cfg, err := config.LoadConfig(os.Getenv("HUB_CONFIG"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
// HUB_API_VERSION and HUB_SECRET are required (or their YAML equivalents);
// everything else has working defaults. See LoadConfig for the full variable
// list.
//
// # Related Packages
//
//   - pkg/webhooks: the embedded webhook Config
//   - pkg/observability: log level parsing target
package config
