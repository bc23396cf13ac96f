package config

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"listen_addr":     ":8000",
		"rules_file":      "",
		"watch_rules":     false,
		"log_level":       "info",
		"log_format":      "text",
		"state_dir":       "~/.yamlcheck/state",
		"max_history":     500,
		"max_body_bytes":  4 << 20,
		"metrics_enabled": true,
	}
}

// GetDefaultConfigTemplate returns a commented starting point for a local config file. JSON has no
// comments, so keys are documented in a "_comment" field koanf ignores.
func GetDefaultConfigTemplate() string {
	return `{
  "_comment": "yamlcheck configuration. Environment variables YAMLCHECK_<KEY> override these values.",
  "listen_addr": ":8000",
  "rules_file": "",
  "watch_rules": false,
  "log_level": "info",
  "log_format": "text",
  "state_dir": "~/.yamlcheck/state",
  "max_history": 500,
  "max_body_bytes": 4194304,
  "metrics_enabled": true
}
`
}
