package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"timezone":  "",
		"log_level": "info",
		"store": map[string]interface{}{
			"path": "~/.chimed/items.db",
		},
		"http": map[string]interface{}{
			"addr": ":8595",
		},
		"satellite": map[string]interface{}{
			"base_url":         "http://localhost:10700",
			"poll_interval_ms": 500,
		},
		"ring": map[string]interface{}{
			// 0 means ring until stopped.
			"max_attempts":   0,
			"snooze_minutes": 9,
		},
		"sounds": map[string]interface{}{
			"dir": "~/.chimed/sounds",
		},
		"telegram": map[string]interface{}{
			"bot_token": "",
			"chat_id":   0,
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}

func GetDefaultConfigPath() string {
	return "~/.chimed/config.yaml"
}
