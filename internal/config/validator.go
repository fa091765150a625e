package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration. An empty log format falls back to text.
func Validate(cfg *Config) error {
	if cfg.Pipeline.Name == "" {
		return fmt.Errorf("pipeline.name is required")
	}

	if err := validateStages(cfg.Stages); err != nil {
		return fmt.Errorf("stage validation failed: %w", err)
	}

	if len(cfg.Streams.Accept) == 0 {
		return fmt.Errorf("streams.accept must list at least one media type")
	}
	for i, mt := range cfg.Streams.Accept {
		if strings.TrimSpace(mt) == "" {
			return fmt.Errorf("streams.accept[%d] is empty", i)
		}
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", cfg.Log.Level)
	}

	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}

	if cfg.MQTT.Enabled() {
		if err := validateMQTT(&cfg.MQTT); err != nil {
			return fmt.Errorf("mqtt validation failed: %w", err)
		}
	}

	return nil
}

// validateMQTT checks the event publishing settings and fills in defaults
// for the topic, client id and encoding.
func validateMQTT(m *MQTTConfig) error {
	if m.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", m.QoS)
	}
	if m.Topic == "" {
		m.Topic = "framefilter/events"
	}
	if strings.ContainsAny(m.Topic, "#+") {
		return fmt.Errorf("mqtt.topic must not contain wildcards, got %q", m.Topic)
	}
	if m.ClientID == "" {
		m.ClientID = "framefilter"
	}
	if m.Encoding == "" {
		m.Encoding = "json"
	}
	if m.Encoding != "json" && m.Encoding != "msgpack" {
		return fmt.Errorf("mqtt.encoding must be json or msgpack, got %q", m.Encoding)
	}
	return nil
}

// validateStages requires a factory and a name for every stage; element
// names must be unique within the pipeline.
func validateStages(s StagesConfig) error {
	stages := []struct {
		key   string
		stage StageConfig
	}{
		{"source", s.Source},
		{"demuxer", s.Demuxer},
		{"parser", s.Parser},
		{"filter", s.Filter},
		{"decoder", s.Decoder},
		{"converter", s.Converter},
		{"sink", s.Sink},
	}

	seen := make(map[string]string, len(stages))
	for _, st := range stages {
		if st.stage.Factory == "" {
			return fmt.Errorf("stages.%s.factory is required", st.key)
		}
		if st.stage.Name == "" {
			return fmt.Errorf("stages.%s.name is required", st.key)
		}
		if other, dup := seen[st.stage.Name]; dup {
			return fmt.Errorf("stages.%s.name %q already used by stages.%s", st.key, st.stage.Name, other)
		}
		seen[st.stage.Name] = st.key
	}
	return nil
}
