// Package config loads the frame filter's YAML configuration.
//
// Every field has a default, so an empty file (or no file at all) yields the
// stock H.264 key-frame chain. The file is chosen by FRAMEFILTER_CONFIG;
// FRAMEFILTER_DEBUG=1 forces debug logging regardless of the file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/pipeline"
)

// Environment variables read by FromEnv.
const (
	EnvConfigPath = "FRAMEFILTER_CONFIG"
	EnvDebug      = "FRAMEFILTER_DEBUG"
)

// Config is the complete frame filter configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Stages   StagesConfig   `yaml:"stages"`
	Streams  StreamsConfig  `yaml:"streams"`
	Log      LogConfig      `yaml:"log"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
}

// PipelineConfig names the pipeline.
type PipelineConfig struct {
	Name string `yaml:"name"`
}

// StageConfig selects the factory and element name of one stage.
type StageConfig struct {
	Factory string `yaml:"factory"`
	Name    string `yaml:"name"`
}

// StagesConfig holds one stage per role, in chain order.
type StagesConfig struct {
	Source    StageConfig `yaml:"source"`
	Demuxer   StageConfig `yaml:"demuxer"`
	Parser    StageConfig `yaml:"parser"`
	Filter    StageConfig `yaml:"filter"`
	Decoder   StageConfig `yaml:"decoder"`
	Converter StageConfig `yaml:"converter"`
	Sink      StageConfig `yaml:"sink"`
}

// StreamsConfig lists the demuxer outputs that are linked to the parser.
// An output is accepted when its media type starts with one of Accept.
type StreamsConfig struct {
	Accept []string `yaml:"accept"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// MQTTConfig controls publishing of run events. Events are only published
// when Broker is set.
type MQTTConfig struct {
	Broker   string `yaml:"broker"` // host:port
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
	Encoding string `yaml:"encoding"` // json, msgpack
}

// Enabled reports whether run events should be published.
func (m MQTTConfig) Enabled() bool { return m.Broker != "" }

// Default returns the stock configuration.
func Default() *Config {
	p := pipeline.DefaultConfig("")
	accept := make([]string, 0, len(p.Routes))
	for _, r := range p.Routes {
		accept = append(accept, r.MediaType)
	}
	return &Config{
		Pipeline: PipelineConfig{Name: p.Name},
		Stages: StagesConfig{
			Source:    StageConfig(p.Source),
			Demuxer:   StageConfig(p.Demuxer),
			Parser:    StageConfig(p.Parser),
			Filter:    StageConfig(p.Filter),
			Decoder:   StageConfig(p.Decoder),
			Converter: StageConfig(p.Converter),
			Sink:      StageConfig(p.Sink),
		},
		Streams: StreamsConfig{Accept: accept},
		Log:     LogConfig{Level: "info", Format: "text"},
		MQTT: MQTTConfig{
			ClientID: "framefilter",
			Topic:    "framefilter/events",
			Encoding: "json",
		},
	}
}

// Load reads a YAML configuration file. Keys missing from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FromEnv loads the file named by FRAMEFILTER_CONFIG, or the defaults when
// it is unset, and applies FRAMEFILTER_DEBUG.
func FromEnv() (*Config, error) {
	cfg := Default()
	if path := os.Getenv(EnvConfigPath); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if os.Getenv(EnvDebug) == "1" {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// PipelineConfig returns the assembler configuration for the file at
// location. Every accepted stream type is routed to the parser's sink pad.
func (c *Config) PipelineConfig(location string) pipeline.Config {
	routes := make([]pipeline.Route, 0, len(c.Streams.Accept))
	for _, mt := range c.Streams.Accept {
		routes = append(routes, pipeline.Route{MediaType: mt, Target: pipeline.RoleParser, Pad: "sink"})
	}
	return pipeline.Config{
		Name:      c.Pipeline.Name,
		Location:  location,
		Source:    pipeline.Stage(c.Stages.Source),
		Demuxer:   pipeline.Stage(c.Stages.Demuxer),
		Parser:    pipeline.Stage(c.Stages.Parser),
		Filter:    pipeline.Stage(c.Stages.Filter),
		Decoder:   pipeline.Stage(c.Stages.Decoder),
		Converter: pipeline.Stage(c.Stages.Converter),
		Sink:      pipeline.Stage(c.Stages.Sink),
		Routes:    routes,
	}
}

// SlogLevel returns the configured level. Validate guarantees it is known.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a logger writing to w in the configured format.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
