package config

import "fmt"

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`

	// Timeouts in seconds.
	ReadTimeout     int `yaml:"read_timeout,omitempty"`
	WriteTimeout    int `yaml:"write_timeout,omitempty"`
	ShutdownTimeout int `yaml:"shutdown_timeout,omitempty"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30
	}
	if c.WriteTimeout == 0 {
		// Invocations block on debounce sleep plus up to five completion
		// calls, so the write timeout is generous.
		c.WriteTimeout = 300
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 15
	}
}

func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

// Address returns host:port for the listener.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level,omitempty"`

	// Format is text or json.
	Format string `yaml:"format,omitempty"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
}

// DeliveryConfig configures the outbound message channel.
type DeliveryConfig struct {
	// Type is webhook (HTTP POST per reply) or log (development sink).
	Type string `yaml:"type,omitempty"`

	// URL of the delivery webhook.
	URL string `yaml:"url,omitempty"`

	// AuthToken is sent as a bearer token when set.
	AuthToken string `yaml:"auth_token,omitempty"`

	// Timeout per delivery attempt, in seconds.
	Timeout int `yaml:"timeout,omitempty"`

	MaxRetries int `yaml:"max_retries,omitempty"`
}

func (c *DeliveryConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "log"
	}
	if c.Timeout == 0 {
		c.Timeout = 15
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

func (c *DeliveryConfig) Validate() error {
	switch c.Type {
	case "webhook":
		if c.URL == "" {
			return fmt.Errorf("url is required for webhook delivery")
		}
	case "log":
	default:
		return fmt.Errorf("unsupported delivery type %q (supported: webhook, log)", c.Type)
	}
	return nil
}
