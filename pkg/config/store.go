package config

import "fmt"

// StoreConfig configures the SQL store holding agents, CRM records and
// conversation transcripts.
type StoreConfig struct {
	// Driver is sqlite or postgres.
	Driver string `yaml:"driver,omitempty"`

	// Path is the database file for sqlite. ":memory:" is accepted.
	Path string `yaml:"path,omitempty"`

	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	SSLMode  string `yaml:"ssl_mode,omitempty"`

	MaxConns int `yaml:"max_conns,omitempty"`
	MaxIdle  int `yaml:"max_idle,omitempty"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if c.Driver == "sqlite" && c.Path == "" {
		c.Path = "agentd.db"
	}
	if c.Driver == "postgres" {
		if c.Host == "" {
			c.Host = "localhost"
		}
		if c.Port == 0 {
			c.Port = 5432
		}
		if c.SSLMode == "" {
			c.SSLMode = "disable"
		}
	}
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MaxIdle == 0 {
		c.MaxIdle = 2
	}
}

func (c *StoreConfig) Validate() error {
	switch c.Driver {
	case "sqlite":
		if c.Path == "" {
			return fmt.Errorf("path is required for sqlite")
		}
	case "postgres":
		if c.Database == "" {
			return fmt.Errorf("database is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported driver %q (supported: sqlite, postgres)", c.Driver)
	}
	return nil
}

// DriverName maps the configured driver to its database/sql registration name.
func (c *StoreConfig) DriverName() string {
	if c.Driver == "sqlite" {
		return "sqlite3"
	}
	return c.Driver
}

// ConnectionString builds the DSN for the configured driver.
func (c *StoreConfig) ConnectionString() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.SSLMode)
}
