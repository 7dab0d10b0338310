package cmd

import (
	"database/sql"
	"fmt"

	"github.com/spf13/viper"
)

const (
	RoleSource = "source"
	RoleTarget = "target"
)

type DBConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Role   string `mapstructure:"role"`   // source | target
	Schema string `mapstructure:"schema"` // empty = connection default
}

// GetDBConfig returns the database configured for the given role.
func GetDBConfig(role string) (*DBConfig, error) {
	var configs []DBConfig

	if err := viper.UnmarshalKey("databases", &configs); err != nil {
		return nil, fmt.Errorf("failed to parse databases config: %w", err)
	}

	var found *DBConfig
	count := 0

	for i := range configs {
		if configs[i].Role == role {
			found = &configs[i]
			count++
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("no %s database found in config (set role: %s)", role, role)
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple %s databases found (only one can have role %s)", role, role)
	}
	if found.Driver == "" || found.DSN == "" {
		return nil, fmt.Errorf("%s database %q needs both driver and dsn", role, found.Name)
	}

	return found, nil
}

// openDB opens and pings the database of a role.
func openDB(role string) (*sql.DB, *DBConfig, error) {
	config, err := GetDBConfig(role)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s db: %w", role, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to connect to %s db (%s): %w", role, config.Name, err)
	}
	return db, config, nil
}
