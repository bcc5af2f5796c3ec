package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig_Defaults(t *testing.T) {
	// Setup
	params := ConnectionParams{
		Host:     "db.example.com",
		Port:     5433,
		User:     "tuberag",
		Password: "secret",
		DBName:   "tuberag",
		SSLMode:  "disable",
	}

	// Execute
	cfg, err := poolConfig(params)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "db.example.com", cfg.ConnConfig.Host)
	assert.Equal(t, uint16(5433), cfg.ConnConfig.Port)
	assert.Equal(t, "tuberag", cfg.ConnConfig.User)
	assert.Equal(t, "secret", cfg.ConnConfig.Password)
	assert.Equal(t, "tuberag", cfg.ConnConfig.Database)
	assert.Equal(t, int32(DefaultMaxConns), cfg.MaxConns)
}

func TestPoolConfig_MaxConnsOverride(t *testing.T) {
	// Setup
	params := ConnectionParams{
		Host:     "localhost",
		Port:     5432,
		User:     "tuberag",
		Password: "",
		DBName:   "tuberag",
		SSLMode:  "disable",
		MaxConns: 2,
	}

	// Execute
	cfg, err := poolConfig(params)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int32(2), cfg.MaxConns)
}
