package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/sbotchat/internal/profile"
)

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$3", placeholder(3))
	assert.Equal(t, "$1, $2, $3", placeholders(3))
	assert.Equal(t, "", placeholders(0))
}

func TestNewDB(t *testing.T) {
	_, err := NewDB(nil)
	assert.Error(t, err)

	// sql.Open defers connecting, so a well-formed DSN needs no server.
	driver, err := NewDB(&profile.Profile{Driver: "postgres", DSN: "postgres://u:p@localhost:5432/sbotchat?sslmode=disable"})
	assert.NoError(t, err)
	assert.NotNil(t, driver.GetDB())
	assert.NoError(t, driver.Close())
}
