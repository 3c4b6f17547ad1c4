package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the schema when it does not exist yet.
	Migrate(ctx context.Context) error

	// FormatterConfig model related methods.
	// Creating or activating a configuration deactivates the user's others.
	CreateFormatterConfig(ctx context.Context, create *FormatterConfig) (*FormatterConfig, error)
	ListFormatterConfigs(ctx context.Context, find *FindFormatterConfig) ([]*FormatterConfig, error)
	UpdateFormatterConfig(ctx context.Context, update *UpdateFormatterConfig) (*FormatterConfig, error)
	DeleteFormatterConfig(ctx context.Context, id int32) error
}
