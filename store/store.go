package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/sbotchat/ai/cache"
	"github.com/hrygo/sbotchat/internal/profile"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

const (
	activeConfigCacheSize = 1000
	activeConfigCacheTTL  = 10 * time.Minute
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// active formatter configuration per user
	activeConfigCache *cache.LRUCache[int32, *FormatterConfig]
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:            driver,
		profile:           profile,
		activeConfigCache: cache.NewLRUCache[int32, *FormatterConfig](activeConfigCacheSize, activeConfigCacheTTL),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	s.activeConfigCache.Purge()
	return s.driver.Close()
}

// Migrate prepares the schema.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.driver.Migrate(ctx); err != nil {
		return errors.Wrap(err, "failed to migrate")
	}
	return nil
}

func (s *Store) CreateFormatterConfig(ctx context.Context, create *FormatterConfig) (*FormatterConfig, error) {
	if err := create.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	if create.CreatedTs == 0 {
		create.CreatedTs = now
	}
	if create.UpdatedTs == 0 {
		create.UpdatedTs = now
	}
	config, err := s.driver.CreateFormatterConfig(ctx, create)
	if err != nil {
		return nil, err
	}
	s.activeConfigCache.Remove(config.UserID)
	return config, nil
}

func (s *Store) ListFormatterConfigs(ctx context.Context, find *FindFormatterConfig) ([]*FormatterConfig, error) {
	return s.driver.ListFormatterConfigs(ctx, find)
}

func (s *Store) GetFormatterConfig(ctx context.Context, find *FindFormatterConfig) (*FormatterConfig, error) {
	list, err := s.driver.ListFormatterConfigs(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

func (s *Store) DeleteFormatterConfig(ctx context.Context, config *FormatterConfig) error {
	if err := s.driver.DeleteFormatterConfig(ctx, config.ID); err != nil {
		return err
	}
	s.activeConfigCache.Remove(config.UserID)
	return nil
}

// GetActiveFormatterConfig returns the user's active configuration, creating
// the default one on first use.
func (s *Store) GetActiveFormatterConfig(ctx context.Context, userID int32) (*FormatterConfig, error) {
	if config, ok := s.activeConfigCache.Get(userID); ok {
		return config, nil
	}

	active := true
	config, err := s.GetFormatterConfig(ctx, &FindFormatterConfig{UserID: &userID, IsActive: &active})
	if errors.Is(err, ErrNotFound) {
		slog.Info("creating default formatter config", "user_id", userID)
		config, err = s.CreateFormatterConfig(ctx, DefaultFormatterConfig(userID))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get active formatter config for user %d", userID)
	}

	s.activeConfigCache.Set(userID, config)
	return config, nil
}

// UpdateActiveFormatterConfig patches the user's active configuration after
// validating the merged result.
func (s *Store) UpdateActiveFormatterConfig(ctx context.Context, userID int32, update *UpdateFormatterConfig) (*FormatterConfig, error) {
	current, err := s.GetActiveFormatterConfig(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := *current
	update.Apply(&merged)
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	update.ID = current.ID
	now := time.Now().Unix()
	update.UpdatedTs = &now
	config, err := s.driver.UpdateFormatterConfig(ctx, update)
	if err != nil {
		return nil, err
	}
	s.activeConfigCache.Remove(userID)
	return config, nil
}
