package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hrygo/sbotchat/store"
)

const formatterConfigColumns = `id, user_id, name, api_key, model_type, temperature, max_tokens, top_p,
	frequency_penalty, presence_penalty, system_prompt, is_active, created_ts, updated_ts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFormatterConfig(row rowScanner) (*store.FormatterConfig, error) {
	c := &store.FormatterConfig{}
	if err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.APIKey, &c.ModelType, &c.Temperature, &c.MaxTokens, &c.TopP,
		&c.FrequencyPenalty, &c.PresencePenalty, &c.SystemPrompt, &c.IsActive, &c.CreatedTs, &c.UpdatedTs,
	); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *DB) CreateFormatterConfig(ctx context.Context, create *store.FormatterConfig) (*store.FormatterConfig, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if create.IsActive {
		if err := deactivateOthers(ctx, tx, create.UserID, 0); err != nil {
			return nil, err
		}
	}

	fields := []string{"user_id", "name", "api_key", "model_type", "temperature", "max_tokens", "top_p",
		"frequency_penalty", "presence_penalty", "system_prompt", "is_active", "created_ts", "updated_ts"}
	args := []any{create.UserID, create.Name, create.APIKey, create.ModelType, create.Temperature, create.MaxTokens, create.TopP,
		create.FrequencyPenalty, create.PresencePenalty, create.SystemPrompt, create.IsActive, create.CreatedTs, create.UpdatedTs}
	stmt := `INSERT INTO formatter_config (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING ` + formatterConfigColumns
	config, err := scanFormatterConfig(tx.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to create formatter_config: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit formatter_config: %w", err)
	}
	return config, nil
}

func (d *DB) ListFormatterConfigs(ctx context.Context, find *store.FindFormatterConfig) ([]*store.FormatterConfig, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.IsActive != nil {
		where, args = append(where, "is_active = "+placeholder(len(args)+1)), append(args, *find.IsActive)
	}

	query := `SELECT ` + formatterConfigColumns + ` FROM formatter_config WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY updated_ts DESC, id DESC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list formatter_config: %w", err)
	}
	defer rows.Close()

	list := make([]*store.FormatterConfig, 0)
	for rows.Next() {
		c, err := scanFormatterConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan formatter_config: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate formatter_config: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateFormatterConfig(ctx context.Context, update *store.UpdateFormatterConfig) (*store.FormatterConfig, error) {
	set, args := []string{}, []any{}
	if update.Name != nil {
		set, args = append(set, "name = "+placeholder(len(args)+1)), append(args, *update.Name)
	}
	if update.APIKey != nil {
		set, args = append(set, "api_key = "+placeholder(len(args)+1)), append(args, strings.TrimSpace(*update.APIKey))
	}
	if update.ModelType != nil {
		set, args = append(set, "model_type = "+placeholder(len(args)+1)), append(args, *update.ModelType)
	}
	if update.SystemPrompt != nil {
		set, args = append(set, "system_prompt = "+placeholder(len(args)+1)), append(args, *update.SystemPrompt)
	}
	if update.Temperature != nil {
		set, args = append(set, "temperature = "+placeholder(len(args)+1)), append(args, *update.Temperature)
	}
	if update.TopP != nil {
		set, args = append(set, "top_p = "+placeholder(len(args)+1)), append(args, *update.TopP)
	}
	if update.FrequencyPenalty != nil {
		set, args = append(set, "frequency_penalty = "+placeholder(len(args)+1)), append(args, *update.FrequencyPenalty)
	}
	if update.PresencePenalty != nil {
		set, args = append(set, "presence_penalty = "+placeholder(len(args)+1)), append(args, *update.PresencePenalty)
	}
	if update.MaxTokens != nil {
		set, args = append(set, "max_tokens = "+placeholder(len(args)+1)), append(args, *update.MaxTokens)
	}
	if update.IsActive != nil {
		set, args = append(set, "is_active = "+placeholder(len(args)+1)), append(args, *update.IsActive)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if update.IsActive != nil && *update.IsActive {
		var userID int32
		if err := tx.QueryRowContext(ctx, `SELECT user_id FROM formatter_config WHERE id = $1`, update.ID).Scan(&userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, store.ErrNotFound
			}
			return nil, fmt.Errorf("failed to load formatter_config owner: %w", err)
		}
		if err := deactivateOthers(ctx, tx, userID, update.ID); err != nil {
			return nil, err
		}
	}

	args = append(args, update.ID)
	stmt := `UPDATE formatter_config SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) +
		` RETURNING ` + formatterConfigColumns
	config, err := scanFormatterConfig(tx.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update formatter_config: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit formatter_config: %w", err)
	}
	return config, nil
}

func (d *DB) DeleteFormatterConfig(ctx context.Context, id int32) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM formatter_config WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete formatter_config: %w", err)
	}
	return nil
}

func deactivateOthers(ctx context.Context, tx *sql.Tx, userID, keepID int32) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE formatter_config SET is_active = FALSE WHERE user_id = $1 AND id != $2 AND is_active`,
		userID, keepID,
	); err != nil {
		return fmt.Errorf("failed to deactivate formatter_config: %w", err)
	}
	return nil
}
