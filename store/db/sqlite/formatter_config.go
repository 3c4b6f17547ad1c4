package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

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
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if create.IsActive {
		if err := deactivateOthers(ctx, tx, create.UserID, 0); err != nil {
			return nil, err
		}
	}

	stmt := `
		INSERT INTO formatter_config (user_id, name, api_key, model_type, temperature, max_tokens, top_p,
			frequency_penalty, presence_penalty, system_prompt, is_active, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + formatterConfigColumns
	config, err := scanFormatterConfig(tx.QueryRowContext(ctx, stmt,
		create.UserID, create.Name, create.APIKey, create.ModelType, create.Temperature, create.MaxTokens, create.TopP,
		create.FrequencyPenalty, create.PresencePenalty, create.SystemPrompt, create.IsActive, create.CreatedTs, create.UpdatedTs,
	))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create formatter config")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit formatter config")
	}
	return config, nil
}

func (d *DB) ListFormatterConfigs(ctx context.Context, find *store.FindFormatterConfig) ([]*store.FormatterConfig, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.IsActive != nil {
		where, args = append(where, "is_active = ?"), append(args, *find.IsActive)
	}

	query := `SELECT ` + formatterConfigColumns + ` FROM formatter_config WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY updated_ts DESC, id DESC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list formatter configs")
	}
	defer rows.Close()

	list := make([]*store.FormatterConfig, 0)
	for rows.Next() {
		c, err := scanFormatterConfig(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan formatter config")
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate formatter configs")
	}
	return list, nil
}

func (d *DB) UpdateFormatterConfig(ctx context.Context, update *store.UpdateFormatterConfig) (*store.FormatterConfig, error) {
	set, args := []string{}, []any{}
	if update.Name != nil {
		set, args = append(set, "name = ?"), append(args, *update.Name)
	}
	if update.APIKey != nil {
		set, args = append(set, "api_key = ?"), append(args, strings.TrimSpace(*update.APIKey))
	}
	if update.ModelType != nil {
		set, args = append(set, "model_type = ?"), append(args, *update.ModelType)
	}
	if update.SystemPrompt != nil {
		set, args = append(set, "system_prompt = ?"), append(args, *update.SystemPrompt)
	}
	if update.Temperature != nil {
		set, args = append(set, "temperature = ?"), append(args, *update.Temperature)
	}
	if update.TopP != nil {
		set, args = append(set, "top_p = ?"), append(args, *update.TopP)
	}
	if update.FrequencyPenalty != nil {
		set, args = append(set, "frequency_penalty = ?"), append(args, *update.FrequencyPenalty)
	}
	if update.PresencePenalty != nil {
		set, args = append(set, "presence_penalty = ?"), append(args, *update.PresencePenalty)
	}
	if update.MaxTokens != nil {
		set, args = append(set, "max_tokens = ?"), append(args, *update.MaxTokens)
	}
	if update.IsActive != nil {
		set, args = append(set, "is_active = ?"), append(args, *update.IsActive)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = ?"), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if update.IsActive != nil && *update.IsActive {
		var userID int32
		if err := tx.QueryRowContext(ctx, `SELECT user_id FROM formatter_config WHERE id = ?`, update.ID).Scan(&userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, store.ErrNotFound
			}
			return nil, errors.Wrap(err, "failed to load formatter config owner")
		}
		if err := deactivateOthers(ctx, tx, userID, update.ID); err != nil {
			return nil, err
		}
	}

	args = append(args, update.ID)
	stmt := `UPDATE formatter_config SET ` + strings.Join(set, ", ") + ` WHERE id = ? RETURNING ` + formatterConfigColumns
	config, err := scanFormatterConfig(tx.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to update formatter config")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit formatter config")
	}
	return config, nil
}

func (d *DB) DeleteFormatterConfig(ctx context.Context, id int32) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM formatter_config WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "failed to delete formatter config")
	}
	return nil
}

func deactivateOthers(ctx context.Context, tx *sql.Tx, userID, keepID int32) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE formatter_config SET is_active = 0 WHERE user_id = ? AND id != ? AND is_active = 1`,
		userID, keepID,
	); err != nil {
		return errors.Wrap(err, "failed to deactivate formatter configs")
	}
	return nil
}
