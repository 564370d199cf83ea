package postgres

import (
	"database/sql"
	"fmt"
	"strings"

	sonic "github.com/bytedance/sonic"
)

func isNotFound(err error) bool {
	return err == sql.ErrNoRows
}

func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// encodeJSON serializes a value for a jsonb column.
func encodeJSON(value any) (string, error) {
	raw, err := sonic.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode jsonb: %w", err)
	}
	return string(raw), nil
}

func decodeJSON(raw string, out any) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if err := sonic.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode jsonb: %w", err)
	}
	return nil
}
