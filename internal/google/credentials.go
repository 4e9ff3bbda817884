package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"robotrent/internal/config"
)

// loadCredentials возвращает JSON сервисного аккаунта из файла или из переменной.
// Во встроенном JSON экранированные "\n" восстанавливаются, если без этого он не парсится.
func loadCredentials(cfg config.GoogleConfig) ([]byte, error) {
	if inline := strings.TrimSpace(cfg.CredentialsJSON); inline != "" {
		if json.Valid([]byte(inline)) {
			return []byte(inline), nil
		}
		restored := strings.ReplaceAll(inline, `\n`, "\n")
		if !json.Valid([]byte(restored)) {
			return nil, errors.New("credentials_json is not valid JSON")
		}
		return []byte(restored), nil
	}

	if cfg.CredentialsFile == "" {
		return nil, errors.New("no google credentials configured")
	}
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}
	return data, nil
}

// ServiceAccountEmail достаёт client_email, чтобы подсказать, кому расшарить таблицу.
func ServiceAccountEmail(credentials []byte) (string, error) {
	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(credentials, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}
