package maxapi

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTarget разбирает ID получателя из строки.
// Нечисловое значение и ноль возвращают ошибку валидации.
func ParseTarget(raw string) (int64, error) {
	target, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, NewValidationError(fmt.Sprintf("invalid target %q: must be an integer", raw), err)
	}

	if err := validateTarget(target); err != nil {
		return 0, err
	}

	return target, nil
}

func validateTarget(target int64) error {
	if target == 0 {
		return NewValidationError("invalid target: must be a non-zero integer", nil)
	}
	return nil
}

func validateFormat(format Format) error {
	switch format {
	case "", FormatMarkdown, FormatHTML:
		return nil
	}
	return NewValidationError(fmt.Sprintf("unsupported format %q: use %q or %q", format, FormatMarkdown, FormatHTML), nil)
}

func validateMessageID(messageID string) error {
	if strings.TrimSpace(messageID) == "" {
		return NewValidationError("message id is empty", nil)
	}
	return nil
}
