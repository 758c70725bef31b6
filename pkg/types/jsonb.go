package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// JSONB кастомный тип для JSONB полей PostgreSQL.
// Хранит исходный JSON без перекодирования.
// Реализует интерфейсы:
// - sql.Scanner (для чтения из БД)
// - driver.Valuer (для записи в БД)
// - json.Marshaler (для JSON сериализации)
// - json.Unmarshaler (для JSON десериализации)
type JSONB json.RawMessage

// ErrInvalidJSON возвращается, если значение не является корректным JSON
var ErrInvalidJSON = errors.New("invalid JSON value")

// Scan implements sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[:0], v...)
		return nil
	case string:
		*j = JSONB(v)
		return nil
	default:
		return fmt.Errorf("cannot scan type %T into JSONB", value)
	}
}

// Value implements driver.Valuer interface.
// Возвращает строку: []byte драйвер pq передал бы как bytea.
func (j JSONB) Value() (driver.Value, error) {
	if j.IsZero() {
		return nil, nil
	}
	if !json.Valid(j) {
		return nil, ErrInvalidJSON
	}
	return string(j), nil
}

// MarshalJSON implements json.Marshaler interface
func (j JSONB) MarshalJSON() ([]byte, error) {
	if j.IsZero() {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

// UnmarshalJSON implements json.Unmarshaler interface
func (j *JSONB) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return ErrInvalidJSON
	}
	*j = append((*j)[:0], data...)
	return nil
}

// IsZero возвращает true, если значение не установлено
func (j JSONB) IsZero() bool {
	return len(bytes.TrimSpace(j)) == 0
}

func (j JSONB) String() string {
	return string(j)
}
