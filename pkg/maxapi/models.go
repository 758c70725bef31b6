package maxapi

import (
	"encoding/json"
	"time"
)

// Format формат разметки текста сообщения
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Типы обновлений MAX API
const (
	UpdateMessageCreated   = "message_created"
	UpdateMessageCallback  = "message_callback"
	UpdateMessageEdited    = "message_edited"
	UpdateMessageRemoved   = "message_removed"
	UpdateBotStarted       = "bot_started"
	UpdateBotAdded         = "bot_added"
	UpdateBotRemoved       = "bot_removed"
	UpdateUserAdded        = "user_added"
	UpdateUserRemoved      = "user_removed"
	UpdateChatTitleChanged = "chat_title_changed"
)

// BotInfo информация о боте, ответ GET /me
type BotInfo struct {
	UserID           int64  `json:"user_id"`
	Name             string `json:"name"`
	Username         string `json:"username"`
	IsBot            bool   `json:"is_bot"`
	LastActivityTime *int64 `json:"last_activity_time,omitempty"` // миллисекунды с начала эпохи
}

// LastActivity возвращает время последней активности, если сервер его прислал
func (b *BotInfo) LastActivity() (time.Time, bool) {
	if b.LastActivityTime == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*b.LastActivityTime), true
}

// User участник чата
type User struct {
	UserID   int64  `json:"user_id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	IsBot    bool   `json:"is_bot,omitempty"`
}

// Recipient получатель сообщения
type Recipient struct {
	ChatID   int64  `json:"chat_id,omitempty"`
	ChatType string `json:"chat_type,omitempty"`
	UserID   int64  `json:"user_id,omitempty"`
}

// Attachment вложение сообщения (inline_keyboard, image, file и т.д.)
type Attachment struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageBody содержимое сообщения
type MessageBody struct {
	Mid         string       `json:"mid,omitempty"`
	Seq         int64        `json:"seq,omitempty"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Message сообщение MAX
type Message struct {
	Sender    *User       `json:"sender,omitempty"`
	Recipient Recipient   `json:"recipient"`
	Timestamp int64       `json:"timestamp,omitempty"`
	Body      MessageBody `json:"body"`
	URL       string      `json:"url,omitempty"`
}

// Callback нажатие на inline-кнопку
type Callback struct {
	CallbackID string `json:"callback_id"`
	Payload    string `json:"payload,omitempty"`
	Timestamp  int64  `json:"timestamp,omitempty"`
	User       *User  `json:"user,omitempty"`
}

// SentMessage результат отправки сообщения
type SentMessage struct {
	MessageID string   `json:"message_id"`
	Timestamp int64    `json:"timestamp"`
	Message   *Message `json:"message,omitempty"`
}

// ActionResult ответ на операции без тела (удаление, редактирование)
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Update обновление из GET /updates или webhook.
// Raw хранит исходный JSON, включая поля, не описанные в структуре.
type Update struct {
	UpdateType string          `json:"update_type"`
	Timestamp  int64           `json:"timestamp,omitempty"`
	Marker     *int64          `json:"marker,omitempty"`
	Message    *Message        `json:"message,omitempty"`
	Callback   *Callback       `json:"callback,omitempty"`
	User       *User           `json:"user,omitempty"`
	ChatID     int64           `json:"chat_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Raw        json.RawMessage `json:"-"`
}

// UnmarshalJSON сохраняет исходный JSON в Raw
func (u *Update) UnmarshalJSON(data []byte) error {
	type plain Update

	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*u = Update(decoded)
	u.Raw = append(json.RawMessage(nil), data...)

	return nil
}

// JSON возвращает исходное представление обновления
func (u *Update) JSON() (json.RawMessage, error) {
	if len(u.Raw) > 0 {
		return u.Raw, nil
	}
	return json.Marshal(u)
}

// Text возвращает текст сообщения, если обновление его содержит
func (u *Update) Text() string {
	if u.Message == nil {
		return ""
	}
	return u.Message.Body.Text
}

// GetChatID возвращает chat_id из корня обновления или из получателя сообщения
func (u *Update) GetChatID() int64 {
	if u.ChatID != 0 {
		return u.ChatID
	}
	if u.Message != nil {
		return u.Message.Recipient.ChatID
	}
	return 0
}

// GetSenderID возвращает ID пользователя, инициировавшего обновление
func (u *Update) GetSenderID() int64 {
	switch {
	case u.Message != nil && u.Message.Sender != nil:
		return u.Message.Sender.UserID
	case u.Callback != nil && u.Callback.User != nil:
		return u.Callback.User.UserID
	case u.User != nil:
		return u.User.UserID
	}
	return 0
}

// UpdatesResult ответ GET /updates
type UpdatesResult struct {
	Updates []Update `json:"updates"`
	Marker  *int64   `json:"marker,omitempty"`
}

// Subscription webhook-подписка
type Subscription struct {
	ID          int64    `json:"id,omitempty"`
	URL         string   `json:"url"`
	Time        int64    `json:"time,omitempty"`
	UpdateTypes []string `json:"update_types,omitempty"`
	Version     string   `json:"version,omitempty"`
}
