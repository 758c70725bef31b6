package maxapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// SendMessageOptions необязательные параметры отправки.
// Нулевое значение соответствует настройкам сервера по умолчанию:
// превью ссылок показывается, участники уведомляются.
type SendMessageOptions struct {
	Attachments         []Attachment
	Format              Format
	DisableLinkPreview  bool
	DisableNotification bool
}

// EditMessageOptions необязательные параметры редактирования.
// Attachments == nil оставляет вложения без изменений, пустой срез удаляет их.
type EditMessageOptions struct {
	Attachments []Attachment
	Format      Format
}

type messageBody struct {
	Text        string        `json:"text"`
	Format      Format        `json:"format,omitempty"`
	Notify      *bool         `json:"notify,omitempty"`
	Attachments *[]Attachment `json:"attachments,omitempty"`
}

// SendMessage отправляет сообщение получателю target.
// target == 0 отклоняется до обращения к сети.
func (c *Client) SendMessage(ctx context.Context, target int64, text string, opts *SendMessageOptions) (*SentMessage, error) {
	if err := validateTarget(target); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &SendMessageOptions{}
	}
	if err := validateFormat(opts.Format); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("user_id", strconv.FormatInt(target, 10))
	if opts.DisableLinkPreview {
		query.Set("disable_link_preview", "true")
	}

	body := messageBody{
		Text:   text,
		Format: opts.Format,
	}
	// notify=true сервер подразумевает сам, поэтому передаем только false
	if opts.DisableNotification {
		notify := false
		body.Notify = &notify
	}
	if len(opts.Attachments) > 0 {
		body.Attachments = &opts.Attachments
	}

	var sent SentMessage
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/messages",
		endpoint: "/messages",
		query:    query,
		body:     body,
	}, &sent)
	if err != nil {
		return nil, err
	}

	if sent.MessageID == "" && sent.Message != nil {
		sent.MessageID = sent.Message.Body.Mid
		if sent.Timestamp == 0 {
			sent.Timestamp = sent.Message.Timestamp
		}
	}

	return &sent, nil
}

// SendMessageTo отправляет сообщение получателю, заданному строкой (например, из CLI или формы)
func (c *Client) SendMessageTo(ctx context.Context, target string, text string, opts *SendMessageOptions) (*SentMessage, error) {
	id, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	return c.SendMessage(ctx, id, text, opts)
}

// GetMessage возвращает сообщение по ID
func (c *Client) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	if err := validateMessageID(messageID); err != nil {
		return nil, err
	}

	var message Message
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/messages/" + url.PathEscape(messageID),
		endpoint: "/messages/{id}",
	}, &message)
	if err != nil {
		return nil, err
	}

	return &message, nil
}

// EditMessage заменяет текст и, при необходимости, вложения сообщения
func (c *Client) EditMessage(ctx context.Context, messageID string, text string, opts *EditMessageOptions) (*ActionResult, error) {
	if err := validateMessageID(messageID); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &EditMessageOptions{}
	}
	if err := validateFormat(opts.Format); err != nil {
		return nil, err
	}

	body := messageBody{
		Text:   text,
		Format: opts.Format,
	}
	if opts.Attachments != nil {
		body.Attachments = &opts.Attachments
	}

	var result ActionResult
	err := c.do(ctx, request{
		method:   http.MethodPut,
		path:     "/messages/" + url.PathEscape(messageID),
		endpoint: "/messages/{id}",
		body:     body,
	}, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// DeleteMessage удаляет сообщение
func (c *Client) DeleteMessage(ctx context.Context, messageID string) (*ActionResult, error) {
	if err := validateMessageID(messageID); err != nil {
		return nil, err
	}

	var result ActionResult
	err := c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "/messages/" + url.PathEscape(messageID),
		endpoint: "/messages/{id}",
	}, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}
