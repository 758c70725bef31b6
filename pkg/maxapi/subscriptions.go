package maxapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// DefaultSubscriptionVersion версия API в запросе на подписку
const DefaultSubscriptionVersion = "1.0"

type subscriptionRequest struct {
	URL         string   `json:"url"`
	Version     string   `json:"version"`
	UpdateTypes []string `json:"update_types,omitempty"`
}

// CreateSubscription создает webhook-подписку.
// Схему URL проверяет вызывающий код (delivery.Manager).
func (c *Client) CreateSubscription(ctx context.Context, webhookURL string, updateTypes []string, version string) (*Subscription, error) {
	if version == "" {
		version = DefaultSubscriptionVersion
	}

	body := subscriptionRequest{
		URL:         webhookURL,
		Version:     version,
		UpdateTypes: updateTypes,
	}

	var subscription Subscription
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/subscriptions",
		endpoint: "/subscriptions",
		body:     body,
	}, &subscription)
	if err != nil {
		return nil, err
	}

	// Сервер может ответить только {"success": true}
	if subscription.URL == "" {
		subscription.URL = webhookURL
	}
	if subscription.Version == "" {
		subscription.Version = version
	}
	if subscription.UpdateTypes == nil {
		subscription.UpdateTypes = updateTypes
	}

	return &subscription, nil
}

// GetSubscriptions возвращает список активных подписок
func (c *Client) GetSubscriptions(ctx context.Context) ([]Subscription, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/subscriptions",
		endpoint: "/subscriptions",
	}, &raw)
	if err != nil {
		return nil, err
	}

	subscriptions, err := decodeSubscriptions(raw)
	if err != nil {
		return nil, &Error{
			Kind:    KindGeneric,
			Reason:  ReasonDecode,
			Message: fmt.Sprintf("decode subscriptions: %v", err),
			Err:     err,
		}
	}

	return subscriptions, nil
}

// DeleteSubscription удаляет подписку по URL
func (c *Client) DeleteSubscription(ctx context.Context, webhookURL string) (*ActionResult, error) {
	query := url.Values{}
	query.Set("url", webhookURL)

	var result ActionResult
	err := c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "/subscriptions",
		endpoint: "/subscriptions",
		query:    query,
	}, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// decodeSubscriptions принимает как {"subscriptions": [...]}, так и голый массив
func decodeSubscriptions(raw json.RawMessage) ([]Subscription, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []Subscription{}, nil
	}

	if trimmed[0] == '[' {
		var list []Subscription
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var envelope struct {
		Subscriptions []Subscription `json:"subscriptions"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	if envelope.Subscriptions == nil {
		return []Subscription{}, nil
	}

	return envelope.Subscriptions, nil
}
