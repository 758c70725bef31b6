package delivery

import "errors"

var (
	// ErrModeMismatch операция недоступна в текущем режиме доставки
	ErrModeMismatch = errors.New("operation is not available in the current delivery mode")

	// ErrInsecureWebhookURL webhook URL не использует HTTPS
	ErrInsecureWebhookURL = errors.New("webhook URL must use https")

	errUnknownEvent = errors.New("unknown delivery event")
)
