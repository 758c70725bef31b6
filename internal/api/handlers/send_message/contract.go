package send_message

import (
	"context"

	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
)

// MessageSender отправка сообщений через MAX API
type MessageSender interface {
	SendMessage(ctx context.Context, target int64, text string, opts *maxapi.SendMessageOptions) (*maxapi.SentMessage, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
