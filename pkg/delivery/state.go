package delivery

import (
	"fmt"

	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
	"github.com/m04kA/SMC-MaxGateway/pkg/ptr"
)

// Mode режим доставки обновлений
type Mode string

const (
	ModeLongPolling Mode = "long_polling"
	ModeWebhook     Mode = "webhook"
)

// Valid проверяет, что режим известен
func (m Mode) Valid() bool {
	return m == ModeLongPolling || m == ModeWebhook
}

// ParseMode разбирает режим из строки конфигурации
func ParseMode(raw string) (Mode, error) {
	mode := Mode(raw)
	if !mode.Valid() {
		return "", fmt.Errorf("unknown delivery mode %q: use %q or %q", raw, ModeLongPolling, ModeWebhook)
	}
	return mode, nil
}

// state снимок состояния менеджера.
// subscription и cursor не изменяются после записи, новые значения всегда аллоцируются заново.
type state struct {
	mode         Mode
	subscription *maxapi.Subscription
	cursor       *int64
}

type eventKind int

const (
	// запросы: состояние не меняется, возвращаются эффекты для выполнения
	eventSwitchToWebhook eventKind = iota + 1
	eventSwitchToLongPolling
	eventDeleteWebhook
	eventPoll

	// фиксация результата выполненных эффектов
	eventWebhookCreated
	eventSubscriptionCleared
	eventPolled
)

type event struct {
	kind         eventKind
	url          string
	subscription *maxapi.Subscription
	marker       *int64 // явный маркер вызова GetUpdates
	result       *maxapi.UpdatesResult
}

type effectKind int

const (
	effectReleaseSubscription effectKind = iota + 1 // удаление без ошибки для вызывающего
	effectDeleteSubscription
	effectCreateSubscription
	effectPoll
)

type effect struct {
	kind   effectKind
	url    string
	marker *int64
}

// transition чистая функция переходов: (состояние, событие) -> (состояние, эффекты).
// Сетевые вызовы выполняет менеджер по списку эффектов вне блокировки.
func transition(current state, ev event) (state, []effect, error) {
	switch ev.kind {
	case eventSwitchToWebhook:
		var effects []effect
		if current.subscription != nil {
			effects = append(effects, effect{kind: effectReleaseSubscription, url: current.subscription.URL})
		}
		effects = append(effects, effect{kind: effectCreateSubscription, url: ev.url})
		return current, effects, nil

	case eventSwitchToLongPolling:
		if current.mode == ModeWebhook && current.subscription != nil {
			return current, []effect{{kind: effectReleaseSubscription, url: current.subscription.URL}}, nil
		}
		return current, nil, nil

	case eventDeleteWebhook:
		if current.subscription != nil {
			return current, []effect{{kind: effectDeleteSubscription, url: current.subscription.URL}}, nil
		}
		return current, nil, nil

	case eventPoll:
		if current.mode != ModeLongPolling {
			return current, nil, ErrModeMismatch
		}
		marker := ev.marker
		if marker == nil {
			marker = current.cursor
		}
		return current, []effect{{kind: effectPoll, marker: marker}}, nil

	case eventWebhookCreated:
		next := current
		next.mode = ModeWebhook
		next.subscription = ev.subscription
		return next, nil, nil

	case eventSubscriptionCleared:
		next := current
		next.mode = ModeLongPolling
		next.subscription = nil
		return next, nil, nil

	case eventPolled:
		// Режим сменился, пока шел запрос: курсор не трогаем
		if current.mode != ModeLongPolling {
			return current, nil, ErrModeMismatch
		}
		next := current
		next.cursor = advanceCursor(current.cursor, batchCursor(ev.result, ev.marker != nil))
		return next, nil, nil
	}

	return current, nil, errUnknownEvent
}

// batchCursor вычисляет позицию после пакета: маркер последнего обновления с маркером.
// Маркер конверта берется, только если пакет не пуст, ни одно обновление не несет маркер
// и маркер не был передан явно.
func batchCursor(result *maxapi.UpdatesResult, explicit bool) *int64 {
	if result == nil {
		return nil
	}

	var last *int64
	for i := range result.Updates {
		if marker := result.Updates[i].Marker; marker != nil {
			last = marker
		}
	}
	if last != nil {
		return last
	}

	if len(result.Updates) > 0 && !explicit {
		return result.Marker
	}

	return nil
}

// advanceCursor курсор только растет
func advanceCursor(current, candidate *int64) *int64 {
	if candidate == nil {
		return current
	}
	if current != nil && *candidate <= *current {
		return current
	}
	return ptr.Clone(candidate)
}
