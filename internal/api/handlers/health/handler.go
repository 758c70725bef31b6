package health

import (
	"net/http"

	"github.com/m04kA/SMC-MaxGateway/internal/api/handlers"
	"github.com/m04kA/SMC-MaxGateway/pkg/delivery"
)

// ModeProvider источник текущего режима доставки
type ModeProvider interface {
	Mode() delivery.Mode
}

type Handler struct {
	modes ModeProvider
}

func NewHandler(modes ModeProvider) *Handler {
	return &Handler{modes: modes}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "healthy",
	}
	if h.modes != nil {
		response["delivery_mode"] = string(h.modes.Mode())
	}

	handlers.RespondJSON(w, http.StatusOK, response)
}
