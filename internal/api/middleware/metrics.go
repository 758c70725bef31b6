package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const unknownEndpoint = "/unknown"

// statusRecorder запоминает код ответа
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware считает входящие запросы и их длительность.
// Endpoint берется из шаблона маршрута mux, чтобы ID в пути не раздували кардинальность.
func MetricsMiddleware(observer HTTPObserver) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			observer.ObserveHTTPRequest(r.Method, endpointTemplate(r), recorder.status, time.Since(started))
		})
	}
}

func endpointTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return unknownEndpoint
	}

	template, err := route.GetPathTemplate()
	if err != nil {
		return unknownEndpoint
	}

	return template
}
