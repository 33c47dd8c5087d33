package api

import (
	"crypto/subtle"
	"log"
	"net/http"
)

// APIKeyMiddleware проверяет заголовок X-Api-Key запросов витрины.
// Сравнение постоянное по времени. Пустой настроенный ключ закрывает
// API полностью.
func APIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				http.Error(w, "API выключен", http.StatusServiceUnavailable)
				return
			}
			got := r.Header.Get("X-Api-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
				log.Printf("[API] Отклонен запрос %s %s: неверный API-ключ", r.Method, r.URL.Path)
				http.Error(w, "недействительный API-ключ", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
