package handlers

import (
	"encoding/json"
	"net/http"
)

// writeJSON сериализует ответ; ошибки кодирования здесь уже не исправить,
// поэтому они просто игнорируются (заголовки отправлены).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError отвечает телом вида {"error": "..."} — контракт ошибок API.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
