package httpapi

import (
	"encoding/json"
	"net/http"
)

// writeOK writes {ok:true, ...fields} as the response body.
func writeOK(w http.ResponseWriter, status int, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["ok"] = true
	writeJSON(w, status, fields)
}

// writeError writes {ok:false, error, message?} error
// envelope, status chosen by the caller from the stable code vocabulary.
func writeError(w http.ResponseWriter, status int, code, message string) {
	body := map[string]any{"ok": false, "error": code}
	if message != "" {
		body["message"] = message
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
