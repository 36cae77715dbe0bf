package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes a success body. Payload keys are emitted at the top level with
// "success": true injected, matching what the mobile clients already parse.
func JSON(w http.ResponseWriter, status int, payload map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = true
	_ = json.NewEncoder(w).Encode(body)
}

// Error writes the stable error shape {"success": false, "message": msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": msg,
	})
}
