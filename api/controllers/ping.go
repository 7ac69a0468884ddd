package controllers

import (
	"net/http"

	"github.com/arjunnair/tiffinbox-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"success": true, "status": "ok"})
	}
}
