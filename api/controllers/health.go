package controllers

import (
	"net/http"

	"github.com/arjunnair/tiffinbox-backend/api/responses"
	"github.com/arjunnair/tiffinbox-backend/pkg/config"
	"github.com/arjunnair/tiffinbox-backend/pkg/db"
	"github.com/arjunnair/tiffinbox-backend/pkg/logger"
	"github.com/arjunnair/tiffinbox-backend/pkg/redis"
)

type healthResponse struct {
	Success bool              `json:"success"`
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tiffinbox-Env", cfg.App.Env)
		responses.WriteSuccess(w, healthResponse{Success: true, Status: "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tiffinbox-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				checks["db"] = err.Error()
				healthy = false
				if logg != nil {
					logg.Error(r.Context(), "readiness db ping failed", err)
				}
			} else {
				checks["db"] = "ok"
			}
		}

		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				checks["redis"] = err.Error()
				healthy = false
				if logg != nil {
					logg.Error(r.Context(), "readiness redis ping failed", err)
				}
			} else {
				checks["redis"] = "ok"
			}
		}

		if !healthy {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, healthResponse{
				Success: false,
				Status:  "degraded",
				Checks:  checks,
			})
			return
		}

		responses.WriteSuccess(w, healthResponse{Success: true, Status: "ready", Checks: checks})
	}
}
