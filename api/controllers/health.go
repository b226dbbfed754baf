package controllers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/fieldtoyou/fieldtoyou-backend/api/responses"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/config"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/redis"
)

const readinessTimeout = 5 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FieldToYou-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every hard dependency and reports the first layer
// that is down. Partial failures still return 503 with the combined
// error logged.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FieldToYou-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var errs error
		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
			}
		}

		if errs != nil {
			responses.WriteError(r.Context(), logg, w, errs)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
