package controllers

import (
	"net/http"

	"github.com/apexhq/shipdash-backend/api/responses"
	"github.com/apexhq/shipdash-backend/pkg/config"
	pkgerrors "github.com/apexhq/shipdash-backend/pkg/errors"
	"github.com/apexhq/shipdash-backend/pkg/logger"
	"github.com/apexhq/shipdash-backend/pkg/redis"
)

const envHeader = "X-Shipdash-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the cache backend when one needs a connection; the
// memory backend has nothing to check.
func HealthReady(cfg *config.Config, logg *logger.Logger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		if cfg.Cache.IsRedis() && redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redis unreachable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
