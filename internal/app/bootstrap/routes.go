// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	healthfeature "github.com/dalemusser/coursehub/internal/app/features/health"
	trainingfeature "github.com/dalemusser/coursehub/internal/app/features/training"
	"github.com/dalemusser/coursehub/internal/app/store/mailoutbox"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. CourseHub mounts the health check and the
// training operations API.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.CourseHubMongoClient, mailoutbox.New(deps.CourseHubMongoDatabase), logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Training operations
	trainingHandler := trainingfeature.NewHandler(deps.services.engine, logger)
	r.Mount("/api", trainingfeature.Routes(trainingHandler))

	return r, nil
}
