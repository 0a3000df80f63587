package bootstrap

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonesrussell/north-cloud/newswatch/internal/api"
)

// SetupHTTPServer builds the read API server.
func SetupHTTPServer(
	deps *CommandDeps,
	articles api.ArticleReader,
	status api.CycleStatus,
	gatherer prometheus.Gatherer,
) *api.Server {
	debug := deps.Config.Logging.Level == "debug"
	handler := api.NewHandler(articles, status, Version, deps.Logger)
	router := api.NewRouter(handler, gatherer, deps.Logger, debug)

	return api.NewServer(deps.Config.Server.Port, router, deps.Logger)
}
