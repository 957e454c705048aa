package api

import (
	"net/http"

	"github.com/terrasense/regolith/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) {
	routes.Register(
		mux,
		newCommandHandler(runtime, domain).Routes(),
		runtime.Classifier.Handler().Routes(),
		domain.Analyses.Handler().Routes(),
		newHealthHandler(runtime).Routes(),
	)
}
