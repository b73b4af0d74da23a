package internal

import (
	"net/http"

	"arxivmon/internal/controllers"
	"arxivmon/internal/providers"
	"arxivmon/internal/structures"
)

func InitRoutes(apiController *controllers.ApiController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/api/papers", http.HandlerFunc(apiController.GetPapers))
	routers.Post("/api/fetch", http.HandlerFunc(apiController.FetchNow))
	routers.Get("/api/status", http.HandlerFunc(apiController.GetStatus))
	routers.Post("/api/mark-all-seen", http.HandlerFunc(apiController.MarkAllSeen))
	routers.Post("/api/toggle-auto-fetch", http.HandlerFunc(apiController.ToggleAutoFetch))
	routers.Get("/api/config", http.HandlerFunc(apiController.GetConfig))
	routers.Post("/api/config", http.HandlerFunc(apiController.UpdateConfig))
	routers.Post("/api/clear", http.HandlerFunc(apiController.ClearData))
	return routers
}
