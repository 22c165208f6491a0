package routes

import (
	"encoding/json"
	"net/http"

	"github.com/betterdrive/betterdrive/app/controllers"
	"github.com/betterdrive/betterdrive/app/graph"
	"github.com/betterdrive/betterdrive/app/services"
	"github.com/betterdrive/betterdrive/pkg/blob"
	"github.com/betterdrive/betterdrive/pkg/ctx"
	"github.com/betterdrive/betterdrive/pkg/event"
	"github.com/betterdrive/betterdrive/pkg/logger"
	"github.com/betterdrive/betterdrive/pkg/middleware"
	"github.com/betterdrive/betterdrive/pkg/router"
	"github.com/betterdrive/betterdrive/pkg/ws"
	"gorm.io/gorm"
)

// StorageHub pushes storage-changed events to connected dashboard clients.
var StorageHub = ws.NewHub()

// RegisterAPI wires every HTTP route. The database handle and blob store are
// injected here and flow down through the services, so the whole surface can
// be stood up against fakes in tests.
func RegisterAPI(r *router.Router, db *gorm.DB, blobs blob.Store) {
	authService := services.NewAuthService(db)
	folderService := services.NewFolderService(db, blobs)
	fileService := services.NewFileService(db, blobs)
	userService := services.NewUserService(db)

	authController := controllers.NewAuthController(authService)
	folderController := controllers.NewFolderController(folderService)
	fileController := controllers.NewFileController(fileService)
	userController := controllers.NewUserController(userService)

	go StorageHub.Run()
	event.Listen(services.EventStorageChanged, func(payload interface{}) {
		msg, err := json.Marshal(payload)
		if err != nil {
			logger.Warn("routes: encode storage event", "error", err)
			return
		}
		StorageHub.Broadcast <- msg
	})

	api := r.Group("/api")

	api.Post("/auth/register", "auth.register", ctx.Wrap(authController.Register))
	api.Post("/auth/login", "auth.login", ctx.Wrap(authController.Login))

	protected := api.Group("", middleware.Auth)

	protected.Post("/folders", "folders.create", ctx.Wrap(folderController.Create))
	protected.Get("/folders", "folders.index", ctx.Wrap(folderController.Index))
	protected.Get("/folders/home", "folders.home", ctx.Wrap(folderController.Home))
	protected.Get("/folders/{id}/contents", "folders.contents", ctx.Wrap(folderController.Contents))
	protected.Get("/folders/{id}/stats", "folders.stats", ctx.Wrap(folderController.Stats))
	protected.Patch("/folders/{id}/rename", "folders.rename", ctx.Wrap(folderController.Rename))
	protected.Post("/folders/{id}/star", "folders.star", ctx.Wrap(folderController.ToggleStar))
	protected.Delete("/folders/{id}", "folders.delete", ctx.Wrap(folderController.Delete))

	protected.Post("/files", "files.create", ctx.Wrap(fileController.Create))
	protected.Post("/files/upload", "files.upload", ctx.Wrap(fileController.Upload))
	protected.Patch("/files/{id}/rename", "files.rename", ctx.Wrap(fileController.Rename))
	protected.Post("/files/{id}/star", "files.star", ctx.Wrap(fileController.ToggleStar))
	protected.Delete("/files/{id}", "files.delete", ctx.Wrap(fileController.Delete))

	protected.Get("/me/storage", "me.storage", ctx.Wrap(userController.StorageInfo))
	protected.Get("/starred", "me.starred", ctx.Wrap(userController.Starred))

	protected.Post("/graphql", "graphql", graph.NewHandler(folderService, userService))

	protected.Get("/ws/storage", "ws.storage", func(w http.ResponseWriter, req *http.Request) {
		ws.Upgrade(w, req, StorageHub)
	})
}
