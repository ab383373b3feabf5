package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mnuddindev/threadly/internal/api/v1"
	"github.com/mnuddindev/threadly/internal/auth"
	"github.com/mnuddindev/threadly/internal/config"
	"github.com/mnuddindev/threadly/pkg/logger"
	storage "github.com/mnuddindev/threadly/pkg/redis"
	"gorm.io/gorm"
)

func NewRoutes(ctx context.Context, app *fiber.App, cfg *config.Config, db *gorm.DB, log *logger.Logger, rclient *storage.RedisClient) {
	app.Use(
		logger.SetupLogger(log),
		recover.New(),
		cors.New(
			cors.Config{
				AllowOrigins:     "http://localhost:3000",
				AllowCredentials: true,
				AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-User-ID",
			},
		),
		compress.New(
			compress.Config{
				Level: compress.LevelBestCompression,
			},
		),
		limiter.New(
			limiter.Config{
				Expiration: 1 * time.Minute,
				Max:        60,
				KeyGenerator: func(c *fiber.Ctx) string {
					return c.IP()
				},
			},
		),
	)
	app.Use(log.Middleware())

	v1.Setup(db, rclient, log)
	opt := auth.Options{DB: db, Rclient: rclient, Logger: log}
	viewer := auth.OptionalIdentity(opt)
	identified := auth.RequireIdentity(opt)

	api := app.Group("/api/v1")

	users := api.Group("/users")
	users.Put("/me", identified, v1.UpdateProfile)
	users.Get("/", identified, v1.SearchUsers)
	users.Get("/:id", viewer, v1.GetUser)
	users.Get("/:id/threads", viewer, v1.GetUserThreads)

	threads := api.Group("/threads")
	threads.Post("/", identified, v1.CreateThread)
	threads.Get("/", viewer, v1.GetFeed)
	threads.Get("/count", viewer, v1.CountThreads)
	threads.Get("/:id", viewer, v1.GetThread)
	threads.Post("/:id/comments", identified, v1.AddComment)
	threads.Post("/:id/likes", identified, v1.ToggleLike)
	threads.Get("/:id/likes", viewer, v1.GetLikes)

	communities := api.Group("/communities")
	communities.Post("/", identified, v1.CreateCommunity)
	communities.Get("/", viewer, v1.GetCommunities)
	communities.Get("/:id", viewer, v1.GetCommunity)
	communities.Get("/:id/threads", viewer, v1.GetCommunityThreads)
	communities.Put("/:id", identified, v1.UpdateCommunity)
	communities.Delete("/:id", identified, v1.DeleteCommunity)
	communities.Post("/:id/members/:userId", identified, v1.AddMember)
	communities.Delete("/:id/members/:userId", identified, v1.RemoveMember)

	go func() {
		<-ctx.Done()
		rclient.Close(log)
		log.Close()
	}()
}
