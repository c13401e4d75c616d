package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/hsawaji/flema-backend/internal/config"
	"github.com/hsawaji/flema-backend/internal/handler"
	appmw "github.com/hsawaji/flema-backend/internal/middleware"
	"github.com/hsawaji/flema-backend/internal/realtime"
	"github.com/hsawaji/flema-backend/internal/repository"
	"github.com/hsawaji/flema-backend/internal/service"
	"github.com/hsawaji/flema-backend/internal/storage"
)

type Server struct {
	e           *echo.Echo
	listingRepo repository.ListingRepository
	convRepo    repository.ConversationRepository
	userRepo    repository.UserRepository
	notifRepo   repository.NotificationRepository
	sha         string
	build       string
}

func New(db *gorm.DB, cfg *config.Config, sha, buildTime string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false, nil
			}
			if strings.HasSuffix(u.Hostname(), "vercel.app") {
				return true, nil
			}
			return false, nil
		},
	}))

	feed := realtime.NewFeed()

	listingRepo := repository.NewListingRepository(db)
	userRepo := repository.NewUserRepository(db)
	convRepo := repository.NewConversationRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	notifSvc := service.NewNotificationService(notifRepo)
	listingSvc := service.NewListingService(listingRepo)
	profileSvc := service.NewProfileService(userRepo)
	convSvc := service.NewConversationService(convRepo, listingRepo, userRepo, notifSvc, feed)

	listingHandler := handler.NewListingHandler(listingSvc)
	convHandler := handler.NewConversationHandler(convSvc)
	realtimeHandler := handler.NewRealtimeHandler(convSvc, feed)
	notifHandler := handler.NewNotificationHandler(notifSvc)

	var (
		requireAuth []echo.MiddlewareFunc
		authClient  *auth.Client
	)
	authMw, err := appmw.NewAuthMiddleware(context.Background(), cfg.FirebaseProjectID)
	if err != nil {
		e.Logger.Warnf("firebase auth disabled: %v", err)
	} else {
		requireAuth = append(requireAuth, authMw.RequireAuth)
		authClient = authMw.Client()
	}
	userHandler := handler.NewUserHandler(profileSvc, authClient)

	var uploadHandler *handler.UploadHandler
	if cfg.StorageBucket != "" {
		uploader, err := storage.NewUploader(context.Background(), cfg.StorageBucket)
		if err != nil {
			e.Logger.Warnf("uploads disabled: %v", err)
		} else {
			uploadHandler = handler.NewUploadHandler(uploader)
		}
	}
	if uploadHandler == nil {
		uploadHandler = handler.NewUploadHandler(nil)
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    sha,
			"build_time": buildTime,
		})
	})

	api := e.Group("/api")
	api.GET("/listings", listingHandler.List)
	api.GET("/listings/:id", listingHandler.Get)
	api.GET("/users/:uid/public", userHandler.GetPublic)

	api.POST("/listings", listingHandler.Create, requireAuth...)
	api.PUT("/listings/:id", listingHandler.Update, requireAuth...)
	api.GET("/me/listings", listingHandler.ListMine, requireAuth...)
	api.PUT("/me/profile", userHandler.UpsertProfile, requireAuth...)
	api.GET("/me/profile", userHandler.GetMyProfile, requireAuth...)

	api.POST("/listings/:id/conversations", convHandler.StartFromListing, requireAuth...)
	api.GET("/conversations", convHandler.List, requireAuth...)
	api.GET("/conversations/:id", convHandler.Get, requireAuth...)
	api.GET("/conversations/:id/messages", convHandler.ListMessages, requireAuth...)
	api.POST("/conversations/:id/messages", convHandler.SendMessage, requireAuth...)
	api.POST("/conversations/:id/read", convHandler.MarkRead, requireAuth...)
	api.GET("/conversations/:id/ws", realtimeHandler.Subscribe, requireAuth...)

	api.POST("/uploads", uploadHandler.Upload, requireAuth...)
	api.GET("/notifications", notifHandler.List, requireAuth...)
	api.POST("/notifications/read", notifHandler.MarkAllRead, requireAuth...)

	return &Server{
		e:           e,
		listingRepo: listingRepo,
		convRepo:    convRepo,
		userRepo:    userRepo,
		notifRepo:   notifRepo,
		sha:         sha,
		build:       buildTime,
	}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// SetDB injects the database once the (possibly slow) connection completes;
// the HTTP listener starts serving before that.
func (s *Server) SetDB(db *gorm.DB) {
	s.listingRepo.SetDB(db)
	s.convRepo.SetDB(db)
	s.userRepo.SetDB(db)
	s.notifRepo.SetDB(db)
}
