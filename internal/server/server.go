package server

import (
	"backend-mapty/internal/app"
	"backend-mapty/internal/auth"
	"backend-mapty/internal/config"
	"backend-mapty/internal/mapview"
	"backend-mapty/internal/storage"
	"backend-mapty/internal/stream"
	"backend-mapty/internal/weather"
	"backend-mapty/internal/workout"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Log      *zap.Logger
	Stream   *stream.Hub
	Sessions *app.Manager
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	fiberApp := fiber.New()
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	s := &Server{
		App:    fiberApp,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Log:    log,
		Stream: stream.NewHub(redisClient, log),
	}
	s.Sessions = app.NewManager(app.Deps{
		Store:          s.store(),
		Weather:        s.weather(),
		Publisher:      s.Stream,
		Log:            log,
		NoticeDuration: cfg.NoticeDuration,
		WeatherTimeout: cfg.WeatherTimeout,
		Map: mapview.Options{
			Center:  workout.Coords{cfg.MapDefaultLat, cfg.MapDefaultLng},
			Zoom:    cfg.MapZoom,
			TileURL: cfg.MapTileURL,
		},
	}, cfg.SessionIdleTimeout)

	registerRoutes(s)
	return s
}

func (s *Server) store() storage.Store {
	if s.DB == nil {
		s.Log.Warn("postgres unavailable, session storage is in memory")
		return storage.NewMemoryStore()
	}
	return storage.NewService(s.DB)
}

func (s *Server) weather() *weather.Service {
	var cache weather.Cache
	if s.Redis != nil {
		cache = weather.NewRedisCache(s.Redis, s.Cfg.WeatherCacheTTL)
	}
	return weather.NewService(weather.NewClient(s.Cfg.WeatherBaseURL, s.Cfg.WeatherTimeout), cache, s.Log)
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authSvc := auth.NewService(s.Cfg.JWTSecret)
	jwtMiddleware := auth.JWTMiddleware(authSvc)

	auth.RegisterRoutes(s.App.Group("/auth"), authSvc)
	appGroup := s.App.Group("/app")
	storage.RegisterRoutes(appGroup, s.Sessions.Store(), jwtMiddleware)
	app.RegisterRoutes(appGroup, s.Sessions, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, authSvc.ValidateAccessToken)
}

// Close stops session controllers and the stream hub.
func (s *Server) Close() {
	s.Sessions.Close()
	s.Stream.Close()
}
