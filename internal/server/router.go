package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/dmaldonado1992/MedVerify/internal/auth"
	"github.com/dmaldonado1992/MedVerify/internal/config"
	"github.com/dmaldonado1992/MedVerify/internal/logger"
	"github.com/dmaldonado1992/MedVerify/internal/metrics"
	"github.com/dmaldonado1992/MedVerify/internal/notify"
	"github.com/dmaldonado1992/MedVerify/internal/user"
	"github.com/dmaldonado1992/MedVerify/internal/video"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config       config.Config
	DB           pinger
	ObjectStore  pinger
	AuthService  *auth.Service
	UserService  *user.Service
	VideoService *video.Service
	Dispatcher   *notify.Dispatcher
}

// NewHandler returns the router wrapped with the CORS policy.
func NewHandler(deps Dependencies) http.Handler {
	origins := deps.Config.CORS.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", logger.CorrelationIDHeader},
		ExposedHeaders:   []string{logger.CorrelationIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})(NewRouter(deps))
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))))
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/swagger/index.html")
	})

	api := router.Group("/api")
	if deps.UserService != nil {
		user.RegisterRoutes(api, deps.UserService)
	}
	if deps.Dispatcher != nil {
		registerEmailRoutes(api, deps.Dispatcher, deps.UserService)
	}

	scoped := api.Group("")
	if deps.AuthService != nil {
		auth.RegisterRoutes(api, deps.AuthService)
		scoped.Use(auth.OptionalIdentity(deps.AuthService))
	}
	if deps.VideoService != nil {
		video.RegisterRoutes(scoped, deps.VideoService)
	}

	return router
}

// registerEmailRoutes keeps a nil *user.Service from reaching notify as a
// non-nil interface.
func registerEmailRoutes(api *gin.RouterGroup, dispatcher *notify.Dispatcher, users *user.Service) {
	if users == nil {
		notify.RegisterRoutes(api, dispatcher, nil)
		return
	}
	notify.RegisterRoutes(api, dispatcher, users)
}
