package main

import (
	"crypto/subtle"
	"flag"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	_ "github.com/patchtrack/git-ptk/cmd/mock_server/docs"
	"github.com/patchtrack/git-ptk/cmd/mock_server/routes"
	routesv1 "github.com/patchtrack/git-ptk/cmd/mock_server/routes/v1"
	"github.com/patchtrack/git-ptk/cmd/mock_server/store"
	"github.com/patchtrack/git-ptk/internal/logger"
	"github.com/patchtrack/git-ptk/internal/types"
	"github.com/patchtrack/git-ptk/internal/validator"
)

func BasicAuthValidator(username, password string, _ echo.Context) (bool, error) {
	return username == "mock_user" && password == "mock_password", nil
}

// Auth accepts the Token scheme the CLI uses by default and falls back to
// HTTP Basic, mirroring the real server's two credential modes.
func Auth(token string) echo.MiddlewareFunc {
	basic := middleware.BasicAuth(BasicAuthValidator)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if value, ok := strings.CutPrefix(header, "Token "); ok {
				if subtle.ConstantTimeCompare([]byte(value), []byte(token)) == 1 {
					return next(c)
				}
				return echo.NewHTTPError(
					http.StatusUnauthorized,
					types.StringError("invalid token"),
				)
			}

			return basic(next)(c)
		}
	}
}

// @title						Mock Patchtrack API
// @version					1.2.0
// @securityDefinitions.basic	BasicAuth
func main() {
	addr := flag.String("addr", ":1323", "listen address")
	baseURL := flag.String("base-url", "http://localhost:1323",
		"address clients reach this server under; served URLs point here")
	fixturePath := flag.String("fixture", "fixture.yaml", "server state fixture file")
	token := flag.String("token", "mock-token", "accepted API token")
	flag.Parse()

	logger.InitSlog()

	state, err := store.Load(*fixturePath, *baseURL)
	if err != nil {
		logger.Logger.Error("failed to load fixture", "path", *fixturePath, "error", err)
		return
	}

	e := echo.New()

	validate := validator.Create()
	e.Validator = &validate

	e.Pre(
		middleware.AddTrailingSlashWithConfig(
			middleware.TrailingSlashConfig{Skipper: func(c echo.Context) bool {
				return strings.Contains(c.Request().URL.Path, "swagger")
			}},
		),
	)

	e.Use(
		otelecho.Middleware("mock-patchtrack"),
		slogecho.NewWithConfig(logger.Logger, slogecho.Config{}),
	)

	e.GET("/swagger/*", echoswagger.WrapHandler)

	auth := Auth(*token)

	apiGroup := e.Group("/api/1.2", auth)
	routesv1.New(state).Register(apiGroup)
	routes.New(state).Register(e, auth)

	e.Logger.Fatal(e.Start(*addr))
}
