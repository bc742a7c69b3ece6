// Package webserver hosts the REST API. Handlers register themselves into
// the route registry at init time, Init wires them onto echo groups with
// the JWT middleware applied to everything under /api/v1.
package webserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dialogix/dialogix/internal/app"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/sessions"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo-contrib/session"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"
	"go.uber.org/zap"
)

// Context keys for values injected into every request.
const (
	AppContextKey = "dialogix_appctx"
	DBContextKey  = "dialogix_db"
	ClaimsKey     = "user"
)

// TokenClaims is the JWT payload issued at login.
type TokenClaims struct {
	OprID    int64  `json:"opr_id,string"`
	TenantID int64  `json:"tenant_id,string"`
	Email    string `json:"email"`
	Level    string `json:"level"`
	jwt.RegisteredClaims
}

type routeEntry struct {
	method  string
	path    string
	handler echo.HandlerFunc
}

var (
	apiRoutes []routeEntry
	pubRoutes []routeEntry
)

// ApiGET registers an authenticated GET route under /api/v1.
func ApiGET(path string, h echo.HandlerFunc) {
	apiRoutes = append(apiRoutes, routeEntry{http.MethodGet, path, h})
}

// ApiPOST registers an authenticated POST route under /api/v1.
func ApiPOST(path string, h echo.HandlerFunc) {
	apiRoutes = append(apiRoutes, routeEntry{http.MethodPost, path, h})
}

// ApiPUT registers an authenticated PUT route under /api/v1.
func ApiPUT(path string, h echo.HandlerFunc) {
	apiRoutes = append(apiRoutes, routeEntry{http.MethodPut, path, h})
}

// ApiDELETE registers an authenticated DELETE route under /api/v1.
func ApiDELETE(path string, h echo.HandlerFunc) {
	apiRoutes = append(apiRoutes, routeEntry{http.MethodDelete, path, h})
}

// PubPOST registers an unauthenticated POST route under /api/v1.
// Used for login and provider webhooks.
func PubPOST(path string, h echo.HandlerFunc) {
	pubRoutes = append(pubRoutes, routeEntry{http.MethodPost, path, h})
}

// PubGET registers an unauthenticated GET route under /api/v1.
func PubGET(path string, h echo.HandlerFunc) {
	pubRoutes = append(pubRoutes, routeEntry{http.MethodGet, path, h})
}

// jsonSerializer backs echo's JSON handling with jsoniter.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := jsoniter.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := jsoniter.NewDecoder(c.Request().Body).Decode(i)
	if err == io.EOF {
		return echo.NewHTTPError(http.StatusBadRequest, "empty request body").SetInternal(err)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}

type WebServer struct {
	appctx app.AppContext
	root   *echo.Echo
}

var server *WebServer

// Instance returns the running webserver.
func Instance() *WebServer {
	return server
}

// Echo exposes the underlying echo instance (used in tests).
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

// Init builds the webserver and mounts every registered route.
func Init(appctx app.AppContext) *WebServer {
	s := &WebServer{appctx: appctx, root: echo.New()}
	s.root.HideBanner = true
	s.root.HidePort = true
	s.root.JSONSerializer = jsonSerializer{}

	s.root.Use(middleware.Recover())
	s.root.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return random.String(16) },
	}))
	s.root.Use(session.Middleware(sessions.NewCookieStore([]byte(appctx.Config().Web.Secret))))
	s.root.Use(s.injectContext)
	s.root.Use(requestLogger)

	group := s.root.Group("/api/v1")

	for _, r := range pubRoutes {
		group.Add(r.method, r.path, r.handler)
	}

	auth := s.root.Group("/api/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(appctx.Config().Web.Secret),
		ContextKey: ClaimsKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(TokenClaims)
		},
	}))
	for _, r := range apiRoutes {
		auth.Add(r.method, r.path, r.handler)
	}

	server = s
	return s
}

func (s *WebServer) injectContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(AppContextKey, s.appctx)
		c.Set(DBContextKey, s.appctx.DB())
		return next(c)
	}
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		req := c.Request()
		res := c.Response()
		zap.L().Debug("http request",
			zap.String("namespace", "webserver"),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", res.Status),
			zap.Duration("latency", time.Since(start)),
			zap.String("remote_ip", c.RealIP()))
		return nil
	}
}

// Start runs the HTTP listener until ctx is canceled.
func (s *WebServer) Start(ctx context.Context) error {
	cfg := s.appctx.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	zap.L().Info("starting webserver", zap.String("namespace", "webserver"), zap.String("listen", addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.root.Start(addr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.root.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// IssueToken signs a JWT for one operator.
func IssueToken(secret string, claims TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
