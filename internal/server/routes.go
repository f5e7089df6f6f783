package server

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jwtginhandler "github.com/auth0/go-jwks-guard/framework/gin"
)

// protectedResources is reported by the info endpoint.
var protectedResources = []string{"/api/protected", "/api/protected/info"}

func (s *Server) router(auth gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(
		s.recovery(),
		s.requestLogger(),
		cors(s.cfg.Server.CORSOrigins),
	)

	engine.GET("/health", s.health)
	engine.GET("/ready", s.ready)
	if s.cfg.Metrics.Enabled {
		engine.GET(s.cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api/protected", auth)
	api.GET("", s.protected)
	api.GET("/info", s.protectedInfo)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})

	return engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"service":     ServiceName,
		"auth_server": s.cfg.Auth.Issuer,
	})
}

// ready reports whether a key set has been fetched. It never fetches.
func (s *Server) ready(c *gin.Context) {
	set := s.cache.Current()
	if set == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"keys":       set.Len(),
		"fetched_at": set.FetchedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) protected(c *gin.Context) {
	claims, err := jwtginhandler.GetClaims(c, "")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	identity, _ := jwtginhandler.GetIdentity(c)

	s.logger.Info("Returning protected resource", "sub", claims.Subject)

	now := s.now().UTC().Format(time.RFC3339)
	c.JSON(http.StatusOK, gin.H{
		"message":   "Access granted",
		"timestamp": now,
		"user":      identity,
		"resource": gin.H{
			"data":        "This is protected data from the resource server",
			"accessed_at": now,
			"token_claims": gin.H{
				"aud": claims.Audience,
				"iss": claims.Issuer,
				"iat": claims.IssuedAt,
				"exp": claims.Expiry,
			},
		},
	})
}

func (s *Server) protectedInfo(c *gin.Context) {
	claims, err := jwtginhandler.GetClaims(c, "")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"info":              "This resource is protected by tokens from " + s.cfg.Auth.Issuer,
		"current_user":      claims.Subject,
		"allowed_resources": protectedResources,
		"auth_server":       s.cfg.Auth.Issuer,
	})
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error("Internal server error", "panic", recovered, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

// cors allows browser clients served from origins to call the API with
// credentials. Preflight requests are answered here.
func cors(origins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || !slices.Contains(origins, origin) {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
