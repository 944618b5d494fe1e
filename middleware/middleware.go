package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mangashelf/mangashelf/api/auth"
	"github.com/mangashelf/mangashelf/config"
	"github.com/mangashelf/mangashelf/http/request"
	"github.com/mangashelf/mangashelf/http/response"
	"github.com/mangashelf/mangashelf/log"
	"github.com/mangashelf/mangashelf/model"
	"github.com/mangashelf/mangashelf/util"
	"go.uber.org/zap"
)

type Middleware struct {
	secret string
}

func NewMiddleware(secret string) *Middleware {
	return &Middleware{secret: secret}
}

// HandleCORS allows the configured front-end origin with credentials.
func (m *Middleware) HandleCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", config.Opts.CORSOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "X-Access-Token, X-Admin-Token, Authorization, Content-Type, Accept, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Range, Accept-Ranges, Content-Disposition")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Max-Age", "7200")
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Logging records one line per request with the resolved client IP. The
// URI is logged after the handler ran, at which point the authentication
// interceptor has already stripped any token query parameters.
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := request.FindClientIP(r)
		ctx := context.WithValue(r.Context(), request.ClientIPContextKey, clientIP)
		r = r.WithContext(ctx)

		next.ServeHTTP(w, r)

		log.Info("Handled request",
			zap.String("client_ip", clientIP),
			zap.String("method", r.Method),
			zap.String("uri", r.URL.RequestURI()),
			zap.String("user_agent", r.UserAgent()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// AuthenticationInterceptor resolves the caller identity and stores it in
// the request context. Streaming routes additionally accept the token in
// the query string because media elements cannot set headers.
func (m *Middleware) AuthenticationInterceptor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := request.ClientIP(r)

		if user := m.adminFromToken(r); user != nil {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), request.UserContextKey, user)))
			return
		}

		accessToken := auth.ExtractToken(r, isStreamingPath(r.URL.Path))
		auth.StripTokenQuery(r)
		if accessToken == "" {
			log.Debug("No access token provided",
				zap.String("client_ip", clientIP),
				zap.String("user_agent", r.UserAgent()),
			)
			response.Unauthorized(w, r)
			return
		}

		claims, err := auth.ParseAccessToken(accessToken, []byte(m.secret))
		if err != nil {
			log.Debug("Failed to authenticate user",
				zap.String("client_ip", clientIP),
				zap.String("user_agent", r.UserAgent()),
				zap.Error(err),
			)
			response.Unauthorized(w, r)
			return
		}

		userID, err := strconv.Atoi(claims.Subject)
		if err != nil {
			response.Unauthorized(w, r)
			return
		}

		role := model.Role(claims.Role)
		if !role.Valid() {
			role = model.RoleReader
		}

		user := &model.User{ID: userID, Email: claims.Email, Role: role}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), request.UserContextKey, user)))
	})
}

// adminFromToken grants a synthetic admin identity to automation carrying
// the configured admin token.
func (m *Middleware) adminFromToken(r *http.Request) *model.User {
	adminToken := config.Opts.AdminToken
	if adminToken == "" {
		return nil
	}
	if r.Header.Get("X-Admin-Token") != adminToken {
		return nil
	}
	return &model.User{ID: 0, Email: "admin@localhost", Role: model.RoleAdmin}
}

func isStreamingPath(path string) bool {
	if strings.HasSuffix(path, "/stream") || strings.HasSuffix(path, "/download") {
		return true
	}
	return strings.Contains(path, "/pages/") ||
		util.HasPrefixes(path, "/thumbnails/", "/previews/")
}
