package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/pkg/auth"
	"github.com/Anidipta/Node-Learner/pkg/common"
	"github.com/Anidipta/Node-Learner/pkg/ratelimit"
)

// AuthFunc is the common shape of the authentication middlewares. The
// container carries one without caring which environment built it.
type AuthFunc func(http.Handler) http.Handler

// Authenticate validates bearer JWTs with the injected validator and rate
// limits by client IP before validation and by user id after it. The user
// limit runs at twice the IP limit so shared NATs don't starve individual
// users.
func Authenticate(validator *auth.JWTValidator, requestsPerMinute int, logger *zap.Logger) AuthFunc {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 120
	}
	ipLimiter := ratelimit.NewIPRateLimiter(requestsPerMinute)
	userLimiter := ratelimit.NewUserRateLimiter(requestsPerMinute * 2)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			allowed, err := ipLimiter.Allow(r.Context(), clientIP)
			if err != nil {
				logger.Error("Rate limiter error", zap.Error(err))
				respondWithError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !allowed {
				respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			token := extractToken(r)
			if token == "" {
				respondUnauthorized(w, "Missing authentication token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("ip", clientIP),
					zap.String("path", r.URL.Path),
				)

				switch err {
				case auth.ErrExpiredToken:
					respondUnauthorized(w, "Token has expired")
				case auth.ErrInvalidSignature:
					respondUnauthorized(w, "Invalid token signature")
				default:
					respondUnauthorized(w, "Invalid token")
				}
				return
			}

			allowed, err = userLimiter.Allow(r.Context(), claims.UserID)
			if err != nil {
				logger.Error("User rate limiter error", zap.Error(err))
				respondWithError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !allowed {
				respondWithError(w, http.StatusTooManyRequests, "User rate limit exceeded")
				return
			}

			user := &auth.UserContext{
				UserID: claims.UserID,
				Email:  claims.Email,
				Roles:  claims.Roles,
			}

			logger.Debug("Request authenticated",
				zap.String("userID", claims.UserID),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
			)

			next.ServeHTTP(w, r.WithContext(authenticatedContext(r, user)))
		})
	}
}

// AuthenticateFromGateway trusts identity headers instead of validating a
// token. Only the Lambda entrypoint may install it: the entrypoint strips
// these headers from every inbound request and rewrites them from the API
// Gateway authorizer claims, so by the time this middleware runs they carry
// a verified identity or nothing.
func AuthenticateFromGateway(logger *zap.Logger) AuthFunc {
	ipLimiter := ratelimit.NewIPRateLimiter(100)
	userLimiter := ratelimit.NewUserRateLimiter(200)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			allowed, _ := ipLimiter.Allow(r.Context(), clientIP)
			if !allowed {
				respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			if r.Header.Get("X-API-Gateway-Authorized") != "true" {
				respondUnauthorized(w, "Request not authorized by API Gateway")
				return
			}

			userID := r.Header.Get("X-User-ID")
			if userID == "" {
				logger.Warn("Authorized request without user context",
					zap.String("ip", clientIP),
					zap.String("path", r.URL.Path),
				)
				respondUnauthorized(w, "Missing user context from API Gateway")
				return
			}

			allowed, _ = userLimiter.Allow(r.Context(), userID)
			if !allowed {
				respondWithError(w, http.StatusTooManyRequests, "User rate limit exceeded")
				return
			}

			roles := []string{"authenticated"}
			if userRoles := r.Header.Get("X-User-Roles"); userRoles != "" {
				roles = strings.Split(userRoles, ",")
			}

			user := &auth.UserContext{
				UserID: userID,
				Email:  r.Header.Get("X-User-Email"),
				Roles:  roles,
			}

			next.ServeHTTP(w, r.WithContext(authenticatedContext(r, user)))
		})
	}
}

// authenticatedContext threads the identity through both conventions the
// rest of the tree reads: the auth package's UserContext and the flat user
// id the handlers and repositories use. It also reports the user id back
// to the access log running outside the authenticated group.
func authenticatedContext(r *http.Request, user *auth.UserContext) context.Context {
	ctx := auth.SetUserInContext(r.Context(), user)
	ctx = common.WithUserID(ctx, user.UserID)
	if reqID := common.ExtractRequestID(r); reqID != "" {
		ctx = common.WithRequestID(ctx, reqID)
	}
	if scope, ok := ctx.Value(logScopeKey{}).(*logScope); ok {
		scope.userID = user.UserID
	}
	return ctx
}

// extractToken extracts the JWT token from multiple sources
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
		return authHeader
	}

	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}

	// Query parameter fallback, not recommended for production
	return r.URL.Query().Get("token")
}

// getClientIP extracts the client IP address
func getClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

// respondUnauthorized sends an unauthorized response
func respondUnauthorized(w http.ResponseWriter, message string) {
	common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// respondWithError sends an error response with a specific status code
func respondWithError(w http.ResponseWriter, code int, message string) {
	common.RespondError(w, code, errorCode(code), message)
}

// errorCode renders a status as the stable machine code clients switch on
func errorCode(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

// TokenRefreshMiddleware exchanges a valid token for a fresh one. The
// handler is mounted outside the authenticated group because it performs
// its own validation.
type TokenRefreshMiddleware struct {
	generator *auth.JWTGenerator
	validator *auth.JWTValidator
}

// NewTokenRefreshMiddleware creates a new token refresh middleware
func NewTokenRefreshMiddleware(secretKey string) (*TokenRefreshMiddleware, error) {
	genConfig := auth.JWTGeneratorConfig{
		SigningMethod: "HS256",
		SecretKey:     secretKey,
		Issuer:        auth.DefaultIssuer,
		Audience:      auth.DefaultAudience,
		ExpiryTime:    24 * time.Hour,
	}

	generator, err := auth.NewJWTGenerator(genConfig)
	if err != nil {
		return nil, err
	}

	valConfig := auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     secretKey,
		Issuer:        auth.DefaultIssuer,
		Audience:      auth.DefaultAudience,
	}

	validator, err := auth.NewJWTValidator(valConfig)
	if err != nil {
		return nil, err
	}

	return &TokenRefreshMiddleware{
		generator: generator,
		validator: validator,
	}, nil
}

// RefreshToken handles token refresh requests
func (m *TokenRefreshMiddleware) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token := extractToken(r)
	if token == "" {
		respondUnauthorized(w, "Missing token")
		return
	}

	claims, err := m.validator.ValidateToken(token)
	if err != nil || claims == nil {
		respondUnauthorized(w, "Invalid token")
		return
	}

	newToken, err := m.generator.GenerateToken(claims.UserID, claims.Email, claims.Roles)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"token":      newToken,
		"expires_in": 86400,
	})
}
