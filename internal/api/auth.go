package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mwhitfield/leapgate/internal/infrastructure/config"
	"github.com/mwhitfield/leapgate/internal/infrastructure/logging"
)

// authenticator issues and verifies the API's bearer tokens.
type authenticator struct {
	secret   []byte
	password string
	ttl      time.Duration
	logger   *logging.Logger
}

func newAuthenticator(cfg config.SecurityConfig, logger *logging.Logger) *authenticator {
	ttl := time.Duration(cfg.JWT.AccessTokenTTL) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &authenticator{
		secret:   []byte(cfg.JWT.Secret),
		password: cfg.APIPassword,
		ttl:      ttl,
		logger:   logger,
	}
}

// loginHandler exchanges the API password for a signed token.
func (a *authenticator) loginHandler() http.HandlerFunc {
	type request struct {
		Password string `json:"password"`
	}
	type response struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if a.password == "" ||
			subtle.ConstantTimeCompare([]byte(req.Password), []byte(a.password)) != 1 {
			a.logger.Warn("failed login attempt", "remote", r.RemoteAddr)
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		expires := time.Now().Add(a.ttl)
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "leapgate-api",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expires),
		})
		signed, err := token.SignedString(a.secret)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to issue token")
			return
		}

		respondJSON(w, http.StatusOK, response{Token: signed, ExpiresAt: expires})
	}
}

// middleware rejects requests without a valid bearer token. WebSocket
// clients may pass the token as a query parameter instead of a header.
func (a *authenticator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			respondError(w, http.StatusUnauthorized, "missing token")
			return
		}

		_, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from the Authorization header or the
// "token" query parameter.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
