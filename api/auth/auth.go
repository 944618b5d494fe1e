package auth

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mangashelf/mangashelf/model"
	"github.com/pkg/errors"
)

const (
	// KeyID is the version of the signing key.
	KeyID = "v1"
	// AccessTokenCookieName is the cookie carrying the access token.
	AccessTokenCookieName = "ms_token"

	issuer = "mangashelf"
)

// ClaimsMessage is the JWT payload of an access token.
type ClaimsMessage struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs a token for the given identity.
func GenerateAccessToken(userID int, email string, role model.Role, expirationTime time.Time, secret []byte) (string, error) {
	registeredClaims := jwt.RegisteredClaims{
		Issuer:   issuer,
		IssuedAt: jwt.NewNumericDate(time.Now()),
		Subject:  strconv.Itoa(userID),
	}
	if !expirationTime.IsZero() {
		registeredClaims.ExpiresAt = jwt.NewNumericDate(expirationTime)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &ClaimsMessage{
		Email:            email,
		Role:             string(role),
		RegisteredClaims: registeredClaims,
	})
	token.Header["kid"] = KeyID

	return token.SignedString(secret)
}

// ParseAccessToken validates the token signature and returns its claims.
func ParseAccessToken(accessToken string, secret []byte) (*ClaimsMessage, error) {
	claims := &ClaimsMessage{}
	_, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Name {
			return nil, errors.New("unexpected signing method")
		}
		if kid, ok := t.Header["kid"].(string); !ok || kid != KeyID {
			return nil, errors.New("unexpected key id")
		}
		return secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "invalid or expired access token")
	}
	return claims, nil
}

// ExtractToken returns the access token attached to the request. Lookup
// order: Authorization header, X-Access-Token header, then, only when
// allowQuery is set, the token/access_token query parameters, and finally
// the session cookie.
func ExtractToken(r *http.Request, allowQuery bool) string {
	// Check the HTTP Authorization header first
	authorizationHeaders := r.Header.Get("Authorization")
	// Check bearer token
	if authorizationHeaders != "" {
		splitToken := strings.Split(authorizationHeaders, "Bearer ")
		if len(splitToken) == 2 {
			return strings.TrimSpace(splitToken[1])
		}
	}

	if headerToken := r.Header.Get("X-Access-Token"); headerToken != "" {
		return headerToken
	}

	// Media elements (<img>, <audio>) cannot set headers, so streaming
	// routes also accept the token in the query string.
	if allowQuery {
		query := r.URL.Query()
		if token := query.Get("token"); token != "" {
			return token
		}
		if token := query.Get("access_token"); token != "" {
			return token
		}
	}

	// Check the cookie header
	var accessToken string
	for cookie := range r.Cookies() {
		if r.Cookies()[cookie].Name == AccessTokenCookieName {
			accessToken = r.Cookies()[cookie].Value
		}
	}
	return accessToken
}

// StripTokenQuery removes credential query parameters before the URL is
// logged or echoed back.
func StripTokenQuery(r *http.Request) {
	query := r.URL.Query()
	if query.Get("token") == "" && query.Get("access_token") == "" {
		return
	}
	query.Del("token")
	query.Del("access_token")
	r.URL.RawQuery = query.Encode()
}
