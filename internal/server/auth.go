package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"taskboard/internal/domain/errors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenCookieName = "jwt_token"
	principalKey    = "principal"
	claimUserID     = "user_id"
)

// Authenticator issues and verifies the HS256 tokens that carry the
// principal of every task request.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Authenticator{
		secret: []byte(secret),
		ttl:    ttl,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
		now:    time.Now,
	}
}

func (a *Authenticator) Issue(userID string) (string, error) {
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		claimUserID: userID,
		"iat":       now.Unix(),
		"exp":       now.Add(a.ttl).Unix(),
	})
	return token.SignedString(a.secret)
}

// Verify returns the user id carried by a valid token.
func (a *Authenticator) Verify(raw string) (string, error) {
	token, err := a.parser.Parse(raw, func(*jwt.Token) (any, error) { return a.secret, nil })
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", errors.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.ErrUnauthorized
	}
	userID, _ := claims[claimUserID].(string)
	if userID == "" {
		return "", errors.ErrUnauthorized
	}
	return userID, nil
}

func tokenFromRequest(ctx *gin.Context) string {
	if h := ctx.GetHeader("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := ctx.Cookie(tokenCookieName); err == nil {
		return cookie
	}
	return ""
}

// RequireAuth rejects requests without a valid token for an existing user
// and stores the user id for the handlers.
func (api *TaskAPI) RequireAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw := tokenFromRequest(ctx)
		if raw == "" {
			abortUnauthorized(ctx)
			return
		}
		userID, err := api.auth.Verify(raw)
		if err != nil {
			abortUnauthorized(ctx)
			return
		}
		if _, err := api.users.Profile(ctx.Request.Context(), userID); err != nil {
			abortUnauthorized(ctx)
			return
		}
		ctx.Set(principalKey, userID)
		ctx.Next()
	}
}

func abortUnauthorized(ctx *gin.Context) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": errors.ErrUnauthorized.Error()})
}

// currentPrincipal returns the owner id set by RequireAuth.
func currentPrincipal(ctx *gin.Context) string {
	return ctx.GetString(principalKey)
}

func (api *TaskAPI) setTokenCookie(ctx *gin.Context, token string) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(tokenCookieName, token, int(api.auth.ttl.Seconds()), "/", "", false, true)
}
