package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// AuthProvider is the boundary to the external auth/session system. The
// sync engine never manages credentials itself; it asks who is signed in
// and with what token, and reports irrecoverable rejections back.
type AuthProvider interface {
	// UserId returns the signed-in user, or false when nobody is.
	UserId() (uuid.UUID, bool)
	// Token returns a bearer token for the user; implementations may
	// refresh behind this call.
	Token(ctx context.Context) (string, error)
	// CheckSession re-validates the session after the server rejected a
	// token. True means still signed in (the rejection was transient).
	CheckSession(ctx context.Context) (bool, error)
	// SignOut is invoked when the session is confirmed dead.
	SignOut()
}

const tokenCacheKey = "bearer_token"

// StaticTokenAuth serves a fixed user and token from configuration.
// The token sits in a short-TTL cache so an expired JWT is noticed
// between rounds rather than bounced off the server every time.
type StaticTokenAuth struct {
	userId   uuid.UUID
	token    string
	cache    *cache.Cache
	signedIn bool
}

func NewStaticTokenAuth(userId uuid.UUID, token string) *StaticTokenAuth {
	c := cache.New(5*time.Minute, 10*time.Minute)
	return &StaticTokenAuth{
		userId:   userId,
		token:    token,
		cache:    c,
		signedIn: true,
	}
}

func (a *StaticTokenAuth) UserId() (uuid.UUID, bool) {
	if !a.signedIn || a.userId == uuid.Nil {
		return uuid.Nil, false
	}
	return a.userId, true
}

func (a *StaticTokenAuth) Token(ctx context.Context) (string, error) {
	if !a.signedIn {
		return "", fmt.Errorf("signed out")
	}
	if cached, found := a.cache.Get(tokenCacheKey); found {
		return cached.(string), nil
	}
	if err := checkTokenExpiry(a.token); err != nil {
		return "", err
	}
	a.cache.Set(tokenCacheKey, a.token, cache.DefaultExpiration)
	return a.token, nil
}

func (a *StaticTokenAuth) CheckSession(ctx context.Context) (bool, error) {
	if !a.signedIn {
		return false, nil
	}
	return checkTokenExpiry(a.token) == nil, nil
}

func (a *StaticTokenAuth) SignOut() {
	a.signedIn = false
	a.cache.Delete(tokenCacheKey)
}

// checkTokenExpiry inspects the JWT exp claim without verifying the
// signature; verification is the server's job, this only avoids sending
// a token we already know is dead. Opaque (non-JWT) tokens pass through.
func checkTokenExpiry(token string) error {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Before(time.Now()) {
		return fmt.Errorf("bearer token expired at %s", exp.Time.Format(time.RFC3339))
	}
	return nil
}
