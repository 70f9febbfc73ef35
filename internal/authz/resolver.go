package authz

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/arenahub/arenahub/internal/shared"
)

// ErrNoIdentity indicates the request carries no resolvable identity.
var ErrNoIdentity = errors.New("no resolvable identity")

// Resolver turns an inbound request into a subject id and email claim, or
// fails with ErrNoIdentity. Any other error is a resolver fault.
type Resolver interface {
	Resolve(ctx context.Context, r *http.Request) (subject, email string, err error)
}

// BearerResolver authenticates the JSON API: the Authorization header carries
// the same opaque session token the cookie path uses, verified against the
// session store.
type BearerResolver struct {
	Sessions *shared.SessionManager
}

// Resolve extracts and verifies the bearer token.
func (b BearerResolver) Resolve(ctx context.Context, r *http.Request) (string, string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", "", ErrNoIdentity
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", "", ErrNoIdentity
	}
	sess, err := b.Sessions.LoadByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, shared.ErrSessionNotFound) {
			return "", "", ErrNoIdentity
		}
		return "", "", err
	}
	if sess.User() == "" {
		return "", "", ErrNoIdentity
	}
	return sess.User(), sess.Email(), nil
}

// CookieResolver authenticates browser requests via the session cookie. The
// session middleware usually put the loaded session in context already; the
// cookie is only consulted when that did not happen.
type CookieResolver struct {
	Sessions *shared.SessionManager
}

// Resolve extracts the subject from the request session.
func (c CookieResolver) Resolve(ctx context.Context, r *http.Request) (string, string, error) {
	if sess := shared.SessionFromContext(ctx); sess != nil {
		if sess.User() == "" {
			return "", "", ErrNoIdentity
		}
		return sess.User(), sess.Email(), nil
	}

	cookie, err := r.Cookie(c.Sessions.CookieName())
	if err != nil {
		return "", "", ErrNoIdentity
	}
	sess, err := c.Sessions.LoadByToken(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, shared.ErrSessionNotFound) {
			return "", "", ErrNoIdentity
		}
		return "", "", err
	}
	if sess.User() == "" {
		return "", "", ErrNoIdentity
	}
	return sess.User(), sess.Email(), nil
}
