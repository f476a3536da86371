package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const ViewerKey contextKey = "viewer"

var (
	errMissingToken = errors.New("missing authorization header")
	errTokenFormat  = errors.New("invalid authorization format")
)

// requestToken returns the viewer token of r. Browsers cannot set headers
// on websocket upgrades, so the token query parameter is checked first.
func requestToken(r *http.Request) (string, error) {
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", errTokenFormat
	}
	return token, nil
}

// AuthMiddleware rejects requests without a valid viewer token and stores
// the viewer in the request context.
func (s *Service) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := requestToken(r)
		if err != nil {
			WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}

		viewer, err := s.ValidateToken(token)
		if err != nil {
			WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), ViewerKey, viewer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ViewerFromContext(ctx context.Context) *Viewer {
	v, _ := ctx.Value(ViewerKey).(*Viewer)
	return v
}
