package auth

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

const (
	CookieName = "staff_token"
	QueryParam = "access_token"
)

// ExtractAccessToken finds the staff token of a request: the dashboard cookie,
// then a bearer header. Websocket handshakes cannot carry headers from a
// browser, so they may pass the token as a query parameter instead.
func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token)
	}

	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get(QueryParam)
	}

	return ""
}
