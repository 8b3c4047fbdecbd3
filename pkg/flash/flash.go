// Package flash provides one-time notices persisted across redirects in a
// cookie.
package flash

import (
	"encoding/base64"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// CookieName is the cookie holding pending notices.
const CookieName = "scenario_editor_flash"

// Kind classifies notice presentation. Values match the CSS classes of the
// templates.
type Kind string

const (
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindDanger  Kind = "danger"
)

// Notice is one message to display on the next page render.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func Success(msg string) Notice { return Notice{Kind: KindSuccess, Message: msg} }
func Warning(msg string) Notice { return Notice{Kind: KindWarning, Message: msg} }
func Danger(msg string) Notice  { return Notice{Kind: KindDanger, Message: msg} }

// Write stores the notices for the next page render, after the ones
// already pending in the request.
// Invalid notices are silently ignored.
func Write(w http.ResponseWriter, r *http.Request, notices ...Notice) {
	if w == nil {
		return
	}
	pending := []Notice{}
	if r != nil {
		if c, err := r.Cookie(CookieName); err == nil {
			pending = decode(c.Value)
		}
	}
	for _, n := range notices {
		if n, ok := normalize(n); ok {
			pending = append(pending, n)
		}
	}
	if len(pending) == 0 {
		return
	}
	payload, err := json.Marshal(pending)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(payload),
		Path:     "/",
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadAndClear returns the pending notices and expires the cookie.
func ReadAndClear(w http.ResponseWriter, r *http.Request) []Notice {
	if r == nil {
		return nil
	}
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}
	if w != nil {
		Clear(w, r)
	}
	return decode(c.Value)
}

// Clear expires the notices cookie.
func Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func decode(raw string) []Notice {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	b, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	notices := []Notice{}
	if err := json.Unmarshal(b, &notices); err != nil {
		return nil
	}
	out := make([]Notice, 0, len(notices))
	for _, n := range notices {
		if n, ok := normalize(n); ok {
			out = append(out, n)
		}
	}
	return out
}

func normalize(n Notice) (Notice, bool) {
	n.Message = strings.TrimSpace(n.Message)
	if n.Message == "" {
		return Notice{}, false
	}
	n.Kind = Kind(strings.ToLower(strings.TrimSpace(string(n.Kind))))
	switch n.Kind {
	case KindSuccess, KindWarning, KindDanger:
		return n, true
	default:
		return Notice{}, false
	}
}

func isHTTPS(r *http.Request) bool {
	if r == nil {
		return false
	}
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
