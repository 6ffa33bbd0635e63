// Package flash carries one-shot user notices across a redirect in a cookie.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/comunidade/internal/logger"
)

// CookieName is the name of the cookie holding pending messages.
const CookieName = "flash"

// Message categories, rendered as CSS classes.
const (
	Success = "alert-success"
	Info    = "alert-info"
	Danger  = "alert-danger"
)

// Message is a single notice shown on the next rendered page.
type Message struct {
	Category string `json:"c"`
	Text     string `json:"t"`
}

// Add queues a message for the next page. Messages already pending on r are kept.
func Add(w http.ResponseWriter, r *http.Request, category, text string) {
	msgs := append(read(r), Message{Category: category, Text: text})

	data, err := json.Marshal(msgs)
	if err != nil {
		logger.FromContext(r.Context()).Errorw("failed to encode flash", "error", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the pending messages and clears them.
func Pop(w http.ResponseWriter, r *http.Request) []Message {
	msgs := read(r)
	if msgs == nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return msgs
}

func read(r *http.Request) []Message {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil
	}
	return msgs
}
