package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
)

const (
	flashCookieName = "flash"
	flashMaxAge     = 60
)

// FlashKind selects how a flash message is styled.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    FlashKind
	Message string
}

func errorFlash(msg string) Flash   { return Flash{Kind: FlashError, Message: msg} }
func successFlash(msg string) Flash { return Flash{Kind: FlashSuccess, Message: msg} }

// redirectWithFlash stores f in a signed cookie and redirects to target.
func (h *Handlers) redirectWithFlash(w http.ResponseWriter, r *http.Request, target string, f Flash) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    h.encodeFlash(f),
		Path:     "/",
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, target, http.StatusFound)
}

// takeFlash returns the pending flash, if any, and clears its cookie.
// A cookie with a bad signature is dropped.
func (h *Handlers) takeFlash(w http.ResponseWriter, r *http.Request) Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return Flash{}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	f, ok := h.decodeFlash(cookie.Value)
	if !ok {
		h.requestLog(r).Debug("discarding flash cookie with bad signature")
		return Flash{}
	}
	return f
}

func (h *Handlers) encodeFlash(f Flash) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(string(f.Kind) + "\n" + f.Message))
	return payload + "." + base64.RawURLEncoding.EncodeToString(h.sign(payload))
}

func (h *Handlers) decodeFlash(value string) (Flash, bool) {
	payload, sig, found := strings.Cut(value, ".")
	if !found {
		return Flash{}, false
	}
	mac, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(mac, h.sign(payload)) {
		return Flash{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Flash{}, false
	}
	kind, msg, found := strings.Cut(string(raw), "\n")
	if !found {
		return Flash{}, false
	}
	return Flash{Kind: FlashKind(kind), Message: msg}, true
}

func (h *Handlers) sign(payload string) []byte {
	m := hmac.New(sha256.New, h.secret)
	m.Write([]byte(payload))
	return m.Sum(nil)
}
