package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookie = "flash"

// Flash is a one-shot status message shown on the next rendered page.
type Flash struct {
	Message  string `json:"message"`
	Category string `json:"category"`
}

// setFlash stores f in a short-lived cookie for the page after a redirect.
func setFlash(w http.ResponseWriter, f Flash) {
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending flash, if any, and clears the cookie so it
// is shown once. A malformed cookie is cleared and ignored.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}

// flashFromQuery reads a status message passed as ?message=…&category=…
// after login or registration. Unknown categories fall back to success.
func flashFromQuery(r *http.Request) *Flash {
	q := r.URL.Query()
	msg := q.Get("message")
	if msg == "" {
		return nil
	}
	category := q.Get("category")
	switch category {
	case CategorySuccess, CategoryWarning, CategoryDanger:
	default:
		category = CategorySuccess
	}
	return &Flash{Message: msg, Category: category}
}
