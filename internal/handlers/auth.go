package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"expense-ledger/internal/auth"
)

// AuthViewModel is the data passed to the landing, login and register templates.
type AuthViewModel struct {
	Page
	Next string
}

// Index shows the landing page, or the dashboard to a signed-in visitor.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	if h.currentIdentity(w, r).Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.render(w, r, "index.html", AuthViewModel{Page: Page{Flash: h.takeFlash(w, r)}})
}

// RegisterForm renders the registration page.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if h.currentIdentity(w, r).Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.render(w, r, "register.html", AuthViewModel{Page: Page{Flash: h.takeFlash(w, r)}})
}

// Register handles the registration form submission.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if h.currentIdentity(w, r).Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderRegister(w, r, "Invalid form submission")
		return
	}

	_, err := h.auth.Register(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	switch {
	case err == nil:
		h.redirectWithFlash(w, r, "/login", successFlash("Registration successful! Please log in."))
	case errors.Is(err, auth.ErrMissingCredentials):
		h.renderRegister(w, r, "Username and password are required!")
	case errors.Is(err, auth.ErrDuplicateUsername):
		h.renderRegister(w, r, "Username already exists!")
	case errors.Is(err, auth.ErrPasswordTooLong):
		h.renderRegister(w, r, "Password must be at most 72 bytes.")
	default:
		h.requestLog(r).WithError(err).Error("registration failed")
		h.renderRegister(w, r, genericErrorMessage)
	}
}

func (h *Handlers) renderRegister(w http.ResponseWriter, r *http.Request, msg string) {
	h.render(w, r, "register.html", AuthViewModel{Page: Page{Flash: errorFlash(msg)}})
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.currentIdentity(w, r).Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.render(w, r, "login.html", AuthViewModel{
		Page: Page{Flash: h.takeFlash(w, r)},
		Next: safeNext(r.URL.Query().Get("next")),
	})
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if h.currentIdentity(w, r).Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, "", "Invalid form submission")
		return
	}
	next := safeNext(r.FormValue("next"))

	id, err := h.auth.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.requestLog(r).Info("login rejected")
			h.renderLogin(w, r, next, "Invalid username or password")
			return
		}
		h.requestLog(r).WithError(err).Error("login failed")
		h.renderLogin(w, r, next, genericErrorMessage)
		return
	}

	token, expiresAt, err := h.auth.StartSession(r.Context(), id)
	if err != nil {
		h.requestLog(r).WithError(err).WithField("user_id", id.UserID).Error("failed to start session")
		h.renderLogin(w, r, next, genericErrorMessage)
		return
	}
	h.setSessionCookie(w, token, expiresAt)

	if next == "" {
		next = "/dashboard"
	}
	http.Redirect(w, r, next, http.StatusFound)
}

func (h *Handlers) renderLogin(w http.ResponseWriter, r *http.Request, next, msg string) {
	h.render(w, r, "login.html", AuthViewModel{Page: Page{Flash: errorFlash(msg)}, Next: next})
}

// Logout ends the session and returns to the login page.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.auth.EndSession(r.Context(), cookie.Value); err != nil {
			h.requestLog(r).WithError(err).WithField("user_id", id.UserID).Error("failed to delete session")
		}
	}
	h.clearSessionCookie(w)
	h.redirectWithFlash(w, r, "/login", successFlash("You have been logged out."))
}

// safeNext returns target when it is a path on this site and "" otherwise.
func safeNext(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return ""
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return target
}
