// Package handlers implements the HTML endpoints of the ledger.
package handlers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/expense"
	"expense-ledger/internal/middleware"
	"expense-ledger/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SessionCookieName is the name of the session cookie.
const SessionCookieName = "session"

const genericErrorMessage = "An error occurred. Please try again."

var views = []string{
	"index.html",
	"login.html",
	"register.html",
	"dashboard.html",
	"expense_form.html",
}

// Options configures rendering and cookies.
type Options struct {
	Templates    fs.FS
	SecretKey    []byte
	SecureCookie bool
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	auth         *auth.Service
	expenses     *expense.Service
	log          logrus.FieldLogger
	pages        map[string]*template.Template
	secret       []byte
	secureCookie bool
}

// New parses every page template and returns ready handlers. Without a
// secret key a random one is generated, so flash cookies do not survive
// a restart.
func New(authSvc *auth.Service, expenseSvc *expense.Service, log logrus.FieldLogger, opts Options) (*Handlers, error) {
	pages, err := parseTemplates(opts.Templates)
	if err != nil {
		return nil, err
	}

	secret := opts.SecretKey
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate flash secret: %w", err)
		}
	}

	return &Handlers{
		auth:         authSvc,
		expenses:     expenseSvc,
		log:          log.WithField("component", "handlers"),
		pages:        pages,
		secret:       secret,
		secureCookie: opts.SecureCookie,
	}, nil
}

var amountPrinter = message.NewPrinter(language.English)

var templateFuncs = template.FuncMap{
	"money":  formatMoney,
	"amount": formatAmount,
}

// formatAmount renders an amount for a form field without rounding it.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatMoney renders an amount with thousands separators, e.g. $1,234.50.
func formatMoney(v float64) string {
	return amountPrinter.Sprintf("$%.2f", v)
}

func parseTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(views))
	for _, view := range views {
		tmpl, err := template.New("base.html").Funcs(templateFuncs).ParseFS(fsys, "base.html", view)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", view, err)
		}
		pages[view] = tmpl
	}
	return pages, nil
}

// Routes registers every page on r.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/logout", h.requireIdentity(h.Logout))
	r.Post("/logout", h.requireIdentity(h.Logout))
	r.Get("/dashboard", h.requireIdentity(h.Dashboard))
	r.Get("/add_expense", h.requireIdentity(h.AddExpenseForm))
	r.Post("/add_expense", h.requireIdentity(h.AddExpense))
	r.Get("/edit_expense/{id}", h.requireIdentity(h.EditExpenseForm))
	r.Post("/edit_expense/{id}", h.requireIdentity(h.EditExpense))
	r.Post("/delete_expense/{id}", h.requireIdentity(h.DeleteExpense))
}

type identityHandler func(w http.ResponseWriter, r *http.Request, id auth.Identity)

// requireIdentity resolves the session and hands the identity to next.
// Anonymous visitors are sent to the login page with a way back.
func (h *Handlers) requireIdentity(next identityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := h.currentIdentity(w, r)
		if !id.Authenticated() {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next(w, r, id)
	}
}

// currentIdentity resolves the session cookie, refreshing it when the
// session was renewed and clearing it when the session is gone.
func (h *Handlers) currentIdentity(w http.ResponseWriter, r *http.Request) auth.Identity {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return auth.Anonymous()
	}

	id, renewedUntil, err := h.auth.ResolveSession(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, auth.ErrNoSession) {
			h.requestLog(r).WithError(err).Error("resolve session failed")
		}
		h.clearSessionCookie(w)
		return auth.Anonymous()
	}
	if !renewedUntil.IsZero() {
		h.setSessionCookie(w, cookie.Value, renewedUntil)
	}
	return id
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// Page carries what the base layout needs on every view.
type Page struct {
	Flash    Flash
	Username string
}

func pageFor(id auth.Identity, flash Flash) Page {
	return Page{Flash: flash, Username: id.Username}
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, view string, data any) {
	tmpl, ok := h.pages[view]
	if !ok {
		h.requestLog(r).WithField("view", view).Error("unknown template")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	target := "base.html"
	if r.Header.Get("HX-Request") == "true" {
		target = "content"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, target, data); err != nil {
		h.requestLog(r).WithError(err).WithField("view", view).Error("template execution failed")
	}
}

func (h *Handlers) requestLog(r *http.Request) logrus.FieldLogger {
	return h.log.WithField("request_id", middleware.GetRequestID(r.Context()))
}

// parseExpenseID parses the {id} path segment. ok is false for anything that is
// not a positive integer.
func parseExpenseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// formInput reads the expense fields from a submitted form.
func formInput(r *http.Request) expense.Input {
	return expense.Input{
		Description: r.PostFormValue("description"),
		Amount:      r.PostFormValue("amount"),
		Category:    r.PostFormValue("category"),
		Date:        r.PostFormValue("date"),
	}
}

func formattedDate(e *models.Expense) string {
	if e == nil || e.Date.IsZero() {
		return ""
	}
	return e.Date.Format(models.DateLayout)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
