package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/BSoup1/flashcards/internal/apperror"
	"github.com/BSoup1/flashcards/internal/auth"
	"github.com/BSoup1/flashcards/internal/service"
)

// Template file names.
const (
	PageHome     = "home.html"
	PageLogin    = "login.html"
	PageRegister = "register.html"
)

// Status messages carried to the home page in the query string.
const (
	MsgLoggedIn   = "You have logged in!"
	MsgRegistered = "You have registered successfully!"
)

// PageHandler serves the HTML pages and the form-based session flow.
type PageHandler struct {
	render   *Renderer
	users    *service.AuthService
	cards    *service.CardService
	sessions *auth.SessionManager
	github   bool
	logger   *slog.Logger
}

func NewPageHandler(
	render *Renderer,
	users *service.AuthService,
	cards *service.CardService,
	sessions *auth.SessionManager,
	githubEnabled bool,
	logger *slog.Logger,
) *PageHandler {
	return &PageHandler{
		render:   render,
		users:    users,
		cards:    cards,
		sessions: sessions,
		github:   githubEnabled,
		logger:   logger,
	}
}

// HandleHome renders the signed-in user's cards.
//
// HTTP: GET /  (anonymous callers are redirected to /login by RequireUser)
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// the account was removed while the session was alive
			_ = h.sessions.End(r.Context(), w, r)
			RequireLoginPage(w, r)
			return
		}
		h.logger.Error("loading home user", slog.String("userID", userID), slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	cards, err := h.cards.ListCards(r.Context(), userID)
	if err != nil {
		h.logger.Error("loading home cards", slog.String("userID", userID), slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	flash := flashFromQuery(r)
	if pending := popFlash(w, r); flash == nil {
		flash = pending
	}

	h.render.Render(w, http.StatusOK, PageHome, PageData{
		Title: "Your flashcards",
		Email: user.Email,
		Flash: flash,
		Cards: cards,
	})
}

// HandleLoginForm renders the login form.
//
// HTTP: GET /login
func (h *PageHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, PageLogin, PageData{
		Title:  "Log in",
		Flash:  popFlash(w, r),
		GitHub: h.github,
	})
}

// HandleLogin checks the posted credentials and starts a session.
//
// HTTP: POST /login  (form fields: email, password)
func (h *PageHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	email, password := r.PostFormValue("email"), r.PostFormValue("password")

	user, err := h.users.Login(r.Context(), email, password)
	if err != nil {
		h.formError(w, PageLogin, "Log in", email, err)
		return
	}

	if err := h.sessions.Start(r.Context(), w, r, user.ID); err != nil {
		h.logger.Error("starting session", slog.String("userID", user.ID), slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, homeWithMessage(MsgLoggedIn), http.StatusSeeOther)
}

// HandleRegisterForm renders the registration form.
//
// HTTP: GET /register
func (h *PageHandler) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, PageRegister, PageData{
		Title: "Register",
		Flash: popFlash(w, r),
	})
}

// HandleRegister creates an account and signs it in. A taken email
// re-renders the form with the conflict message.
//
// HTTP: POST /register  (form fields: email, password)
func (h *PageHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	email, password := r.PostFormValue("email"), r.PostFormValue("password")

	user, err := h.users.Register(r.Context(), email, password)
	if err != nil {
		h.formError(w, PageRegister, "Register", email, err)
		return
	}

	if err := h.sessions.Start(r.Context(), w, r, user.ID); err != nil {
		h.logger.Error("starting session", slog.String("userID", user.ID), slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, homeWithMessage(MsgRegistered), http.StatusSeeOther)
}

// HandleLogout ends the session, whether or not there is one.
//
// HTTP: GET /logout
func (h *PageHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(r.Context(), w, r); err != nil {
		h.logger.Error("ending session", slog.String("error", err.Error()))
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// formError re-renders a form with the failure as a flash message.
func (h *PageHandler) formError(w http.ResponseWriter, page, title, email string, err error) {
	status, category, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("form submission failed", slog.String("page", page), slog.String("error", err.Error()))
	}
	h.render.Render(w, status, page, PageData{
		Title:     title,
		Flash:     &Flash{Message: message, Category: category},
		FormEmail: email,
		GitHub:    h.github && page == PageLogin,
	})
}

func homeWithMessage(msg string) string {
	q := url.Values{}
	q.Set("message", msg)
	q.Set("category", CategorySuccess)
	return "/?" + q.Encode()
}
