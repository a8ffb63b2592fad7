package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/BSoup1/flashcards/internal/apperror"
	"github.com/BSoup1/flashcards/internal/auth"
	"github.com/BSoup1/flashcards/internal/service"
)

const oauthStateCookie = "oauth_state"

const msgGitHubFailed = "GitHub sign-in failed. Please try again."

// GitHubHandler runs the optional "Log in with GitHub" flow. It is only
// routed when GitHub OAuth credentials are configured.
type GitHubHandler struct {
	github   *auth.GitHubProvider
	users    *service.AuthService
	sessions *auth.SessionManager
	logger   *slog.Logger
}

func NewGitHubHandler(
	github *auth.GitHubProvider,
	users *service.AuthService,
	sessions *auth.SessionManager,
	logger *slog.Logger,
) *GitHubHandler {
	return &GitHubHandler{
		github:   github,
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// HandleLogin sends the browser to GitHub's consent page. A random state
// value is kept in a short-lived cookie and checked on the callback.
//
// HTTP: GET /auth/github/login
func (h *GitHubHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback finishes the flow: check state, exchange the code, find
// or create the account and start a session.
//
// HTTP: GET /auth/github/callback?code=…&state=…
func (h *GitHubHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("github callback: state mismatch")
		h.fail(w, r, msgGitHubFailed)
		return
	}

	// single use
	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", errParam))
		h.fail(w, r, "GitHub sign-in was cancelled.")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.fail(w, r, msgGitHubFailed)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		h.fail(w, r, msgGitHubFailed)
		return
	}

	user, err := h.users.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			h.fail(w, r, appErr.Message)
			return
		}
		h.logger.Error("github callback: sign-in failed", slog.String("error", err.Error()))
		h.fail(w, r, msgGitHubFailed)
		return
	}

	if err := h.sessions.Start(r.Context(), w, r, user.ID); err != nil {
		h.logger.Error("starting session", slog.String("userID", user.ID), slog.String("error", err.Error()))
		h.fail(w, r, msgGitHubFailed)
		return
	}
	http.Redirect(w, r, homeWithMessage(MsgLoggedIn), http.StatusSeeOther)
}

func (h *GitHubHandler) fail(w http.ResponseWriter, r *http.Request, msg string) {
	setFlash(w, Flash{Message: msg, Category: CategoryDanger})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
