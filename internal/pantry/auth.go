package pantry

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/appetiteclub/pantry/pkg/enums/role"
)

const (
	minUsernameLen = 4
	maxUsernameLen = 25
)

type registerForm struct {
	Username        string
	Role            string
	EstablishmentID string
}

// Root sends signed-in users to the product list and everyone else to login.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	if _, err := h.currentSession(r); err == nil {
		http.Redirect(w, r, "/products", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ShowLogin")
	defer finish()

	if _, err := h.currentSession(r); err == nil {
		http.Redirect(w, r, "/products", http.StatusSeeOther)
		return
	}

	data := h.page(r, "Sign in", "login")
	data["HideNav"] = true
	if r.URL.Query().Get("registered") == "1" {
		data["Success"] = "Registration complete. You can sign in now."
	}
	h.renderTemplate(w, r, http.StatusOK, "login.html", data)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.HandleLogin")
	defer finish()

	renderError := func(status int, username, message string) {
		data := h.page(r, "Sign in", "login")
		data["HideNav"] = true
		data["Username"] = username
		data["Error"] = message
		h.renderTemplate(w, r, status, "login.html", data)
	}

	if err := r.ParseForm(); err != nil {
		h.log(r).Debug("failed to parse form", "error", err)
		renderError(http.StatusBadRequest, "", formParseMessage)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		renderError(http.StatusUnprocessableEntity, username, "Username and password are required.")
		return
	}

	user, err := h.repos.UserRepo.GetByUsername(r.Context(), username)
	if err != nil && !errors.Is(err, ErrNotFound) {
		h.log(r).Error("cannot load user", "error", err)
		renderError(http.StatusInternalServerError, username, "Something went wrong. Please try again.")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		h.audit.LogLogin(r.Context(), 0, username, false)
		renderError(http.StatusUnauthorized, username, "Invalid username or password")
		return
	}

	session := &Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(h.sessions.TTL()),
	}
	if err := h.sessions.Save(session); err != nil {
		h.log(r).Error("failed to save session", "error", err)
		renderError(http.StatusInternalServerError, username, "Session error. Please try again.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessions.TTL().Seconds()),
	})

	h.audit.LogLogin(r.Context(), user.ID, user.Username, true)
	http.Redirect(w, r, "/products", http.StatusSeeOther)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.HandleLogout")
	defer finish()

	if session, err := h.currentSession(r); err == nil {
		h.sessions.Delete(session.ID)
		h.audit.LogLogout(r.Context(), session.UserID)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ShowRegister")
	defer finish()

	h.renderRegister(w, r, http.StatusOK, registerForm{}, "")
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.HandleRegister")
	defer finish()

	if err := r.ParseForm(); err != nil {
		h.renderRegister(w, r, http.StatusBadRequest, registerForm{}, formParseMessage)
		return
	}

	form := registerForm{
		Username:        strings.TrimSpace(r.FormValue("username")),
		Role:            strings.TrimSpace(r.FormValue("role")),
		EstablishmentID: strings.TrimSpace(r.FormValue("establishment")),
	}

	res := h.register(r.Context(), form, r.FormValue("password"), r.FormValue("confirm_password"))
	h.respond(w, r, res, func(status int, message string) {
		h.renderRegister(w, r, status, form, message)
	})
}

func (h *Handler) register(ctx context.Context, form registerForm, password, confirm string) Result {
	n := utf8.RuneCountInString(form.Username)
	if n < minUsernameLen || n > maxUsernameLen {
		return Invalid("Username must be between 4 and 25 characters.")
	}
	if password == "" {
		return Invalid("Password is required.")
	}
	if password != confirm {
		return Invalid("Passwords must match.")
	}

	ro := role.ByName(form.Role)
	if ro == nil || ro.IsAdmin() {
		return Invalid("Choose a valid role.")
	}

	estID, err := strconv.ParseUint(form.EstablishmentID, 10, 64)
	if err != nil {
		return Invalid("Choose an establishment.")
	}
	if _, err := h.repos.EstablishmentRepo.Get(ctx, uint(estID)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Invalid("Choose an establishment.")
		}
		return Failure(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Failure(err)
	}

	user := &User{
		Username:        form.Username,
		PasswordHash:    string(hash),
		Role:            *ro,
		EstablishmentID: uint(estID),
	}
	if err := h.repos.UserRepo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Invalid("This username is already taken.")
		}
		return Failure(err)
	}

	h.audit.LogRegistration(ctx, user.ID, user.Username)
	return Redirect("/login?registered=1")
}

func (h *Handler) renderRegister(w http.ResponseWriter, r *http.Request, status int, form registerForm, message string) {
	data := h.page(r, "Register", "register")
	data["HideNav"] = true
	data["Form"] = form
	data["Roles"] = role.Kitchen
	data["Error"] = message

	establishments, err := h.repos.EstablishmentRepo.List(r.Context())
	if err != nil {
		h.log(r).Error("cannot list establishments", "error", err)
		h.renderError(w, r)
		return
	}
	data["Establishments"] = establishments

	h.renderTemplate(w, r, status, "register.html", data)
}

// Profile shows the viewer's own account and assigned locations.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Profile")
	defer finish()

	viewer := ViewerFrom(r.Context())
	assignments, err := h.repos.AssignmentRepo.ListByUser(r.Context(), viewer.UserID)
	if err != nil {
		h.log(r).Error("cannot list assignments", "error", err)
		h.renderError(w, r)
		return
	}

	data := h.page(r, "Profile", "profile")
	data["Locations"] = assignedLocations(assignments)
	h.renderTemplate(w, r, http.StatusOK, "profile.html", data)
}

func (h *Handler) currentSession(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(h.sessionName)
	if err != nil || cookie.Value == "" {
		return nil, ErrSessionNotFound
	}
	return h.sessions.Get(cookie.Value)
}

// SessionMiddleware validates the session for protected routes and puts the
// viewer into the request context.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := h.currentSession(r)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		user, err := h.repos.UserRepo.Get(r.Context(), session.UserID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				h.log(r).Error("cannot load session user", "error", err, "user_id", session.UserID)
			}
			h.sessions.Delete(session.ID)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeySession, session)
		ctx = WithViewer(ctx, NewViewer(user))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireCapability answers 403 when the viewer's role lacks c.
func (h *Handler) RequireCapability(c role.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := ViewerFrom(r.Context())
			if viewer == nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !viewer.Can(c) {
				h.log(r).Info("capability denied", "user_id", viewer.UserID, "capability", string(c))
				h.renderForbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// assignedLocations deduplicates the locations of a user's assignments,
// keeping first-seen order.
func assignedLocations(assignments []*Assignment) []*Location {
	seen := make(map[uint]bool, len(assignments))
	var result []*Location
	for _, a := range assignments {
		if a.Location == nil || seen[a.LocationID] {
			continue
		}
		seen[a.LocationID] = true
		result = append(result, a.Location)
	}
	return result
}
