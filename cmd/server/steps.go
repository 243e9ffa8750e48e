package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/trailway/trailway/internal/api/shared"
	"github.com/trailway/trailway/internal/auth"
	"github.com/trailway/trailway/internal/classify"
	"github.com/trailway/trailway/internal/domain"
	"github.com/trailway/trailway/internal/feature"
)

// Context keys shared between the demo steps and async tasks.
const (
	ctxKeyStartedAt   = "started_at"
	ctxKeyUserID      = "user_id"
	ctxKeyCredentials = "credentials"
	ctxKeyWidget      = "widget"
)

// registerFunctions binds every step, async task, initializer, and error
// hook the demo features tree refers to.
func (app *application) registerFunctions(reg *feature.Registry) {
	reg.RegisterInitializer("request-clock", app.initRequestClock)
	reg.RegisterErrorHook("login-failure", app.hookLoginFailure)

	reg.RegisterStep("validate-credentials", app.stepValidateCredentials)
	reg.RegisterStep("verify-password", app.stepVerifyPassword)
	reg.RegisterStep("issue-token", app.stepIssueToken)
	reg.RegisterStep("require-auth", app.stepRequireAuth)
	reg.RegisterStep("list-widgets", app.stepListWidgets)
	reg.RegisterStep("load-widget", app.stepLoadWidget)
	reg.RegisterStep("render-widget", app.stepRenderWidget)
	reg.RegisterStep("search-widgets", app.stepSearchWidgets)

	reg.RegisterTask("record-access", app.taskRecordAccess)
}

// initRequestClock stamps the Context with the request start time so
// async tasks can report handling latency.
func (app *application) initRequestClock(ctx context.Context, fc *feature.Context, r *http.Request) error {
	fc.Set(ctxKeyStartedAt, time.Now())
	return nil
}

// hookLoginFailure answers authorization failures itself so login
// errors stay uniform; everything else escalates to the default
// emitter.
func (app *application) hookLoginFailure(ctx context.Context, err error, fc *feature.Context, w http.ResponseWriter, r *http.Request) (*feature.RetryDirective, error) {
	if classify.Classify(err) == classify.KindAuthorization {
		shared.RespondWithJSON(w, r, http.StatusUnauthorized, map[string]any{
			"message":    "invalid credentials",
			"statusCode": http.StatusUnauthorized,
		})
	}
	return nil, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (app *application) stepValidateCredentials(ctx context.Context, fc *feature.Context, w http.ResponseWriter, r *http.Request) error {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		return domain.NewValidationError("request body must be JSON", nil)
	}

	fields := make(map[string]string)
	if creds.Email == "" {
		fields["email"] = "required field"
	}
	if creds.Password == "" {
		fields["password"] = "required field"
	}
	if len(fields) > 0 {
		return domain.NewValidationError("missing credentials", fields)
	}

	fc.Set(ctxKeyCredentials, creds)
	return nil
}

func (app *application) stepVerifyPassword(ctx context.Context, fc *feature.Context, w http.ResponseWriter, r *http.Request) error {
	v, _ := fc.Get(ctxKeyCredentials)
	creds, ok := v.(credentials)
	if !ok {
		return domain.NewValidationError("credentials missing from context", nil)
	}

	user, found := app.store.UserByEmail(creds.Email)
	if !found {
		return domain.NewUnauthorizedError("unknown user")
	}
	if err := auth.ComparePassword(user.PasswordHash, creds.Password); err != nil {
		return domain.NewUnauthorizedError("wrong password")
	}

	fc.Set(ctxKeyUserID, user.ID)
	return nil
}

func (app *application) stepIssueToken(ctx context.Context, fc *feature.Context, w http.ResponseWriter, r *http.Request) error {
	if app.tokens == nil {
		return domain.NewHTTPError("authentication is not configured", http.StatusServiceUnavailable)
	}

	userID := fc.GetString(ctxKeyUserID)
	user, found := app.store.UserByID(userID)
	if !found {
		return domain.NewUnauthorizedError("unknown user")
	}

	token, err := app.tokens.GenerateToken(user.UUID)
	if err != nil {
		return err
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"token": token})
	return nil
}

func (app *application) stepRequireAuth(ctx context.Context, fc *feature.Context, w http.ResponseWriter, r *http.Request) error {
	if app.tokens == nil {
		return domain.NewHTTPError("authentication is not configured", http.StatusServiceUnavailable)
	}

	header := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return domain.NewUnauthorizedError("missing bearer token")
	}

	claims, err := app.tokens.ValidateToken(tokenString)
	if err != nil {
		return domain.NewUnauthorizedError("invalid bearer token")
	}

	fc.Set(ctxKeyUserID, claims.UserID.String())
	return nil
}

func (app *application) stepListWidgets(ctx context.Context, fc *feature.Context, w http.ResponseWriter, r *http.Request) error {
	shared.RespondWithJSON(w, r, http.StatusOK, app.store.List())
	return nil
}

func (app *application) stepLoadWidget(ctx context.Context, fc *feature.Context, w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	widget, found := app.store.Widget(id)
	if !found {
		return domain.NewNotFoundError("widget not found")
	}
	fc.Set(ctxKeyWidget, widget)
	return nil
}

func (app *application) stepRenderWidget(ctx context.Context, fc *feature.Context, w http.ResponseWriter, r *http.Request) error {
	v, _ := fc.Get(ctxKeyWidget)
	widget, ok := v.(Widget)
	if !ok {
		return domain.NewNotFoundError("widget missing from context")
	}
	shared.RespondWithJSON(w, r, http.StatusOK, widget)
	return nil
}

func (app *application) stepSearchWidgets(ctx context.Context, fc *feature.Context, w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query().Get("q")
	shared.RespondWithJSON(w, r, http.StatusOK, app.store.Search(query))
	return nil
}

// taskRecordAccess runs after the response was sent; it records the
// access and logs the handling latency captured by the initializer.
func (app *application) taskRecordAccess(ctx context.Context, fc *feature.Context) error {
	app.store.RecordAccess()

	if v, ok := fc.Get(ctxKeyStartedAt); ok {
		if startedAt, ok := v.(time.Time); ok {
			app.logger.Info("access recorded",
				"user_id", fc.GetString(ctxKeyUserID),
				"elapsed", time.Since(startedAt))
		}
	}
	return nil
}

// Widget is the demo entity served by the widgets features.
type Widget struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// User is the demo account the login feature authenticates.
type User struct {
	ID           string
	UUID         uuid.UUID
	Email        string
	PasswordHash string
}

// widgetStore is the in-memory backing store for the demo features.
type widgetStore struct {
	mu       sync.RWMutex
	widgets  map[string]Widget
	users    map[string]User
	accesses int
}

func newWidgetStore() *widgetStore {
	s := &widgetStore{
		widgets: map[string]Widget{
			"w-1": {ID: "w-1", Name: "sprocket", Color: "red"},
			"w-2": {ID: "w-2", Name: "gadget", Color: "blue"},
			"w-3": {ID: "w-3", Name: "gizmo", Color: "green"},
		},
		users: make(map[string]User),
	}

	// Demo account; the hash is computed at startup so the plaintext
	// never ships in a comparable form.
	if hash, err := auth.HashPassword("trailway-demo-password"); err == nil {
		s.users["demo@example.com"] = User{
			ID:           "u-1",
			UUID:         uuid.New(),
			Email:        "demo@example.com",
			PasswordHash: hash,
		}
	}
	return s
}

func (s *widgetStore) List() []Widget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Widget, 0, len(s.widgets))
	for _, w := range s.widgets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *widgetStore) Widget(id string) (Widget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.widgets[id]
	return w, ok
}

func (s *widgetStore) Search(query string) []Widget {
	query = strings.ToLower(query)
	var out []Widget
	for _, w := range s.List() {
		if query == "" || strings.Contains(strings.ToLower(w.Name), query) {
			out = append(out, w)
		}
	}
	return out
}

func (s *widgetStore) UserByEmail(email string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[email]
	return u, ok
}

func (s *widgetStore) UserByID(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

func (s *widgetStore) RecordAccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accesses++
}
