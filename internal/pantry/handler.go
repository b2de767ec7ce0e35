package pantry

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/pantry/internal/recipe"
	"github.com/appetiteclub/pantry/internal/storage"
	"github.com/appetiteclub/pantry/pkg/enums/role"
)

const maxUploadBytes = 64 << 20

const formParseMessage = "Failed to parse form. Please try again."

// TemplateSource resolves a page template. Pages pull the shared head and
// foot partials in themselves and are executed by file name.
type TemplateSource interface {
	Get(name string) (*template.Template, error)
}

type Handler struct {
	logger      apt.Logger
	config      *apt.Config
	tlm         *telemetry.HTTP
	tmpl        TemplateSource
	repos       Repos
	sessions    *SessionStore
	media       storage.MediaStorage
	recipes     *recipe.Renderer
	publisher   events.Publisher
	audit       *AuditLogger
	assets      fs.FS
	exportDir   string
	baseURL     string
	sessionName string
	now         func() time.Time
}

type HandlerDeps struct {
	Repos     Repos
	Templates TemplateSource
	Sessions  *SessionStore
	Media     storage.MediaStorage
	Recipes   *recipe.Renderer
	Publisher events.Publisher
	// Assets is served under /assets/ when set.
	Assets fs.FS
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if config == nil {
		config = apt.NewConfig()
	}

	sessions := hd.Sessions
	if sessions == nil {
		ttl, _ := time.ParseDuration(config.GetStringOrDef("auth.session.ttl", "8h"))
		sessions = NewSessionStore(ttl)
	}

	media := hd.Media
	if media == nil {
		media = storage.NewNoopBackend()
	}

	recipes := hd.Recipes
	if recipes == nil {
		fontDir, _ := config.GetString("pdf.font.dir")
		recipes = recipe.NewRenderer(recipe.WithFontDir(fontDir))
	}

	baseURL, _ := config.GetString("public.base_url")

	return &Handler{
		logger:      logger,
		config:      config,
		tlm:         telemetry.NewHTTP(),
		tmpl:        hd.Templates,
		repos:       hd.Repos,
		sessions:    sessions,
		media:       media,
		recipes:     recipes,
		publisher:   hd.Publisher,
		audit:       NewAuditLogger(logger),
		assets:      hd.Assets,
		exportDir:   config.GetStringOrDef("static.dir", "static"),
		baseURL:     baseURL,
		sessionName: config.GetStringOrDef("auth.session.name", "pantry_session"),
		now:         time.Now,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	if h.assets != nil {
		r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(h.assets))))
	}

	r.Get("/", h.Root)
	r.Get("/login", h.ShowLogin)
	r.Post("/login", h.HandleLogin)
	r.Get("/logout", h.HandleLogout)
	r.Post("/logout", h.HandleLogout)
	r.Get("/register", h.ShowRegister)
	r.Post("/register", h.HandleRegister)

	r.Group(func(r chi.Router) {
		r.Use(h.SessionMiddleware)

		r.Get("/profile", h.Profile)
		r.Get("/uploads/{name}", h.ServeUpload)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireCapability(role.ManageCatalog))

			r.Get("/products", h.Products)
			r.Post("/products", h.CreateProduct)
			r.Get("/products/{id}/edit", h.EditProduct)
			r.Post("/products/{id}/edit", h.UpdateProduct)
			r.Post("/products/{id}/delete", h.DeleteProduct)

			r.Get("/locations", h.Locations)
			r.Post("/locations", h.CreateLocation)
			r.Get("/locations/{id}/edit", h.EditLocation)
			r.Post("/locations/{id}/edit", h.UpdateLocation)
			r.Post("/locations/{id}/delete", h.DeleteLocation)

			r.Get("/suppliers", h.Suppliers)
			r.Post("/suppliers", h.CreateSupplier)
			r.Get("/suppliers/{id}/edit", h.EditSupplier)
			r.Post("/suppliers/{id}/edit", h.UpdateSupplier)
			r.Post("/suppliers/{id}/delete", h.DeleteSupplier)
			r.Get("/suppliers/{id}/add_product", h.ShowAddSupplierProduct)
			r.Post("/suppliers/{id}/add_product", h.AddSupplierProduct)
			r.Post("/suppliers/{id}/products/{productID}/remove", h.RemoveSupplierProduct)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireCapability(role.ManageUsers))

			r.Get("/user_list", h.UserList)
			r.Post("/set_role/{id}", h.SetRole)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireCapability(role.AssignInventory))

			r.Get("/assign_inventory/{id}", h.ShowAssignInventory)
			r.Post("/assign_inventory/{id}", h.AssignInventory)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireCapability(role.ManageRecipes))

			r.Get("/dishes", h.Dishes)
			r.Get("/dishes/add", h.ShowAddDish)
			r.Post("/dishes/add", h.CreateDish)
			r.Get("/dishes/{id}", h.DishDetail)
			r.Get("/dishes/{id}/edit", h.EditDish)
			r.Post("/dishes/{id}/edit", h.UpdateDish)
			r.Post("/dishes/{id}/delete", h.DeleteDish)
			r.Get("/dishes/{id}/download", h.DownloadDish)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireCapability(role.TakeInventory))

			r.Get("/inventory", h.Inventory)
			r.Post("/inventory", h.SubmitInventory)
			r.Get("/download/{file_name}", h.Download)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireCapability(role.PlaceOrders))

			r.Get("/suppliers_orders", h.SuppliersOrders)
			r.Post("/download_order", h.DownloadOrder)
		})
	})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

// page builds the data map every template receives.
func (h *Handler) page(r *http.Request, title, tmpl string) map[string]interface{} {
	return map[string]interface{}{
		"Title":    title,
		"Template": tmpl,
		"Viewer":   ViewerFrom(r.Context()),
	}
}

// renderTemplate buffers the output so a failing template never leaves a
// half-written page behind a success status.
func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, status int, templateName string, data map[string]interface{}) {
	if h.tmpl == nil {
		h.log(r).Error("template source not configured", "template", templateName)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	tmpl, err := h.tmpl.Get(templateName)
	if err != nil {
		h.log(r).Error("error loading template", "error", err, "template", templateName)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, templateName, data); err != nil {
		h.log(r).Error("error rendering template", "error", err, "template", templateName)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// respond renders a Result. rerender redraws the originating page with an
// inline message for invalid and conflict outcomes.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, res Result, rerender func(status int, message string)) {
	switch res.Kind {
	case ResultRedirect:
		http.Redirect(w, r, res.Location, http.StatusSeeOther)
	case ResultInvalid, ResultConflict:
		if rerender == nil {
			http.Error(w, res.Message, res.Status())
			return
		}
		rerender(res.Status(), res.Message)
	case ResultNotFound:
		h.NotFound(w, r)
	default:
		h.log(r).Error("request failed", "error", res.Err, "path", r.URL.Path)
		h.renderError(w, r)
	}
}

// NotFound renders the 404 page. It is also installed as the router's
// not-found handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, "Not found", "not_found")
	h.renderTemplate(w, r, http.StatusNotFound, "not_found.html", data)
}

func (h *Handler) renderForbidden(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, "Forbidden", "forbidden")
	h.renderTemplate(w, r, http.StatusForbidden, "forbidden.html", data)
}

// parseForm answers a malformed request body with a 400 page and reports
// whether the handler may continue.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		h.log(r).Debug("failed to parse form", "error", err, "path", r.URL.Path)
		data := h.page(r, "Bad request", "error")
		data["Error"] = formParseMessage
		h.renderTemplate(w, r, http.StatusBadRequest, "error.html", data)
		return false
	}
	return true
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, "Error", "error")
	data["Error"] = "Something went wrong. Please try again."
	h.renderTemplate(w, r, http.StatusInternalServerError, "error.html", data)
}

func successMessage(r *http.Request, noun string) string {
	query := r.URL.Query()
	switch {
	case query.Get("created") == "1":
		return noun + " created successfully."
	case query.Get("updated") == "1":
		return noun + " updated successfully."
	case query.Get("deleted") == "1":
		return noun + " deleted successfully."
	}
	return ""
}

func (h *Handler) exportPath(name string) string {
	return filepath.Join(h.exportDir, name)
}

// Close stops the session store's cleanup loop.
func (h *Handler) Close() {
	h.sessions.Close()
}
