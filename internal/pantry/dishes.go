package pantry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/pantry/internal/recipe"
	"github.com/appetiteclub/pantry/pkg/event"
)

// localFiles is implemented by media backends that keep uploads on disk.
type localFiles interface {
	LocalPath(path string) string
}

type ingredientRow struct {
	ProductID uint
	Quantity  string
}

// blankIngredientRows is how many empty ingredient lines the form offers.
const blankIngredientRows = 3

type productChoice struct {
	ID       uint
	Name     string
	Selected bool
}

type ingredientLine struct {
	Choices  []productChoice
	Quantity string
}

type dishForm struct {
	ID          uint
	Name        string
	Steps       string
	ImagePath   string
	VideoPath   string
	Ingredients []ingredientRow
}

func (h *Handler) Dishes(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Dishes")
	defer finish()

	dishes, err := h.repos.DishRepo.List(r.Context())
	if err != nil {
		h.log(r).Error("cannot list dishes", "error", err)
		h.renderError(w, r)
		return
	}

	data := h.page(r, "Dishes", "dishes")
	data["Dishes"] = dishes
	data["Success"] = successMessage(r, "Dish")
	h.renderTemplate(w, r, http.StatusOK, "dishes.html", data)
}

func (h *Handler) DishDetail(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DishDetail")
	defer finish()

	dish, res := h.pathDish(r)
	if dish == nil {
		h.respond(w, r, res, nil)
		return
	}

	data := h.page(r, dish.Name, "dish_detail")
	data["Dish"] = dish
	data["Steps"] = recipe.Steps(dish.PreparationSteps)
	h.renderTemplate(w, r, http.StatusOK, "dish_detail.html", data)
}

func (h *Handler) ShowAddDish(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ShowAddDish")
	defer finish()

	h.renderDishForm(w, r, http.StatusOK, dishForm{}, "")
}

func (h *Handler) CreateDish(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateDish")
	defer finish()

	form, res := h.readDishForm(r)
	if res.Kind == ResultRedirect {
		res = h.saveDish(r, &form)
	}
	if res.Kind != ResultRedirect {
		h.removeMedia(r, form.ImagePath)
		h.removeMedia(r, form.VideoPath)
		form.ImagePath, form.VideoPath = "", ""
	}
	h.respond(w, r, res, func(status int, message string) {
		h.renderDishForm(w, r, status, form, message)
	})
}

func (h *Handler) EditDish(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.EditDish")
	defer finish()

	dish, res := h.pathDish(r)
	if dish == nil {
		h.respond(w, r, res, nil)
		return
	}

	form := dishForm{
		ID:        dish.ID,
		Name:      dish.Name,
		Steps:     dish.PreparationSteps,
		ImagePath: dish.ImagePath,
		VideoPath: dish.VideoPath,
	}
	for _, in := range dish.Ingredients {
		form.Ingredients = append(form.Ingredients, ingredientRow{
			ProductID: in.ProductID,
			Quantity:  fmt.Sprint(in.Quantity),
		})
	}
	h.renderDishForm(w, r, http.StatusOK, form, "")
}

func (h *Handler) UpdateDish(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateDish")
	defer finish()

	dish, res := h.pathDish(r)
	if dish == nil {
		h.respond(w, r, res, nil)
		return
	}

	form, res := h.readDishForm(r)
	uploadedImage, uploadedVideo := form.ImagePath, form.VideoPath
	form.ID = dish.ID
	if form.ImagePath == "" {
		form.ImagePath = dish.ImagePath
	}
	if form.VideoPath == "" {
		form.VideoPath = dish.VideoPath
	}
	if res.Kind == ResultRedirect {
		res = h.saveDish(r, &form)
	}
	if res.Kind == ResultRedirect {
		if dish.ImagePath != form.ImagePath {
			h.removeMedia(r, dish.ImagePath)
		}
		if dish.VideoPath != form.VideoPath {
			h.removeMedia(r, dish.VideoPath)
		}
	} else {
		h.removeMedia(r, uploadedImage)
		h.removeMedia(r, uploadedVideo)
		form.ImagePath, form.VideoPath = dish.ImagePath, dish.VideoPath
	}
	h.respond(w, r, res, func(status int, message string) {
		h.renderDishForm(w, r, status, form, message)
	})
}

func (h *Handler) DeleteDish(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteDish")
	defer finish()

	dish, res := h.pathDish(r)
	if dish == nil {
		h.respond(w, r, res, nil)
		return
	}

	if err := h.repos.DishRepo.Delete(r.Context(), dish.ID); err != nil {
		h.respond(w, r, FromError(err, "", ""), nil)
		return
	}
	h.removeMedia(r, dish.ImagePath)
	h.removeMedia(r, dish.VideoPath)
	http.Redirect(w, r, "/dishes?deleted=1", http.StatusSeeOther)
}

// DownloadDish renders the recipe sheet PDF of a dish.
func (h *Handler) DownloadDish(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DownloadDish")
	defer finish()

	dish, res := h.pathDish(r)
	if dish == nil {
		h.respond(w, r, res, nil)
		return
	}

	sheet := recipe.Sheet{
		Name:      dish.Name,
		ImagePath: h.mediaPath(dish.ImagePath),
		StepsHTML: dish.PreparationSteps,
		URL:       fmt.Sprintf("%s/dishes/%d", h.publicBaseURL(r), dish.ID),
	}
	for _, in := range dish.Ingredients {
		ingredient := recipe.Ingredient{Quantity: in.Quantity}
		if in.Product != nil {
			ingredient.Name = in.Product.Name
			ingredient.Unit = in.Product.MeasurementName()
		}
		sheet.Ingredients = append(sheet.Ingredients, ingredient)
	}

	var buf bytes.Buffer
	if err := h.recipes.Render(&buf, sheet); err != nil {
		h.respond(w, r, Failure(err), nil)
		return
	}

	viewer := ViewerFrom(r.Context())
	h.audit.LogExport(r.Context(), viewer.UserID, "recipe", dish.Name, len(sheet.Ingredients))
	h.publishExport(r.Context(), event.ExportEvent{
		EventType:       event.EventRecipeRendered,
		FileName:        dish.Name + ".pdf",
		Rows:            len(sheet.Ingredients),
		UserID:          viewer.UserID,
		EstablishmentID: viewer.EstablishmentID,
		DishID:          dish.ID,
	})

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", recipe.AttachmentDisposition(dish.Name))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// ServeUpload streams an uploaded dish image or video.
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rc, err := h.media.Open(r.Context(), "uploads/"+name)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, name, h.now(), rs)
		return
	}
	io.Copy(w, rc)
}

func (h *Handler) pathDish(r *http.Request) (*Dish, Result) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		return nil, NotFound()
	}
	dish, err := h.repos.DishRepo.Get(r.Context(), id)
	if err != nil {
		return nil, FromError(err, "", "")
	}
	return dish, Result{}
}

// readDishForm parses the multipart dish form and stores any uploaded media.
// A redirect result means the form is ready to be saved.
func (h *Handler) readDishForm(r *http.Request) (dishForm, Result) {
	err := r.ParseMultipartForm(maxUploadBytes)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return dishForm{}, Invalid("The upload is too large or malformed.")
	}

	form := dishForm{
		Name:  strings.TrimSpace(r.FormValue("name")),
		Steps: strings.TrimSpace(r.FormValue("preparation_steps")),
	}
	ids := r.Form["product_id"]
	quantities := r.Form["quantity"]
	for i, raw := range ids {
		row := ingredientRow{}
		if id, err := parseID(raw); err == nil {
			row.ProductID = id
		}
		if i < len(quantities) {
			row.Quantity = strings.TrimSpace(quantities[i])
		}
		form.Ingredients = append(form.Ingredients, row)
	}

	if form.Name == "" {
		return form, Invalid("Dish name is required.")
	}

	if form.ImagePath, err = h.storeUpload(r, "image"); err != nil {
		return form, Failure(err)
	}
	if form.VideoPath, err = h.storeUpload(r, "video"); err != nil {
		return form, Failure(err)
	}
	return form, Redirect("")
}

// storeUpload saves the named multipart file, returning "" when none was sent.
func (h *Handler) storeUpload(r *http.Request, field string) (string, error) {
	if r.MultipartForm == nil {
		return "", nil
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("cannot read %s upload: %w", field, err)
	}
	defer file.Close()
	if header.Filename == "" {
		return "", nil
	}
	return h.saveUpload(r.Context(), header, file)
}

func (h *Handler) saveUpload(ctx context.Context, header *multipart.FileHeader, file io.Reader) (string, error) {
	path, err := h.media.Save(ctx, header.Filename, file)
	if err != nil {
		return "", fmt.Errorf("cannot store upload: %w", err)
	}
	return path, nil
}

// saveDish keeps one ingredient per known product with a parseable nonzero
// quantity; other rows are dropped.
func (h *Handler) saveDish(r *http.Request, form *dishForm) Result {
	ctx := r.Context()
	dish := &Dish{
		ID:               form.ID,
		Name:             form.Name,
		ImagePath:        form.ImagePath,
		VideoPath:        form.VideoPath,
		PreparationSteps: form.Steps,
	}

	for _, row := range form.Ingredients {
		if row.ProductID == 0 {
			continue
		}
		q, err := parseQuantity(row.Quantity)
		if err != nil || q == 0 {
			continue
		}
		if _, err := h.repos.ProductRepo.Get(ctx, row.ProductID); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return Failure(err)
			}
			continue
		}
		dish.Ingredients = append(dish.Ingredients, DishProduct{ProductID: row.ProductID, Quantity: q})
	}

	var err error
	if dish.ID == 0 {
		err = h.repos.DishRepo.Create(ctx, dish)
	} else {
		err = h.repos.DishRepo.Save(ctx, dish)
	}
	if err != nil {
		return FromError(err, "", "Choose valid products.")
	}

	if form.ID == 0 {
		return Redirect("/dishes?created=1")
	}
	return Redirect(fmt.Sprintf("/dishes/%d", dish.ID))
}

func (h *Handler) removeMedia(r *http.Request, path string) {
	if path == "" {
		return
	}
	if err := h.media.Delete(r.Context(), path); err != nil {
		h.log(r).Error("cannot delete upload", "error", err, "path", path)
	}
}

// mediaPath resolves a stored upload to a file the PDF renderer can read.
func (h *Handler) mediaPath(path string) string {
	if path == "" {
		return ""
	}
	if lf, ok := h.media.(localFiles); ok {
		if full := lf.LocalPath(path); full != "" {
			return full
		}
	}
	return path
}

// publicBaseURL is the origin QR codes point at. A forwarded scheme is
// trusted only when it is http or https.
func (h *Handler) publicBaseURL(r *http.Request) string {
	if h.baseURL != "" {
		return strings.TrimRight(h.baseURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	switch proto := strings.ToLower(r.Header.Get("X-Forwarded-Proto")); proto {
	case "http", "https":
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func (h *Handler) renderDishForm(w http.ResponseWriter, r *http.Request, status int, form dishForm, message string) {
	ctx := r.Context()
	products, err := h.repos.ProductRepo.ListByEstablishment(ctx, ViewerFrom(ctx).EstablishmentID)
	if err != nil {
		h.log(r).Error("cannot list products", "error", err)
		h.renderError(w, r)
		return
	}

	known := make(map[uint]bool, len(products))
	for _, p := range products {
		known[p.ID] = true
	}
	for _, row := range form.Ingredients {
		if row.ProductID == 0 || known[row.ProductID] {
			continue
		}
		if p, err := h.repos.ProductRepo.Get(ctx, row.ProductID); err == nil {
			products = append(products, p)
			known[p.ID] = true
		}
	}

	title, tmpl := "Add dish", "dish_form"
	action := "/dishes/add"
	if form.ID != 0 {
		title = "Edit dish"
		action = fmt.Sprintf("/dishes/%d/edit", form.ID)
	}

	rows := append([]ingredientRow{}, form.Ingredients...)
	for i := 0; i < blankIngredientRows; i++ {
		rows = append(rows, ingredientRow{})
	}
	lines := make([]ingredientLine, 0, len(rows))
	for _, row := range rows {
		line := ingredientLine{Quantity: row.Quantity}
		for _, p := range products {
			line.Choices = append(line.Choices, productChoice{ID: p.ID, Name: p.Name, Selected: p.ID == row.ProductID})
		}
		lines = append(lines, line)
	}

	data := h.page(r, title, tmpl)
	data["Form"] = form
	data["Action"] = action
	data["Rows"] = lines
	data["Error"] = message
	h.renderTemplate(w, r, status, "dish_form.html", data)
}
