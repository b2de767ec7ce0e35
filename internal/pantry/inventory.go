package pantry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/pantry/internal/sheet"
	"github.com/appetiteclub/pantry/pkg/event"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	inventoryDate   = "02.01.06"
)

// inventoryGroup is one assigned location with the products counted there.
type inventoryGroup struct {
	Location *Location
	Products []*Product
}

func (h *Handler) Inventory(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Inventory")
	defer finish()

	groups, err := h.inventoryGroups(r.Context(), ViewerFrom(r.Context()))
	if err != nil {
		h.respond(w, r, Failure(err), nil)
		return
	}

	message := ""
	if r.URL.Query().Get("missing") == "1" {
		message = "File not found"
	}
	h.renderInventory(w, r, http.StatusOK, groups, nil, message)
}

// SubmitInventory writes the counted quantities of the viewer's assigned
// locations to a spreadsheet and redirects to its download.
func (h *Handler) SubmitInventory(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SubmitInventory")
	defer finish()

	ctx := r.Context()
	viewer := ViewerFrom(ctx)
	groups, err := h.inventoryGroups(ctx, viewer)
	if err != nil {
		h.respond(w, r, Failure(err), nil)
		return
	}

	if !h.parseForm(w, r) {
		return
	}
	rows, res := inventoryRows(groups, r.Form)
	if res.Kind == ResultRedirect {
		res = h.writeInventory(ctx, viewer, rows)
	}
	h.respond(w, r, res, func(status int, message string) {
		h.renderInventory(w, r, status, groups, r.Form, message)
	})
}

// inventoryRows keeps every product with a nonzero quantity. Blank means no
// count; a malformed number fails the whole submission.
func inventoryRows(groups []inventoryGroup, form url.Values) ([]sheet.InventoryRow, Result) {
	var rows []sheet.InventoryRow
	for _, g := range groups {
		for _, p := range g.Products {
			q, err := parseQuantity(form.Get(quantityField(p.ID)))
			if err != nil {
				return nil, Invalid("Invalid quantity for " + p.Name)
			}
			if q == 0 {
				continue
			}
			rows = append(rows, sheet.InventoryRow{
				Product:  p.Name,
				Location: g.Location.Name,
				Unit:     p.MeasurementName(),
				Quantity: q,
			})
		}
	}
	return rows, Redirect("")
}

func (h *Handler) writeInventory(ctx context.Context, viewer *Viewer, rows []sheet.InventoryRow) Result {
	name := sheet.InventoryFileName(viewer.EstablishmentName, h.now(), viewer.UserID)
	if err := h.writeExport(name, func(f *os.File) error { return sheet.WriteInventory(f, rows) }); err != nil {
		return Failure(err)
	}

	h.audit.LogExport(ctx, viewer.UserID, "inventory", name, len(rows))
	h.publishExport(ctx, event.ExportEvent{
		EventType:       event.EventInventoryExported,
		FileName:        name,
		Rows:            len(rows),
		UserID:          viewer.UserID,
		EstablishmentID: viewer.EstablishmentID,
	})
	return Redirect("/download/" + url.PathEscape(name))
}

// Download streams a generated spreadsheet from the exports directory.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Download")
	defer finish()

	name, err := url.PathUnescape(chi.URLParam(r, "file_name"))
	if err != nil || !safeFileName(name) {
		http.Redirect(w, r, "/inventory?missing=1", http.StatusSeeOther)
		return
	}
	if !h.serveExport(w, r, name) {
		http.Redirect(w, r, "/inventory?missing=1", http.StatusSeeOther)
	}
}

// serveExport reports false when the file does not exist.
func (h *Handler) serveExport(w http.ResponseWriter, r *http.Request, name string) bool {
	f, err := os.Open(h.exportPath(name))
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", attachmentDisposition(name))
	http.ServeContent(w, r, name, info.ModTime(), f)
	return true
}

func (h *Handler) writeExport(name string, write func(f *os.File) error) error {
	if err := os.MkdirAll(h.exportDir, 0o755); err != nil {
		return fmt.Errorf("cannot create exports directory: %w", err)
	}
	f, err := os.Create(h.exportPath(name))
	if err != nil {
		return fmt.Errorf("cannot create export: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	return f.Close()
}

func (h *Handler) inventoryGroups(ctx context.Context, viewer *Viewer) ([]inventoryGroup, error) {
	assignments, err := h.repos.AssignmentRepo.ListByUser(ctx, viewer.UserID)
	if err != nil {
		return nil, err
	}
	locations := assignedLocations(assignments)
	if len(locations) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(locations))
	for _, l := range locations {
		ids = append(ids, l.ID)
	}
	products, err := h.repos.ProductRepo.ListByLocations(ctx, ids)
	if err != nil {
		return nil, err
	}

	byLocation := make(map[uint][]*Product, len(locations))
	for _, p := range products {
		if p.EstablishmentID != viewer.EstablishmentID {
			continue
		}
		byLocation[p.LocationID] = append(byLocation[p.LocationID], p)
	}

	groups := make([]inventoryGroup, 0, len(locations))
	for _, l := range locations {
		groups = append(groups, inventoryGroup{Location: l, Products: byLocation[l.ID]})
	}
	return groups, nil
}

func (h *Handler) renderInventory(w http.ResponseWriter, r *http.Request, status int, groups []inventoryGroup, values url.Values, message string) {
	data := h.page(r, "Inventory", "inventory")
	data["Groups"] = groups
	data["Date"] = h.now().Format(inventoryDate)
	data["Values"] = quantityValues(groups, values)
	data["Error"] = message
	h.renderTemplate(w, r, status, "inventory.html", data)
}

// quantityValues returns the submitted quantities keyed by product id so a
// re-rendered form keeps what the user typed.
func quantityValues(groups []inventoryGroup, values url.Values) map[uint]string {
	result := make(map[uint]string)
	if values == nil {
		return result
	}
	for _, g := range groups {
		for _, p := range g.Products {
			result[p.ID] = values.Get(quantityField(p.ID))
		}
	}
	return result
}

func safeFileName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

func attachmentDisposition(name string) string {
	return "attachment; filename*=UTF-8''" + url.PathEscape(name)
}
