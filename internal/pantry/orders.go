package pantry

import (
	"net/http"
	"net/url"
	"os"

	"github.com/appetiteclub/pantry/internal/sheet"
	"github.com/appetiteclub/pantry/pkg/event"
)

const orderDate = "02.01"

func (h *Handler) SuppliersOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SuppliersOrders")
	defer finish()

	h.renderOrders(w, r, http.StatusOK, 0, nil, "")
}

// DownloadOrder writes the supplier order spreadsheet and streams it back.
// A submission without quantities returns to the order page.
func (h *Handler) DownloadOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DownloadOrder")
	defer finish()

	ctx := r.Context()
	viewer := ViewerFrom(ctx)

	if !h.parseForm(w, r) {
		return
	}
	supplierID, err := parseID(r.FormValue("supplier_id"))
	if err != nil {
		h.NotFound(w, r)
		return
	}
	supplier, err := h.repos.SupplierRepo.Get(ctx, supplierID)
	if err != nil {
		h.respond(w, r, FromError(err, "", ""), nil)
		return
	}

	rows, res := orderRows(viewerSupplierProducts(viewer, supplier), r.Form)
	if res.Kind != ResultRedirect {
		h.respond(w, r, res, func(status int, message string) {
			h.renderOrders(w, r, status, supplier.ID, r.Form, message)
		})
		return
	}
	if len(rows) == 0 {
		http.Redirect(w, r, "/suppliers_orders", http.StatusSeeOther)
		return
	}

	name := sheet.OrderFileName(supplier.Name, viewer.EstablishmentName, h.now())
	if err := h.writeExport(name, func(f *os.File) error { return sheet.WriteOrder(f, rows) }); err != nil {
		h.respond(w, r, Failure(err), nil)
		return
	}

	h.audit.LogExport(ctx, viewer.UserID, "order", name, len(rows))
	h.publishExport(ctx, event.ExportEvent{
		EventType:       event.EventOrderExported,
		FileName:        name,
		Rows:            len(rows),
		UserID:          viewer.UserID,
		EstablishmentID: viewer.EstablishmentID,
		SupplierID:      supplier.ID,
	})

	if !h.serveExport(w, r, name) {
		h.respond(w, r, Failure(os.ErrNotExist), nil)
	}
}

func orderRows(products []Product, form url.Values) ([]sheet.OrderRow, Result) {
	var rows []sheet.OrderRow
	for _, p := range products {
		q, err := parseQuantity(form.Get(quantityField(p.ID)))
		if err != nil {
			return nil, Invalid("Invalid quantity for " + p.Name)
		}
		if q == 0 {
			continue
		}
		rows = append(rows, sheet.OrderRow{
			Product:  p.Name,
			Unit:     p.MeasurementName(),
			Quantity: q,
		})
	}
	return rows, Redirect("")
}

type orderSupplier struct {
	Supplier *Supplier
	Products []Product
	Values   map[uint]string
}

func (h *Handler) renderOrders(w http.ResponseWriter, r *http.Request, status int, activeID uint, values url.Values, message string) {
	viewer := ViewerFrom(r.Context())
	suppliers, err := h.repos.SupplierRepo.List(r.Context())
	if err != nil {
		h.log(r).Error("cannot list suppliers", "error", err)
		h.renderError(w, r)
		return
	}

	rows := make([]orderSupplier, 0, len(suppliers))
	for _, s := range suppliers {
		row := orderSupplier{Supplier: s, Products: viewerSupplierProducts(viewer, s), Values: map[uint]string{}}
		if s.ID == activeID && values != nil {
			for _, p := range row.Products {
				row.Values[p.ID] = values.Get(quantityField(p.ID))
			}
		}
		rows = append(rows, row)
	}

	data := h.page(r, "Supplier orders", "suppliers_orders")
	data["Suppliers"] = rows
	data["Date"] = h.now().Format(orderDate)
	data["Error"] = message
	h.renderTemplate(w, r, status, "suppliers_orders.html", data)
}
