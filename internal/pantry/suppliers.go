package pantry

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const (
	supplierInUseMessage     = "Cannot delete this supplier because it is used in one or more products."
	supplierDuplicateMessage = "A supplier with this name already exists."
)

func (h *Handler) Suppliers(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Suppliers")
	defer finish()

	h.renderSuppliers(w, r, http.StatusOK, "", pageState{Success: successMessage(r, "Supplier")})
}

func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateSupplier")
	defer finish()

	if !h.parseForm(w, r) {
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))

	res := Redirect("/suppliers?created=1")
	if name == "" {
		res = Invalid("Supplier name is required.")
	} else if err := h.repos.SupplierRepo.Create(r.Context(), &Supplier{Name: name}); err != nil {
		res = FromError(err, "", supplierDuplicateMessage)
	}

	h.respond(w, r, res, func(status int, message string) {
		h.renderSuppliers(w, r, status, name, pageState{Error: message})
	})
}

func (h *Handler) EditSupplier(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.EditSupplier")
	defer finish()

	supplier, res := h.pathSupplier(r)
	if supplier == nil {
		h.respond(w, r, res, nil)
		return
	}
	h.renderSupplierEdit(w, r, http.StatusOK, supplier, "")
}

// UpdateSupplier renames the supplier and replaces the product links the
// viewer can see. Links to other establishments' products are kept.
func (h *Handler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateSupplier")
	defer finish()

	supplier, res := h.pathSupplier(r)
	if supplier == nil {
		h.respond(w, r, res, nil)
		return
	}

	if !h.parseForm(w, r) {
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	selected, err := parseIDs(r.Form["products"])

	switch {
	case name == "":
		res = Invalid("Supplier name is required.")
	case err != nil:
		res = Invalid("Choose valid products.")
	default:
		res = h.updateSupplier(r.Context(), ViewerFrom(r.Context()), supplier, name, selected)
	}

	h.respond(w, r, res, func(status int, message string) {
		supplier.Name = name
		h.renderSupplierEdit(w, r, status, supplier, message)
	})
}

func (h *Handler) updateSupplier(ctx context.Context, viewer *Viewer, supplier *Supplier, name string, selected []uint) Result {
	own, err := h.repos.ProductRepo.ListByEstablishment(ctx, viewer.EstablishmentID)
	if err != nil {
		return Failure(err)
	}
	visible := make(map[uint]bool, len(own))
	for _, p := range own {
		visible[p.ID] = true
	}

	ids := make([]uint, 0, len(selected)+len(supplier.Products))
	for _, id := range selected {
		if !visible[id] {
			return Invalid("Choose products of your establishment.")
		}
		ids = append(ids, id)
	}
	for _, p := range supplier.Products {
		if p.EstablishmentID != viewer.EstablishmentID {
			ids = append(ids, p.ID)
		}
	}

	supplier.Name = name
	if err := h.repos.SupplierRepo.Save(ctx, supplier, ids); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Invalid(supplierDuplicateMessage)
		}
		return FromError(err, "", "Choose valid products.")
	}
	return Redirect("/suppliers?updated=1")
}

func (h *Handler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteSupplier")
	defer finish()

	id, err := parseIDParam(r, "id")
	if err != nil {
		h.NotFound(w, r)
		return
	}

	res := Redirect("/suppliers?deleted=1")
	if err := h.repos.SupplierRepo.Delete(r.Context(), id); err != nil {
		res = FromError(err, supplierInUseMessage, "")
	}
	h.respond(w, r, res, func(status int, message string) {
		h.renderSuppliers(w, r, status, "", pageState{Error: message})
	})
}

func (h *Handler) ShowAddSupplierProduct(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ShowAddSupplierProduct")
	defer finish()

	supplier, res := h.pathSupplier(r)
	if supplier == nil {
		h.respond(w, r, res, nil)
		return
	}
	h.renderAddSupplierProduct(w, r, http.StatusOK, supplier, "")
}

func (h *Handler) AddSupplierProduct(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddSupplierProduct")
	defer finish()

	supplier, res := h.pathSupplier(r)
	if supplier == nil {
		h.respond(w, r, res, nil)
		return
	}

	if !h.parseForm(w, r) {
		return
	}
	res = h.addSupplierProduct(r.Context(), ViewerFrom(r.Context()), supplier, r.FormValue("product"))
	h.respond(w, r, res, func(status int, message string) {
		h.renderAddSupplierProduct(w, r, status, supplier, message)
	})
}

func (h *Handler) addSupplierProduct(ctx context.Context, viewer *Viewer, supplier *Supplier, raw string) Result {
	productID, err := parseID(raw)
	if err != nil {
		return Invalid("Choose a product.")
	}
	product, err := h.repos.ProductRepo.Get(ctx, productID)
	if err != nil || product.EstablishmentID != viewer.EstablishmentID {
		return Invalid("Choose a product of your establishment.")
	}
	if err := h.repos.SupplierRepo.AddProduct(ctx, supplier.ID, product.ID); err != nil {
		return FromError(err, "", "Choose a product.")
	}
	return Redirect("/suppliers/" + uintString(supplier.ID) + "/edit")
}

func (h *Handler) RemoveSupplierProduct(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RemoveSupplierProduct")
	defer finish()

	supplierID, err := parseIDParam(r, "id")
	if err != nil {
		h.NotFound(w, r)
		return
	}
	productID, err := parseIDParam(r, "productID")
	if err != nil {
		h.NotFound(w, r)
		return
	}

	res := Redirect("/suppliers/" + uintString(supplierID) + "/edit")
	product, err := h.repos.ProductRepo.Get(r.Context(), productID)
	if err != nil || product.EstablishmentID != ViewerFrom(r.Context()).EstablishmentID {
		res = NotFound()
	} else if err := h.repos.SupplierRepo.RemoveProduct(r.Context(), supplierID, productID); err != nil {
		res = FromError(err, "", "")
	}
	h.respond(w, r, res, nil)
}

func (h *Handler) pathSupplier(r *http.Request) (*Supplier, Result) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		return nil, NotFound()
	}
	supplier, err := h.repos.SupplierRepo.Get(r.Context(), id)
	if err != nil {
		return nil, FromError(err, "", "")
	}
	return supplier, Result{}
}

// viewerSupplierProducts filters supplier products down to the viewer's
// establishment.
func viewerSupplierProducts(viewer *Viewer, supplier *Supplier) []Product {
	var products []Product
	for _, p := range supplier.Products {
		if p.EstablishmentID == viewer.EstablishmentID {
			products = append(products, p)
		}
	}
	return products
}

type supplierRow struct {
	Supplier *Supplier
	Products []Product
}

func (h *Handler) renderSuppliers(w http.ResponseWriter, r *http.Request, status int, name string, state pageState) {
	viewer := ViewerFrom(r.Context())
	suppliers, err := h.repos.SupplierRepo.List(r.Context())
	if err != nil {
		h.log(r).Error("cannot list suppliers", "error", err)
		h.renderError(w, r)
		return
	}

	rows := make([]supplierRow, 0, len(suppliers))
	for _, s := range suppliers {
		rows = append(rows, supplierRow{Supplier: s, Products: viewerSupplierProducts(viewer, s)})
	}

	data := h.page(r, "Suppliers", "suppliers")
	data["Suppliers"] = rows
	data["Name"] = name
	data["Error"] = state.Error
	data["Success"] = state.Success
	h.renderTemplate(w, r, status, "suppliers.html", data)
}

type productOption struct {
	Product  *Product
	Selected bool
}

func (h *Handler) renderSupplierEdit(w http.ResponseWriter, r *http.Request, status int, supplier *Supplier, message string) {
	viewer := ViewerFrom(r.Context())
	products, err := h.repos.ProductRepo.ListByEstablishment(r.Context(), viewer.EstablishmentID)
	if err != nil {
		h.log(r).Error("cannot list products", "error", err)
		h.renderError(w, r)
		return
	}

	linked := make(map[uint]bool, len(supplier.Products))
	for _, p := range supplier.Products {
		linked[p.ID] = true
	}
	options := make([]productOption, 0, len(products))
	for _, p := range products {
		options = append(options, productOption{Product: p, Selected: linked[p.ID]})
	}

	data := h.page(r, "Edit supplier", "supplier_edit")
	data["Supplier"] = supplier
	data["Linked"] = viewerSupplierProducts(viewer, supplier)
	data["Options"] = options
	data["Error"] = message
	h.renderTemplate(w, r, status, "supplier_edit.html", data)
}

func (h *Handler) renderAddSupplierProduct(w http.ResponseWriter, r *http.Request, status int, supplier *Supplier, message string) {
	viewer := ViewerFrom(r.Context())
	products, err := h.repos.ProductRepo.ListByEstablishment(r.Context(), viewer.EstablishmentID)
	if err != nil {
		h.log(r).Error("cannot list products", "error", err)
		h.renderError(w, r)
		return
	}

	linked := make(map[uint]bool, len(supplier.Products))
	for _, p := range supplier.Products {
		linked[p.ID] = true
	}
	available := make([]*Product, 0, len(products))
	for _, p := range products {
		if !linked[p.ID] {
			available = append(available, p)
		}
	}

	data := h.page(r, "Add product", "supplier_add_product")
	data["Supplier"] = supplier
	data["Products"] = available
	data["Error"] = message
	h.renderTemplate(w, r, status, "supplier_add_product.html", data)
}
