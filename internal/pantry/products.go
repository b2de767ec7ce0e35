package pantry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const productInUseMessage = "Cannot delete this product because it is used in one or more dishes."

type productForm struct {
	ID            uint
	Name          string
	LocationID    string
	MeasurementID string
	SupplierID    string
}

func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Products")
	defer finish()

	h.renderProducts(w, r, http.StatusOK, productForm{}, pageState{Success: successMessage(r, "Product")})
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateProduct")
	defer finish()

	if !h.parseForm(w, r) {
		return
	}
	form := readProductForm(r)
	res := h.saveProduct(r.Context(), ViewerFrom(r.Context()), form)
	if res.Kind == ResultRedirect {
		res.Location = "/products?created=1"
	}
	h.respond(w, r, res, func(status int, message string) {
		h.renderProducts(w, r, status, form, pageState{Error: message})
	})
}

func (h *Handler) EditProduct(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.EditProduct")
	defer finish()

	product, res := h.viewerProduct(r)
	if product == nil {
		h.respond(w, r, res, nil)
		return
	}

	form := productForm{
		ID:            product.ID,
		Name:          product.Name,
		LocationID:    fmt.Sprint(product.LocationID),
		MeasurementID: fmt.Sprint(product.MeasurementID),
	}
	if product.SupplierID != nil {
		form.SupplierID = fmt.Sprint(*product.SupplierID)
	}
	h.renderProductEdit(w, r, http.StatusOK, form, "")
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateProduct")
	defer finish()

	product, res := h.viewerProduct(r)
	if product == nil {
		h.respond(w, r, res, nil)
		return
	}

	if !h.parseForm(w, r) {
		return
	}
	form := readProductForm(r)
	form.ID = product.ID
	res = h.saveProduct(r.Context(), ViewerFrom(r.Context()), form)
	if res.Kind == ResultRedirect {
		res.Location = "/products?updated=1"
	}
	h.respond(w, r, res, func(status int, message string) {
		h.renderProductEdit(w, r, status, form, message)
	})
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteProduct")
	defer finish()

	product, res := h.viewerProduct(r)
	if product == nil {
		h.respond(w, r, res, nil)
		return
	}

	res = Redirect("/products?deleted=1")
	if err := h.repos.ProductRepo.Delete(r.Context(), product.ID); err != nil {
		res = FromError(err, productInUseMessage, "")
	}
	h.respond(w, r, res, func(status int, message string) {
		h.renderProducts(w, r, status, productForm{}, pageState{Error: message})
	})
}

// viewerProduct loads the {id} product and hides products of other
// establishments behind a 404.
func (h *Handler) viewerProduct(r *http.Request) (*Product, Result) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		return nil, NotFound()
	}
	product, err := h.repos.ProductRepo.Get(r.Context(), id)
	if err != nil {
		return nil, FromError(err, "", "")
	}
	if product.EstablishmentID != ViewerFrom(r.Context()).EstablishmentID {
		return nil, NotFound()
	}
	return product, Result{}
}

func readProductForm(r *http.Request) productForm {
	return productForm{
		Name:          strings.TrimSpace(r.FormValue("product")),
		LocationID:    r.FormValue("location"),
		MeasurementID: r.FormValue("measurement"),
		SupplierID:    strings.TrimSpace(r.FormValue("supplier")),
	}
}

func (h *Handler) saveProduct(ctx context.Context, viewer *Viewer, form productForm) Result {
	if form.Name == "" {
		return Invalid("Product name is required.")
	}
	locationID, err := parseID(form.LocationID)
	if err != nil {
		return Invalid("Choose a location.")
	}
	measurementID, err := parseID(form.MeasurementID)
	if err != nil {
		return Invalid("Choose a unit.")
	}

	product := &Product{
		ID:              form.ID,
		Name:            form.Name,
		LocationID:      locationID,
		MeasurementID:   measurementID,
		EstablishmentID: viewer.EstablishmentID,
	}
	if form.SupplierID != "" {
		supplierID, err := parseID(form.SupplierID)
		if err != nil {
			return Invalid("Choose a valid supplier.")
		}
		product.SupplierID = &supplierID
	}

	if product.ID == 0 {
		err = h.repos.ProductRepo.Create(ctx, product)
	} else {
		err = h.repos.ProductRepo.Save(ctx, product)
	}
	if err != nil {
		if errors.Is(err, ErrInvalid) {
			return Invalid("Choose a location of your establishment and a valid unit and supplier.")
		}
		return FromError(err, "", "")
	}
	return Redirect("/products")
}

// catalogOptions loads the select options shared by product forms.
func (h *Handler) catalogOptions(ctx context.Context, viewer *Viewer, data map[string]interface{}) error {
	locations, err := h.repos.LocationRepo.ListByEstablishment(ctx, viewer.EstablishmentID)
	if err != nil {
		return err
	}
	measurements, err := h.repos.MeasurementRepo.List(ctx)
	if err != nil {
		return err
	}
	suppliers, err := h.repos.SupplierRepo.List(ctx)
	if err != nil {
		return err
	}
	data["Locations"] = locations
	data["Measurements"] = measurements
	data["Suppliers"] = suppliers
	return nil
}

func (h *Handler) renderProducts(w http.ResponseWriter, r *http.Request, status int, form productForm, state pageState) {
	ctx := r.Context()
	viewer := ViewerFrom(ctx)

	data := h.page(r, "Products", "products")
	data["Form"] = form
	data["Error"] = state.Error
	data["Success"] = state.Success

	products, err := h.repos.ProductRepo.ListByEstablishment(ctx, viewer.EstablishmentID)
	if err == nil {
		data["Products"] = products
		err = h.catalogOptions(ctx, viewer, data)
	}
	if err != nil {
		h.log(r).Error("cannot load products page", "error", err)
		h.renderError(w, r)
		return
	}

	h.renderTemplate(w, r, status, "products.html", data)
}

func (h *Handler) renderProductEdit(w http.ResponseWriter, r *http.Request, status int, form productForm, message string) {
	data := h.page(r, "Edit product", "product_edit")
	data["Form"] = form
	data["Error"] = message

	if err := h.catalogOptions(r.Context(), ViewerFrom(r.Context()), data); err != nil {
		h.log(r).Error("cannot load product form", "error", err)
		h.renderError(w, r)
		return
	}

	h.renderTemplate(w, r, status, "product_edit.html", data)
}

type pageState struct {
	Error   string
	Success string
}
