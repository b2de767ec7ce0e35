package pantry

import (
	"errors"
	"net/http"
	"strings"
)

const (
	locationInUseMessage     = "Cannot delete this location because it is used in one or more products."
	locationDuplicateMessage = "A location with this name already exists."
)

func (h *Handler) Locations(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Locations")
	defer finish()

	h.renderLocations(w, r, http.StatusOK, "", pageState{Success: successMessage(r, "Location")})
}

func (h *Handler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateLocation")
	defer finish()

	if !h.parseForm(w, r) {
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))

	res := Redirect("/locations?created=1")
	if name == "" {
		res = Invalid("Location name is required.")
	} else {
		location := &Location{Name: name, EstablishmentID: ViewerFrom(r.Context()).EstablishmentID}
		if err := h.repos.LocationRepo.Create(r.Context(), location); err != nil {
			res = FromError(err, "", locationDuplicateMessage)
		}
	}

	h.respond(w, r, res, func(status int, message string) {
		h.renderLocations(w, r, status, name, pageState{Error: message})
	})
}

func (h *Handler) EditLocation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.EditLocation")
	defer finish()

	location, res := h.viewerLocation(r)
	if location == nil {
		h.respond(w, r, res, nil)
		return
	}
	h.renderLocationEdit(w, r, http.StatusOK, location, "")
}

func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateLocation")
	defer finish()

	location, res := h.viewerLocation(r)
	if location == nil {
		h.respond(w, r, res, nil)
		return
	}

	if !h.parseForm(w, r) {
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))

	res = Redirect("/locations?updated=1")
	if name == "" {
		res = Invalid("Location name is required.")
	} else {
		location.Name = name
		if err := h.repos.LocationRepo.Save(r.Context(), location); err != nil {
			res = FromError(err, "", locationDuplicateMessage)
		}
	}

	h.respond(w, r, res, func(status int, message string) {
		h.renderLocationEdit(w, r, status, location, message)
	})
}

func (h *Handler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteLocation")
	defer finish()

	location, res := h.viewerLocation(r)
	if location == nil {
		h.respond(w, r, res, nil)
		return
	}

	res = Redirect("/locations?deleted=1")
	if err := h.repos.LocationRepo.Delete(r.Context(), location.ID); err != nil {
		if errors.Is(err, ErrInUse) {
			h.log(r).Info("location delete refused", "location_id", location.ID)
		}
		res = FromError(err, locationInUseMessage, "")
	}

	h.respond(w, r, res, func(status int, message string) {
		h.renderLocations(w, r, status, "", pageState{Error: message})
	})
}

func (h *Handler) viewerLocation(r *http.Request) (*Location, Result) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		return nil, NotFound()
	}
	location, err := h.repos.LocationRepo.Get(r.Context(), id)
	if err != nil {
		return nil, FromError(err, "", "")
	}
	if location.EstablishmentID != ViewerFrom(r.Context()).EstablishmentID {
		return nil, NotFound()
	}
	return location, Result{}
}

func (h *Handler) renderLocations(w http.ResponseWriter, r *http.Request, status int, name string, state pageState) {
	viewer := ViewerFrom(r.Context())
	locations, err := h.repos.LocationRepo.ListByEstablishment(r.Context(), viewer.EstablishmentID)
	if err != nil {
		h.log(r).Error("cannot list locations", "error", err)
		h.renderError(w, r)
		return
	}

	data := h.page(r, "Locations", "locations")
	data["Locations"] = locations
	data["Name"] = name
	data["Error"] = state.Error
	data["Success"] = state.Success
	h.renderTemplate(w, r, status, "locations.html", data)
}

func (h *Handler) renderLocationEdit(w http.ResponseWriter, r *http.Request, status int, location *Location, message string) {
	data := h.page(r, "Edit location", "location_edit")
	data["Location"] = location
	data["Error"] = message
	h.renderTemplate(w, r, status, "location_edit.html", data)
}
