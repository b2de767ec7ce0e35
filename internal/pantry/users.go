package pantry

import (
	"context"
	"net/http"

	"github.com/appetiteclub/pantry/pkg/enums/role"
	"github.com/appetiteclub/pantry/pkg/event"
)

type userRow struct {
	User              *User
	RoleLabel         string
	EstablishmentName string
}

func (h *Handler) UserList(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UserList")
	defer finish()

	h.renderUserList(w, r, http.StatusOK, pageState{Success: userListMessage(r)})
}

// SetRole changes a user's role. The role must name a member of the enum.
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetRole")
	defer finish()

	id, err := parseIDParam(r, "id")
	if err != nil {
		h.NotFound(w, r)
		return
	}

	if !h.parseForm(w, r) {
		return
	}
	res := h.setRole(r.Context(), ViewerFrom(r.Context()), id, r.FormValue("role"))
	h.respond(w, r, res, func(status int, message string) {
		h.renderUserList(w, r, status, pageState{Error: message})
	})
}

func (h *Handler) setRole(ctx context.Context, viewer *Viewer, userID uint, name string) Result {
	ro := role.ByName(name)
	if ro == nil {
		return Invalid("Choose a valid role.")
	}
	if err := h.repos.UserRepo.SetRole(ctx, userID, *ro); err != nil {
		return FromError(err, "", "")
	}

	h.audit.LogRoleChange(ctx, viewer.UserID, userID, ro.Code())
	h.publishUser(ctx, event.UserEvent{
		EventType: event.EventUserRoleChanged,
		UserID:    userID,
		ActorID:   viewer.UserID,
		Role:      ro.Code(),
	})
	return Redirect("/user_list?role=1")
}

type locationOption struct {
	Location *Location
	Selected bool
}

func (h *Handler) ShowAssignInventory(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ShowAssignInventory")
	defer finish()

	user, res := h.pathUser(r)
	if user == nil {
		h.respond(w, r, res, nil)
		return
	}
	h.renderAssignInventory(w, r, http.StatusOK, user, "")
}

// AssignInventory replaces the user's location assignments with the
// submitted locations of the viewer's establishment.
func (h *Handler) AssignInventory(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AssignInventory")
	defer finish()

	user, res := h.pathUser(r)
	if user == nil {
		h.respond(w, r, res, nil)
		return
	}

	if !h.parseForm(w, r) {
		return
	}
	ids, err := parseIDs(r.Form["locations"])
	if err != nil {
		res = Invalid("Choose valid locations.")
	} else {
		res = h.assignInventory(r.Context(), ViewerFrom(r.Context()), user, ids)
	}
	h.respond(w, r, res, func(status int, message string) {
		h.renderAssignInventory(w, r, status, user, message)
	})
}

func (h *Handler) assignInventory(ctx context.Context, viewer *Viewer, user *User, ids []uint) Result {
	locations, err := h.repos.LocationRepo.ListByEstablishment(ctx, viewer.EstablishmentID)
	if err != nil {
		return Failure(err)
	}
	own := make(map[uint]bool, len(locations))
	for _, l := range locations {
		own[l.ID] = true
	}
	for _, id := range ids {
		if !own[id] {
			return Invalid("Choose locations of your establishment.")
		}
	}

	if err := h.repos.AssignmentRepo.Replace(ctx, user.ID, ids); err != nil {
		return FromError(err, "", "Choose valid locations.")
	}

	h.audit.LogAssignments(ctx, viewer.UserID, user.ID, ids)
	h.publishUser(ctx, event.UserEvent{
		EventType:   event.EventAssignmentsReplaced,
		UserID:      user.ID,
		ActorID:     viewer.UserID,
		LocationIDs: ids,
	})
	return Redirect("/user_list?assigned=1")
}

func (h *Handler) pathUser(r *http.Request) (*User, Result) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		return nil, NotFound()
	}
	user, err := h.repos.UserRepo.Get(r.Context(), id)
	if err != nil {
		return nil, FromError(err, "", "")
	}
	return user, Result{}
}

func userListMessage(r *http.Request) string {
	switch {
	case r.URL.Query().Get("role") == "1":
		return "Role updated successfully."
	case r.URL.Query().Get("assigned") == "1":
		return "Inventory locations assigned successfully."
	}
	return ""
}

func (h *Handler) renderUserList(w http.ResponseWriter, r *http.Request, status int, state pageState) {
	users, err := h.repos.UserRepo.List(r.Context())
	if err != nil {
		h.log(r).Error("cannot list users", "error", err)
		h.renderError(w, r)
		return
	}

	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		row := userRow{User: u, RoleLabel: u.Role.Label()}
		if u.Establishment != nil {
			row.EstablishmentName = u.Establishment.Name
		}
		rows = append(rows, row)
	}

	data := h.page(r, "Users", "user_list")
	data["Users"] = rows
	data["Roles"] = role.All
	data["Error"] = state.Error
	data["Success"] = state.Success
	h.renderTemplate(w, r, status, "user_list.html", data)
}

func (h *Handler) renderAssignInventory(w http.ResponseWriter, r *http.Request, status int, user *User, message string) {
	ctx := r.Context()
	viewer := ViewerFrom(ctx)

	locations, err := h.repos.LocationRepo.ListByEstablishment(ctx, viewer.EstablishmentID)
	if err != nil {
		h.log(r).Error("cannot list locations", "error", err)
		h.renderError(w, r)
		return
	}
	assignments, err := h.repos.AssignmentRepo.ListByUser(ctx, user.ID)
	if err != nil {
		h.log(r).Error("cannot list assignments", "error", err, "user_id", user.ID)
		h.renderError(w, r)
		return
	}

	assigned := make(map[uint]bool, len(assignments))
	for _, a := range assignments {
		assigned[a.LocationID] = true
	}
	options := make([]locationOption, 0, len(locations))
	for _, l := range locations {
		options = append(options, locationOption{Location: l, Selected: assigned[l.ID]})
	}

	data := h.page(r, "Assign inventory", "assign_inventory")
	data["User"] = user
	data["Options"] = options
	data["Error"] = message
	h.renderTemplate(w, r, status, "assign_inventory.html", data)
}
