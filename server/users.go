package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Daskott/haven/server/models"
	"github.com/gorilla/mux"
)

const (
	REQUIRED_PROFILE_FIELDS_MSG = "Please fill all required fields (name and phone)."
	INCOMPLETE_CONTACTS_MSG     = "Please fill all contact names and phone numbers or remove empty contacts."
)

type createUserRequest struct {
	ID    string `json:"id" validate:"required"`
	Email string `json:"email"`
}

type updateUserRequest struct {
	Name     string           `json:"name"`
	Phone    string           `json:"phone"`
	Contacts []models.Contact `json:"contacts" validate:"dive"`
}

type profileResponse struct {
	ID       string           `json:"id"`
	Email    string           `json:"email"`
	Name     string           `json:"name"`
	Phone    string           `json:"phone"`
	Contacts []models.Contact `json:"contacts"`
	Tokens   []string         `json:"tokens"`
}

// createUser creates an empty profile at signup. Existing profiles are left untouched.
func (h *handler) createUser(rw http.ResponseWriter, r *http.Request) {
	data := createUserRequest{}
	if !decodeBody(rw, r, &data) {
		return
	}

	if err := h.validate.Struct(data); err != nil {
		writeError(rw, "id required", err, http.StatusBadRequest)
		return
	}

	if uid, ok := requestUID(r); ok && uid != data.ID {
		writeError(rw, "action is forbidden", nil, http.StatusForbidden)
		return
	}

	created, err := h.profiles.CreateUser(r.Context(), &models.User{ID: data.ID, Email: data.Email, Contacts: []models.Contact{}})
	if err != nil {
		writeError(rw, "Failed to create user", err, http.StatusInternalServerError)
		return
	}

	statusCode := http.StatusOK
	if created {
		statusCode = http.StatusCreated
	}

	writeResponse(rw, map[string]interface{}{"success": true, "created": created}, statusCode)
}

func (h *handler) findUser(rw http.ResponseWriter, r *http.Request) {
	user, err := h.profiles.FindUser(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, models.ErrUserNotFound) {
		writeError(rw, "User not found", err, http.StatusNotFound)
		return
	}

	if err != nil {
		writeError(rw, "Failed to fetch user", err, http.StatusInternalServerError)
		return
	}

	contacts := user.Contacts
	if contacts == nil {
		contacts = []models.Contact{}
	}

	writeResponse(rw, profileResponse{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Phone:    user.Phone,
		Contacts: contacts,
		Tokens:   user.Tokens(),
	}, http.StatusOK)
}

func (h *handler) updateUser(rw http.ResponseWriter, r *http.Request) {
	data := updateUserRequest{}
	if !decodeBody(rw, r, &data) {
		return
	}

	name := strings.TrimSpace(data.Name)
	phone := strings.TrimSpace(data.Phone)
	if name == "" || phone == "" {
		writeError(rw, REQUIRED_PROFILE_FIELDS_MSG, nil, http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(data); err != nil {
		writeError(rw, INCOMPLETE_CONTACTS_MSG, err, http.StatusBadRequest)
		return
	}

	err := h.profiles.UpdateProfile(r.Context(), mux.Vars(r)["id"], name, phone, data.Contacts)
	if errors.Is(err, models.ErrUserNotFound) {
		writeError(rw, "User not found", err, http.StatusNotFound)
		return
	}

	if err != nil {
		writeError(rw, "Failed to update user", err, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, map[string]interface{}{"success": true}, http.StatusOK)
}
