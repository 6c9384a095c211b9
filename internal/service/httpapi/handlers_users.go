package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/shop/internal/auth"
	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type updateProfileRequest struct {
	Name      *string `json:"name"`
	Gender    *string `json:"gender"`
	BirthDate *string `json:"birth_date"`
	Phone     *string `json:"phone"`
	Image     *string `json:"image"`
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	users, err := s.users.List()
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, toUserResponse(user))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// handleUpdateProfile частично обновляет профиль текущего пользователя.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	var req updateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.users.Get(identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.BirthDate != nil {
		birthDate, parseErr := time.Parse("2006-01-02", *req.BirthDate)
		if parseErr != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "birth_date must be YYYY-MM-DD"})
			return
		}
		user.BirthDate = birthDate
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Image != nil {
		user.Image = *req.Image
	}
	user.UpdatedAt = time.Now().UTC()

	if err := firstValidationError(user.Validate()); err != nil {
		writeError(w, err)
		return
	}
	if err := s.users.Save(user); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// handleUpdateUser — административное обновление учётной записи, включая
// смену email, роли и пароля.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.users.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = domain.UserRole(*req.Role)
	}
	if req.Password != nil {
		if *req.Password == "" {
			writeError(w, domain.ErrPasswordRequired)
			return
		}
		hash, hashErr := auth.HashPassword(*req.Password)
		if hashErr != nil {
			writeError(w, hashErr)
			return
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = time.Now().UTC()

	if err := firstValidationError(user.Validate()); err != nil {
		writeError(w, err)
		return
	}
	if err := s.users.Save(user); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
