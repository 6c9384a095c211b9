package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/auth"
	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Gender    string `json:"gender,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Image     string `json:"image,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

func toUserResponse(user domain.User) userResponse {
	resp := userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Gender:    user.Gender,
		Phone:     user.Phone,
		Image:     user.Image,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
	if !user.BirthDate.IsZero() {
		resp.BirthDate = user.BirthDate.UTC().Format("2006-01-02")
	}
	return resp
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Password == "" {
		writeError(w, domain.ErrPasswordRequired)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.WithError(err).Error("failed to hash password")
		writeError(w, err)
		return
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := firstValidationError(user.Validate()); err != nil {
		writeError(w, err)
		return
	}

	if err := s.users.Create(user); err != nil {
		writeError(w, err)
		return
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.WithError(err).Error("failed to issue token")
		writeError(w, err)
		return
	}
	auth.SetCookie(w, token, s.tokens.TTL())

	s.logger.WithFields(log.Fields{"user_id": user.ID, "email": user.Email}).Info("user signed up")
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.users.GetByEmail(req.Email)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.WithError(err).Error("failed to issue token")
		writeError(w, err)
		return
	}
	auth.SetCookie(w, token, s.tokens.TTL())

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleSignOut(w http.ResponseWriter, _ *http.Request) {
	auth.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}
