package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/posts"
	"pet-adoption/internal/middleware"
	"pet-adoption/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /auth (signup/login) y /users.
// issuer puede ser nil (modo dev): las respuestas van sin token y los
// tests inyectan identidad con X-Debug-User-ID.
func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service, postsSvc *posts.Service, issuer auth.TokenIssuer) {
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/signup", signupHandler(svc, issuer))
		ar.Post("/login", loginHandler(svc, issuer))
	})

	r.Route("/users", func(ur chi.Router) {
		ur.Get("/", listUsersHandler(svc))
		ur.Delete("/{userID}", deleteUserHandler(svc))

		ur.Route("/profile/{userID}", func(pr chi.Router) {
			pr.Get("/", getProfileHandler(svc))
			pr.Put("/", updateProfileHandler(svc))
			pr.Put("/password", changePasswordHandler(svc))
			pr.Get("/role", getRoleHandler(svc))
			pr.Put("/role", setRoleHandler(svc))
			pr.Get("/pets", userPetsHandler(svc, petsSvc))
			pr.Get("/posts", userPostsHandler(svc, postsSvc))
		})
	})
}

// passwordHash nunca sale en JSON.
type userResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PhoneNumber  string    `json:"phoneNumber"`
	Role         string    `json:"role"`
	ShortBio     string    `json:"shortBio"`
	Avatar       string    `json:"avatar"`
	LikedPets    []string  `json:"likedPets"`
	FosteredPets []string  `json:"fosteredPets"`
	AdoptedPets  []string  `json:"adoptedPets"`
	Posts        []string  `json:"posts"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	IsAdmin     bool   `json:"isAdmin"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	PhoneNumber *string `json:"phoneNumber"`
	ShortBio    *string `json:"shortBio"`
	Avatar      *string `json:"avatar"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Shape reducido de GET /users/profile/{id}/pets.
type petSummary struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Name           string `json:"name"`
	AdoptionStatus string `json:"adoptionStatus"`
	Picture        string `json:"picture,omitempty"`
}

func signupHandler(svc *Service, issuer auth.TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json", err)
			return
		}

		u, err := svc.Register(r.Context(), RegisterInput{
			Email:       req.Email,
			Password:    req.Password,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			PhoneNumber: req.PhoneNumber,
			IsAdmin:     req.IsAdmin,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrEmailTaken):
				writeError(w, http.StatusConflict, "Email is already registered", nil)
			case errors.Is(err, ErrInvalidInput):
				writeError(w, http.StatusBadRequest, "All fields are required", err)
			default:
				writeError(w, http.StatusInternalServerError, "Signup process was unsuccessful", err)
			}
			return
		}

		token := issueToken(issuer, u)
		writeJSON(w, http.StatusCreated, map[string]any{
			"user":  toUserResponse(u),
			"token": token,
		})
	}
}

func loginHandler(svc *Service, issuer auth.TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json", err)
			return
		}

		u, err := svc.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "User not found", nil)
			case errors.Is(err, ErrBadCredentials):
				writeError(w, http.StatusUnauthorized, "Incorrect password", nil)
			case errors.Is(err, ErrInvalidInput):
				writeError(w, http.StatusBadRequest, "Email and password are required", nil)
			default:
				writeError(w, http.StatusInternalServerError, "Error during login", err)
			}
			return
		}

		token := issueToken(issuer, u)
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Login successful",
			"user":    toUserResponse(u),
			"token":   token,
		})
	}
}

func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error fetching users", err)
			return
		}

		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toUserResponse(u))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.GetByID(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeUserLookupError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func updateProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateProfileRequest
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json", err)
			return
		}

		u, err := svc.UpdateProfile(r.Context(), chi.URLParam(r, "userID"), UpdateProfileInput{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			PhoneNumber: req.PhoneNumber,
			ShortBio:    req.ShortBio,
			Avatar:      req.Avatar,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "User not found", nil)
			case errors.Is(err, ErrInvalidInput):
				writeError(w, http.StatusBadRequest, "invalid profile fields", err)
			default:
				writeError(w, http.StatusInternalServerError, "Error updating user profile", err)
			}
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func changePasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}
		userID := chi.URLParam(r, "userID")
		if claims.UserID != userID {
			writeError(w, http.StatusForbidden, "You can only change your own password", nil)
			return
		}

		var req changePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json", err)
			return
		}

		err := svc.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "User not found", nil)
			case errors.Is(err, ErrBadCredentials):
				writeError(w, http.StatusUnauthorized, "Incorrect current password", nil)
			case errors.Is(err, ErrInvalidInput):
				writeError(w, http.StatusBadRequest, "Both current password and new password are required", err)
			default:
				writeError(w, http.StatusInternalServerError, "Error updating user password", err)
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"message": "Password updated successfully"})
	}
}

func getRoleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.GetByID(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeUserLookupError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"role": string(u.Role)})
	}
}

func setRoleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}
		userID := chi.URLParam(r, "userID")
		if claims.UserID != userID && claims.Role != string(RoleAdmin) {
			writeError(w, http.StatusForbidden, "Only admins can change another user's role", nil)
			return
		}

		var req struct {
			Role string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json", err)
			return
		}

		u, err := svc.SetRole(r.Context(), userID, Role(req.Role))
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "User not found", nil)
			case errors.Is(err, ErrInvalidInput):
				writeError(w, http.StatusBadRequest, "role must be user or admin", nil)
			default:
				writeError(w, http.StatusInternalServerError, "Error updating user role", err)
			}
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func userPetsHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.GetByID(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeUserLookupError(w, err)
			return
		}

		out := make(map[string]any, 3)
		for key, ids := range map[string][]string{
			"adoptedPets":  u.AdoptedPets,
			"fosteredPets": u.FosteredPets,
			"likedPets":    u.LikedPets,
		} {
			summaries, err := petSummaries(r, petsSvc, ids)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Error fetching user pets", err)
				return
			}
			out[key] = summaries
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func userPostsHandler(svc *Service, postsSvc *posts.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.GetByID(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeUserLookupError(w, err)
			return
		}

		items, err := postsSvc.ListByAuthor(r.Context(), u.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error fetching user posts", err)
			return
		}

		out := make([]posts.PostView, 0, len(items))
		for _, p := range items {
			out = append(out, posts.NewPostView(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func deleteUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "userID")); err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "User not found", nil)
			default:
				writeError(w, http.StatusInternalServerError, "Error deleting user", err)
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "User deleted successfully"})
	}
}

func petSummaries(r *http.Request, petsSvc *pets.Service, ids []string) ([]petSummary, error) {
	out := make([]petSummary, 0, len(ids))
	for _, id := range ids {
		p, err := petsSvc.GetByID(r.Context(), id)
		if err != nil {
			// tolera referencias huérfanas (pet borrado sin cascade)
			if errors.Is(err, pets.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, petSummary{
			ID:             p.ID,
			Type:           p.Type,
			Name:           p.Name,
			AdoptionStatus: string(p.AdoptionStatus),
			Picture:        p.Picture,
		})
	}
	return out, nil
}

// requireUser corta con 401 si el request no trae identidad.
func requireUser(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		writeError(w, http.StatusUnauthorized, "No access token provided", nil)
		return auth.Claims{}, false
	}
	return claims, true
}

func writeUserLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}
	writeError(w, http.StatusInternalServerError, "Error fetching user", err)
}

func issueToken(issuer auth.TokenIssuer, u User) string {
	if issuer == nil {
		return ""
	}
	token, err := issuer.Issue(u.ID, u.Email, string(u.Role))
	if err != nil {
		return ""
	}
	return token
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PhoneNumber:  u.PhoneNumber,
		Role:         string(u.Role),
		ShortBio:     u.ShortBio,
		Avatar:       u.Avatar,
		LikedPets:    emptyIfNil(u.LikedPets),
		FosteredPets: emptyIfNil(u.FosteredPets),
		AdoptedPets:  emptyIfNil(u.AdoptedPets),
		Posts:        emptyIfNil(u.Posts),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func emptyIfNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// para no crear helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := map[string]any{"message": msg}
	if err != nil {
		body["error"] = err.Error()
	}
	writeJSON(w, status, body)
}
