package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Get("/", listPetsHandler(svc))
		pr.Get("/search", searchPetsHandler(svc))
		pr.Post("/addpet", createPetHandler(svc))

		pr.Get("/{petID}", getPetHandler(svc))
		pr.Put("/{petID}/details", updatePetHandler(svc))
		pr.Delete("/{petID}", deletePetHandler(svc))
	})
}

// likedBy/adoptedBy/fosteredBy salen como sets de user ids.
type petResponse struct {
	ID                  string    `json:"id"`
	Type                string    `json:"type"`
	Name                string    `json:"name"`
	Breed               string    `json:"breed"`
	Color               string    `json:"color"`
	Bio                 string    `json:"bio"`
	HeightCm            float64   `json:"heightCm"`
	WeightKg            float64   `json:"weightKg"`
	Hypoallergenic      bool      `json:"hypoallergenic"`
	DietaryRestrictions string    `json:"dietaryRestrictions,omitempty"`
	Picture             string    `json:"picture,omitempty"`
	AdoptionStatus      string    `json:"adoptionStatus"`
	LikedBy             []string  `json:"likedBy"`
	AdoptedBy           []string  `json:"adoptedBy"`
	FosteredBy          []string  `json:"fosteredBy"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Shape reducido para autocomplete.
type suggestionResponse struct {
	Name    string `json:"name"`
	Breed   string `json:"breed"`
	Type    string `json:"type"`
	Picture string `json:"picture,omitempty"`
}

type createPetRequest struct {
	Type                string  `json:"type"`
	Name                string  `json:"name"`
	Breed               string  `json:"breed"`
	Color               string  `json:"color"`
	Bio                 string  `json:"bio"`
	HeightCm            float64 `json:"heightCm"`
	WeightKg            float64 `json:"weightKg"`
	Hypoallergenic      bool    `json:"hypoallergenic"`
	DietaryRestrictions string  `json:"dietaryRestrictions"`
	Picture             string  `json:"picture"`
}

type updatePetRequest struct {
	// Punteros para merge parcial real: nil = no tocar.
	Type                *string  `json:"type"`
	Name                *string  `json:"name"`
	Breed               *string  `json:"breed"`
	Color               *string  `json:"color"`
	Bio                 *string  `json:"bio"`
	HeightCm            *float64 `json:"heightCm"`
	WeightKg            *float64 `json:"weightKg"`
	Hypoallergenic      *bool    `json:"hypoallergenic"`
	DietaryRestrictions *string  `json:"dietaryRestrictions"`
	Picture             *string  `json:"picture"`
}

func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error fetching pets", err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func searchPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		f := SearchFilter{
			AdoptionStatus: strings.TrimSpace(q.Get("adoptionStatus")),
			Type:           strings.TrimSpace(q.Get("type")),
			Name:           strings.TrimSpace(q.Get("name")),
			Breed:          strings.TrimSpace(q.Get("breed")),
			Fuzzy:          q.Get("autocomplete") == "true",
		}

		if v := q.Get("heightCm"); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "heightCm must be a number", nil)
				return
			}
			f.MinHeightCm = &n
		}
		if v := q.Get("weightKg"); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "weightKg must be a number", nil)
				return
			}
			f.MinWeightKg = &n
		}
		if v := q.Get("page"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "page must be a non-negative integer", nil)
				return
			}
			f.Page = n
		}
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer", nil)
				return
			}
			f.Limit = n
		}

		items, err := svc.Search(r.Context(), f)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				writeError(w, http.StatusBadRequest, "invalid search filters", err)
				return
			}
			writeError(w, http.StatusInternalServerError, "Server error", err)
			return
		}

		if f.Fuzzy {
			out := make([]suggestionResponse, 0, len(items))
			for _, p := range items {
				out = append(out, suggestionResponse{
					Name:    p.Name,
					Breed:   p.Breed,
					Type:    p.Type,
					Picture: p.Picture,
				})
			}
			writeJSON(w, http.StatusOK, out)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID := chi.URLParam(r, "petID")

		p, err := svc.GetByID(r.Context(), petID)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) {
				writeError(w, http.StatusNotFound, "Pet with ID "+petID+" not found", nil)
				return
			}
			writeError(w, http.StatusInternalServerError, "Error fetching pet", err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPetRequest
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json", err)
			return
		}

		p, err := svc.Create(r.Context(), CreateInput{
			Type:                req.Type,
			Name:                req.Name,
			Breed:               req.Breed,
			Color:               req.Color,
			Bio:                 req.Bio,
			HeightCm:            req.HeightCm,
			WeightKg:            req.WeightKg,
			Hypoallergenic:      req.Hypoallergenic,
			DietaryRestrictions: req.DietaryRestrictions,
			Picture:             req.Picture,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				writeError(w, http.StatusBadRequest, "Failed to add pet", err)
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to add pet", err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"message": "Pet added successfully",
			"pet":     toPetResponse(p),
		})
	}
}

func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID := chi.URLParam(r, "petID")

		// Patch con allow-list: campos desconocidos se rechazan,
		// no se persisten en silencio.
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updatePetRequest
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json", err)
			return
		}

		p, err := svc.UpdateDetails(r.Context(), petID, UpdateInput{
			Type:                req.Type,
			Name:                req.Name,
			Breed:               req.Breed,
			Color:               req.Color,
			Bio:                 req.Bio,
			HeightCm:            req.HeightCm,
			WeightKg:            req.WeightKg,
			Hypoallergenic:      req.Hypoallergenic,
			DietaryRestrictions: req.DietaryRestrictions,
			Picture:             req.Picture,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				writeError(w, http.StatusBadRequest, "invalid pet details", err)
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "Pet not found", nil)
			default:
				writeError(w, http.StatusInternalServerError, "Error updating pet details", err)
			}
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID := chi.URLParam(r, "petID")

		if err := svc.Delete(r.Context(), petID); err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) {
				writeError(w, http.StatusNotFound, "Pet not found", nil)
				return
			}
			writeError(w, http.StatusInternalServerError, "Error deleting pet", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Pet deleted successfully"})
	}
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:                  p.ID,
		Type:                p.Type,
		Name:                p.Name,
		Breed:               p.Breed,
		Color:               p.Color,
		Bio:                 p.Bio,
		HeightCm:            p.HeightCm,
		WeightKg:            p.WeightKg,
		Hypoallergenic:      p.Hypoallergenic,
		DietaryRestrictions: p.DietaryRestrictions,
		Picture:             p.Picture,
		AdoptionStatus:      string(p.AdoptionStatus),
		LikedBy:             emptyIfNil(p.LikedBy),
		AdoptedBy:           emptyIfNil(p.AdoptedBy),
		FosteredBy:          emptyIfNil(p.FosteredBy),
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func emptyIfNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// writeJSON/writeError duplicados a propósito por módulo
// (ver nota en el handler de usuarios).
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
