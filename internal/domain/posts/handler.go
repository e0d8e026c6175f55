package posts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-adoption/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// Mutaciones del feed requieren auth (claims en contexto);
// el feed en sí es público.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/posts", func(pr chi.Router) {
		pr.Get("/feed", feedHandler(svc))
		pr.Post("/", createPostHandler(svc))

		pr.Put("/{postID}", editPostHandler(svc))
		pr.Delete("/{postID}", deletePostHandler(svc))

		pr.Post("/{postID}/comment", addCommentHandler(svc))
		pr.Delete("/{postID}/comment/{commentID}", deleteCommentHandler(svc))
		pr.Post("/{postID}/reaction", reactionHandler(svc))
	})
}

// PostView es el shape público de un post. Exportado porque el módulo
// de usuarios también lo devuelve en GET /users/profile/{id}/posts.
type PostView struct {
	ID        string         `json:"id"`
	User      string         `json:"user"`
	Pet       string         `json:"pet,omitempty"`
	Content   string         `json:"content"`
	Image     string         `json:"image,omitempty"`
	Comments  []CommentView  `json:"comments"`
	Reactions []ReactionView `json:"reactions"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type CommentView struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type ReactionView struct {
	User string `json:"user"`
	Type string `json:"type"`
}

func NewPostView(p Post) PostView {
	comments := make([]CommentView, 0, len(p.Comments))
	for _, c := range p.Comments {
		comments = append(comments, CommentView{
			ID:        c.ID,
			User:      c.UserID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	reactions := make([]ReactionView, 0, len(p.Reactions))
	for _, r := range p.Reactions {
		reactions = append(reactions, ReactionView{User: r.UserID, Type: string(r.Type)})
	}
	return PostView{
		ID:        p.ID,
		User:      p.AuthorID,
		Pet:       p.PetID,
		Content:   p.Content,
		Image:     p.Image,
		Comments:  comments,
		Reactions: reactions,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type createPostRequest struct {
	Content string `json:"content"`
	Image   string `json:"image"`
	Pet     string `json:"pet"`
}

type editPostRequest struct {
	Content *string `json:"content"`
	Image   *string `json:"image"`
}

func feedHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Feed(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error fetching posts", err)
			return
		}

		out := make([]PostView, 0, len(items))
		for _, p := range items {
			out = append(out, NewPostView(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func createPostHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req createPostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json", err)
			return
		}

		p, err := svc.Create(r.Context(), userID, CreateInput{
			Content: req.Content,
			Image:   req.Image,
			PetID:   req.Pet,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				writeError(w, http.StatusBadRequest, "Content is required", nil)
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "User not found", nil)
			default:
				writeError(w, http.StatusInternalServerError, "Error creating post", err)
			}
			return
		}

		writeJSON(w, http.StatusCreated, NewPostView(p))
	}
}

func editPostHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req editPostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json", err)
			return
		}

		p, err := svc.Edit(r.Context(), chi.URLParam(r, "postID"), userID, EditInput{
			Content: req.Content,
			Image:   req.Image,
		})
		if err != nil {
			writePostError(w, err, "You can only edit your own posts", "Error updating post")
			return
		}

		writeJSON(w, http.StatusOK, NewPostView(p))
	}
}

func deletePostHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "postID"), userID); err != nil {
			writePostError(w, err, "You can only delete your own posts", "Error deleting post")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Post deleted successfully"})
	}
}

func addCommentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json", err)
			return
		}

		c, err := svc.AddComment(r.Context(), chi.URLParam(r, "postID"), userID, req.Content)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				writeError(w, http.StatusBadRequest, "Content is required", nil)
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "Post not found", nil)
			default:
				writeError(w, http.StatusInternalServerError, "Error adding comment", err)
			}
			return
		}

		writeJSON(w, http.StatusCreated, CommentView{
			ID:        c.ID,
			User:      c.UserID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
}

func deleteCommentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		err := svc.DeleteComment(r.Context(), chi.URLParam(r, "postID"), chi.URLParam(r, "commentID"), userID)
		if err != nil {
			writePostError(w, err, "You can only delete your own comments", "Error deleting comment")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Comment deleted successfully"})
	}
}

func reactionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req struct {
			Type string `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json", err)
			return
		}

		reaction, removed, err := svc.React(r.Context(), chi.URLParam(r, "postID"), userID, ReactionType(req.Type))
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				writeError(w, http.StatusBadRequest, "type must be like or dislike", nil)
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "Post not found", nil)
			default:
				writeError(w, http.StatusInternalServerError, "Error adding reaction", err)
			}
			return
		}

		if removed {
			writeJSON(w, http.StatusOK, map[string]any{"message": "Reaction removed"})
			return
		}
		writeJSON(w, http.StatusCreated, ReactionView{User: reaction.UserID, Type: string(reaction.Type)})
	}
}

func writePostError(w http.ResponseWriter, err error, forbiddenMsg, internalMsg string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input", err)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Post not found", nil)
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, forbiddenMsg, nil)
	default:
		writeError(w, http.StatusInternalServerError, internalMsg, err)
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		writeError(w, http.StatusUnauthorized, "No access token provided", nil)
		return "", false
	}
	return claims.UserID, true
}

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
