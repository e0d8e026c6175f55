package posts

import "time"

// ReactionType define las reacciones soportadas.
type ReactionType string

const (
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
)

func ValidReaction(t ReactionType) bool {
	return t == ReactionLike || t == ReactionDislike
}

// Reaction: a lo sumo una por (post, user).
type Reaction struct {
	UserID string
	Type   ReactionType
}

// Comment es append-only; solo su autor puede borrarlo.
type Comment struct {
	ID        string
	UserID    string
	Content   string
	CreatedAt time.Time
}

type Post struct {
	ID       string
	AuthorID string
	PetID    string // opcional

	Content string
	Image   string

	Comments  []Comment
	Reactions []Reaction

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Post) ReactionOf(userID string) (Reaction, bool) {
	for _, r := range p.Reactions {
		if r.UserID == userID {
			return r, true
		}
	}
	return Reaction{}, false
}
