package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
	ErrEmailTaken     = errors.New("email is already registered")
	ErrBadCredentials = errors.New("incorrect password")
)

const (
	minPasswordLen = 6
	maxShortBioLen = 200
)

type Service struct {
	repo    Repository
	severer MembershipSeverer
	purger  PostsPurger

	bcryptCost int
	now        func() time.Time
}

// NewService arma el servicio de cuentas. severer/purger pueden ser nil
// (tests de unidad); Delete entonces solo borra el documento del user.
func NewService(repo Repository, severer MembershipSeverer, purger PostsPurger, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		severer:    severer,
		purger:     purger,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	IsAdmin     bool
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	phone := strings.TrimSpace(in.PhoneNumber)

	if email == "" || in.Password == "" || firstName == "" || lastName == "" || phone == "" {
		return User{}, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, fmt.Errorf("invalid email format: %w", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLen {
		return User{}, fmt.Errorf("password must be at least %d characters long: %w", minPasswordLen, ErrInvalidInput)
	}

	// Solo ErrNotFound significa email libre; una falla de storage no
	// puede tratarse como disponibilidad.
	switch _, err := s.repo.GetByEmail(ctx, email); {
	case err == nil:
		return User{}, ErrEmailTaken
	case !errors.Is(err, ErrNotFound):
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return User{}, err
	}

	role := RoleUser
	if in.IsAdmin {
		role = RoleAdmin
	}

	now := s.now()
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		PhoneNumber:  phone,
		Role:         role,
		Avatar:       defaultAvatar(firstName),
		LikedPets:    []string{},
		FosteredPets: []string{},
		AdoptedPets:  []string{},
		Posts:        []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, ErrInvalidInput
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrBadCredentials
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrInvalidInput
	}
	// El repo devuelve ErrNotFound si el user no existe; cualquier otro
	// error es falla de storage y sube tal cual.
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// UpdateProfileInput es el patch permitido del perfil. Email, role y
// las listas espejo quedan afuera: email es identidad, role tiene su
// endpoint y las listas son del engine.
type UpdateProfileInput struct {
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	ShortBio    *string
	Avatar      *string
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return User{}, ErrInvalidInput
		}
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.PhoneNumber != nil {
		u.PhoneNumber = strings.TrimSpace(*in.PhoneNumber)
	}
	if in.ShortBio != nil {
		bio := strings.TrimSpace(*in.ShortBio)
		if len(bio) > maxShortBioLen {
			return User{}, fmt.Errorf("short bio cannot exceed %d characters: %w", maxShortBioLen, ErrInvalidInput)
		}
		u.ShortBio = bio
	}
	if in.Avatar != nil {
		u.Avatar = strings.TrimSpace(*in.Avatar)
	}

	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, id, current, newPassword string) error {
	if current == "" || newPassword == "" {
		return ErrInvalidInput
	}
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters long: %w", minPasswordLen, ErrInvalidInput)
	}

	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return ErrBadCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}

	u.PasswordHash = string(hash)
	u.UpdatedAt = s.now()
	return s.repo.Update(ctx, u)
}

func (s *Service) SetRole(ctx context.Context, id string, role Role) (User, error) {
	if !ValidRole(role) {
		return User{}, ErrInvalidInput
	}

	u, err := s.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	u.Role = role
	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Delete borra la cuenta. El cascade solo corta membresías (likes y
// custodias vuelven al pet a adoptable) y borra los posts del autor;
// nunca borra pets.
func (s *Service) Delete(ctx context.Context, id string) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if s.severer != nil {
		if err := s.severer.SeverUser(ctx, u.ID, u.LikedPets, u.FosteredPets, u.AdoptedPets); err != nil {
			return err
		}
	}
	if s.purger != nil {
		if err := s.purger.DeleteByAuthor(ctx, u.ID); err != nil {
			return err
		}
	}

	return s.repo.Delete(ctx, u.ID)
}

// Avatar por default del signup cuando el cliente no manda uno.
func defaultAvatar(firstName string) string {
	name := firstName
	if strings.TrimSpace(name) == "" {
		name = "User"
	}
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=random"
}
