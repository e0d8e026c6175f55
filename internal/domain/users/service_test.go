package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]User

	// falla de storage simulada: si está seteado, las lecturas
	// devuelven este error en vez de operar.
	failWith error
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]User{}}
}

func (r *testRepo) Create(ctx context.Context, u User) error {
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) Update(ctx context.Context, u User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return ErrNotFound
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (User, error) {
	if r.failWith != nil {
		return User{}, r.failWith
	}
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *testRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	if r.failWith != nil {
		return User{}, r.failWith
	}
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *testRepo) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// Cascade collaborators: solo registran las llamadas.

type testSeverer struct {
	calls []string
}

func (s *testSeverer) SeverUser(ctx context.Context, userID string, liked, fostered, adopted []string) error {
	s.calls = append(s.calls, userID)
	return nil
}

type testPurger struct {
	calls []string
}

func (p *testPurger) DeleteByAuthor(ctx context.Context, authorID string) error {
	p.calls = append(p.calls, authorID)
	return nil
}

func validRegister() RegisterInput {
	return RegisterInput{
		Email:       "Ana@Example.com",
		Password:    "secret123",
		FirstName:   "Ana",
		LastName:    "García",
		PhoneNumber: "+54911555000",
	}
}

// -------------------------
// Tests
// -------------------------

func TestService_Register_NormalizesAndHashes(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil, bcrypt.MinCost)

	u, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if u.Email != "ana@example.com" {
		t.Fatalf("expected lowercased email, got %s", u.Email)
	}
	if u.Role != RoleUser {
		t.Fatalf("expected role user, got %s", u.Role)
	}
	if u.PasswordHash == "" || u.PasswordHash == "secret123" {
		t.Fatalf("password must be stored hashed")
	}
	if !strings.Contains(u.Avatar, "ui-avatars.com") {
		t.Fatalf("expected default avatar, got %s", u.Avatar)
	}
	if len(u.LikedPets) != 0 || len(u.AdoptedPets) != 0 || len(u.FosteredPets) != 0 || len(u.Posts) != 0 {
		t.Fatalf("expected empty mirror lists on signup")
	}
}

func TestService_Register_Validation(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil, bcrypt.MinCost)

	cases := map[string]func(*RegisterInput){
		"missing email":  func(in *RegisterInput) { in.Email = "" },
		"bad email":      func(in *RegisterInput) { in.Email = "not-an-email" },
		"short password": func(in *RegisterInput) { in.Password = "abc" },
		"missing phone":  func(in *RegisterInput) { in.PhoneNumber = " " },
	}
	for name, mutate := range cases {
		in := validRegister()
		mutate(&in)
		if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil, bcrypt.MinCost)

	if _, err := svc.Register(context.Background(), validRegister()); err != nil {
		t.Fatalf("Register #1 error: %v", err)
	}

	// mismo email con otro case: sigue siendo duplicado
	in := validRegister()
	in.Email = "ANA@example.COM"
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

// Un error de storage en el chequeo de duplicado no significa que el
// email esté libre: el registro tiene que abortar con ese error.
func TestService_Register_StoreFailureAborts(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil, bcrypt.MinCost)

	repo.failWith = errors.New("pq: connection refused")

	_, err := svc.Register(context.Background(), validRegister())
	if err == nil {
		t.Fatalf("expected error from failing store")
	}
	if errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrNotFound) {
		t.Fatalf("store failure must surface as-is, got %v", err)
	}
	if !errors.Is(err, repo.failWith) {
		t.Fatalf("expected the store error to surface, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Fatalf("no user must be created on a failed duplicate check")
	}
}

// Ídem para lecturas: solo el not-found real mapea a ErrNotFound.
func TestService_GetByID_StoreFailureIsNotNotFound(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil, bcrypt.MinCost)

	repo.failWith = errors.New("pq: connection refused")

	_, err := svc.GetByID(context.Background(), "any-id")
	if err == nil {
		t.Fatalf("expected error from failing store")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("store failure must not map to ErrNotFound, got %v", err)
	}

	if _, authErr := svc.Authenticate(context.Background(), "ana@example.com", "secret123"); errors.Is(authErr, ErrNotFound) {
		t.Fatalf("authenticate on failing store must not map to ErrNotFound, got %v", authErr)
	}
}

func TestService_Authenticate(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil, bcrypt.MinCost)

	u, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	got, err := svc.Authenticate(context.Background(), "ana@example.com", "secret123")
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("expected user %s, got %s", u.ID, got.ID)
	}

	if _, err := svc.Authenticate(context.Background(), "ana@example.com", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "ghost@example.com", "secret123"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_UpdateProfile_PatchAndBioLimit(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil, bcrypt.MinCost)

	u, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	bio := "loves dogs"
	updated, err := svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{ShortBio: &bio})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if updated.ShortBio != "loves dogs" {
		t.Fatalf("bio not applied: %s", updated.ShortBio)
	}
	if updated.FirstName != u.FirstName || updated.Email != u.Email {
		t.Fatalf("untouched fields must survive")
	}

	long := strings.Repeat("x", maxShortBioLen+1)
	if _, err := svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{ShortBio: &long}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for long bio, got %v", err)
	}
}

func TestService_ChangePassword(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil, bcrypt.MinCost)

	u, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), u.ID, "wrong", "newsecret"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), u.ID, "secret123", "newsecret"); err != nil {
		t.Fatalf("ChangePassword error: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), u.Email, "newsecret"); err != nil {
		t.Fatalf("expected login with new password, got %v", err)
	}
}

func TestService_SetRole(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil, bcrypt.MinCost)

	u, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	updated, err := svc.SetRole(context.Background(), u.ID, RoleAdmin)
	if err != nil {
		t.Fatalf("SetRole error: %v", err)
	}
	if updated.Role != RoleAdmin {
		t.Fatalf("expected admin, got %s", updated.Role)
	}
	if _, err := svc.SetRole(context.Background(), u.ID, Role("boss")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown role, got %v", err)
	}
}

func TestService_Delete_RunsCascadeThenRemoves(t *testing.T) {
	repo := newTestRepo()
	severer := &testSeverer{}
	purger := &testPurger{}
	svc := NewService(repo, severer, purger, bcrypt.MinCost)

	u, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if err := svc.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if len(severer.calls) != 1 || severer.calls[0] != u.ID {
		t.Fatalf("expected sever cascade for %s, got %#v", u.ID, severer.calls)
	}
	if len(purger.calls) != 1 || purger.calls[0] != u.ID {
		t.Fatalf("expected posts purge for %s, got %#v", u.ID, purger.calls)
	}
	if _, err := svc.GetByID(context.Background(), u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected user gone, got %v", err)
	}
}
