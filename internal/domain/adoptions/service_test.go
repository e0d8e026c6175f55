package adoptions

import (
	"context"
	"errors"
	"sync"
	"testing"

	"pet-adoption/internal/domain/pets"
)

// -------------------------
// Test stores (in-memory)
// -------------------------

var errStoreRead = errors.New("store: read failed")

type testPetStore struct {
	mu   sync.Mutex
	byID map[string]pets.Pet

	failSetLiked bool

	// getCalls cuenta las lecturas; si failGetOnCall coincide con la
	// lectura N, esa lectura devuelve una falla de storage.
	getCalls      int
	failGetOnCall int
}

func newTestPetStore(seed ...pets.Pet) *testPetStore {
	s := &testPetStore{byID: map[string]pets.Pet{}}
	for _, p := range seed {
		if p.AdoptionStatus == "" {
			p.AdoptionStatus = pets.StatusAdoptable
		}
		s.byID[p.ID] = p
	}
	return s
}

func (s *testPetStore) GetPet(ctx context.Context, id string) (pets.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getCalls++
	if s.failGetOnCall > 0 && s.getCalls == s.failGetOnCall {
		return pets.Pet{}, errStoreRead
	}

	p, ok := s.byID[id]
	if !ok {
		return pets.Pet{}, ErrNotFound
	}
	return p, nil
}

func (s *testPetStore) ClaimCustody(ctx context.Context, petID, userID string, rel Relation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[petID]
	if !ok {
		return ErrNotFound
	}
	if p.AdoptionStatus != pets.StatusAdoptable {
		return ErrConflict
	}

	switch rel {
	case RelationAdopted:
		p.AdoptedBy = append(p.AdoptedBy, userID)
	case RelationFostered:
		p.FosteredBy = append(p.FosteredBy, userID)
	default:
		return errors.New("not custodial")
	}
	p.AdoptionStatus = rel.Status()
	s.byID[petID] = p
	return nil
}

func (s *testPetStore) ReleaseCustody(ctx context.Context, petID, userID string, rel Relation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[petID]
	if !ok {
		return ErrNotFound
	}
	switch rel {
	case RelationAdopted:
		p.AdoptedBy = without(p.AdoptedBy, userID)
	case RelationFostered:
		p.FosteredBy = without(p.FosteredBy, userID)
	}
	p.AdoptionStatus = pets.StatusAdoptable
	s.byID[petID] = p
	return nil
}

func (s *testPetStore) SetLiked(ctx context.Context, petID, userID string, liked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSetLiked {
		return errors.New("store: write failed")
	}

	p, ok := s.byID[petID]
	if !ok {
		return ErrNotFound
	}
	if liked {
		p.LikedBy = append(p.LikedBy, userID)
	} else {
		p.LikedBy = without(p.LikedBy, userID)
	}
	s.byID[petID] = p
	return nil
}

func without(in []string, id string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

type testUserStore struct {
	mu    sync.Mutex
	users map[string]bool
	refs  map[string][]string // userID -> "rel:petID"

	failAddRef bool
}

func newTestUserStore(ids ...string) *testUserStore {
	s := &testUserStore{users: map[string]bool{}, refs: map[string][]string{}}
	for _, id := range ids {
		s.users[id] = true
	}
	return s
}

func (s *testUserStore) HasUser(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id], nil
}

func (s *testUserStore) AddPetRef(ctx context.Context, userID, petID string, rel Relation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAddRef {
		return errors.New("store: write failed")
	}
	s.refs[userID] = append(s.refs[userID], string(rel)+":"+petID)
	return nil
}

func (s *testUserStore) RemovePetRef(ctx context.Context, userID, petID string, rel Relation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs[userID] = without(s.refs[userID], string(rel)+":"+petID)
	return nil
}

func (s *testUserStore) hasRef(userID, petID string, rel Relation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.refs[userID] {
		if v == string(rel)+":"+petID {
			return true
		}
	}
	return false
}

// -------------------------
// Tests
// -------------------------

func TestService_Adopt_AppliesAndMirrors(t *testing.T) {
	petStore := newTestPetStore(pets.Pet{ID: "pet-1"})
	userStore := newTestUserStore("user-1")
	svc := NewService(petStore, userStore)

	res, err := svc.Adopt(context.Background(), "pet-1", "user-1")
	if err != nil {
		t.Fatalf("Adopt error: %v", err)
	}
	if res.Outcome != OutcomeApplied {
		t.Fatalf("expected applied, got %s", res.Outcome)
	}
	if res.Pet.AdoptionStatus != pets.StatusAdopted {
		t.Fatalf("expected status adopted, got %s", res.Pet.AdoptionStatus)
	}
	if !res.Pet.IsAdoptedBy("user-1") {
		t.Fatalf("expected user-1 in adoptedBy, got %#v", res.Pet.AdoptedBy)
	}
	if !userStore.hasRef("user-1", "pet-1", RelationAdopted) {
		t.Fatalf("expected mirror ref on user side")
	}
}

func TestService_Adopt_SameUserIsIdempotent(t *testing.T) {
	petStore := newTestPetStore(pets.Pet{ID: "pet-1"})
	userStore := newTestUserStore("user-1")
	svc := NewService(petStore, userStore)

	if _, err := svc.Adopt(context.Background(), "pet-1", "user-1"); err != nil {
		t.Fatalf("Adopt #1 error: %v", err)
	}
	res, err := svc.Adopt(context.Background(), "pet-1", "user-1")
	if err != nil {
		t.Fatalf("Adopt #2 error: %v", err)
	}
	if res.Outcome != OutcomeAlreadyApplied {
		t.Fatalf("expected already_applied, got %s", res.Outcome)
	}
	if got := len(res.Pet.AdoptedBy); got != 1 {
		t.Fatalf("expected adoptedBy to stay a set, got %#v", res.Pet.AdoptedBy)
	}
}

func TestService_Adopt_OtherCustodianConflicts(t *testing.T) {
	petStore := newTestPetStore(pets.Pet{ID: "pet-1"})
	userStore := newTestUserStore("user-1", "user-2")
	svc := NewService(petStore, userStore)

	if _, err := svc.Foster(context.Background(), "pet-1", "user-1"); err != nil {
		t.Fatalf("Foster error: %v", err)
	}

	_, err := svc.Adopt(context.Background(), "pet-1", "user-2")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// El estado del pet no se movió.
	p, _ := petStore.GetPet(context.Background(), "pet-1")
	if p.AdoptionStatus != pets.StatusFostered {
		t.Fatalf("expected fostered after rejected adopt, got %s", p.AdoptionStatus)
	}
	if userStore.hasRef("user-2", "pet-1", RelationAdopted) {
		t.Fatalf("mirror must not be written on conflict")
	}
}

func TestService_Adopt_UnknownUserOrPet(t *testing.T) {
	petStore := newTestPetStore(pets.Pet{ID: "pet-1"})
	userStore := newTestUserStore("user-1")
	svc := NewService(petStore, userStore)

	if _, err := svc.Adopt(context.Background(), "pet-1", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
	if _, err := svc.Adopt(context.Background(), "ghost", "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown pet, got %v", err)
	}
	if _, err := svc.Adopt(context.Background(), "", "user-1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty pet id, got %v", err)
	}
}

func TestService_Return_ReleasesEitherCustody(t *testing.T) {
	petStore := newTestPetStore(pets.Pet{ID: "pet-1"}, pets.Pet{ID: "pet-2"})
	userStore := newTestUserStore("user-1")
	svc := NewService(petStore, userStore)

	if _, err := svc.Adopt(context.Background(), "pet-1", "user-1"); err != nil {
		t.Fatalf("Adopt error: %v", err)
	}
	if _, err := svc.Foster(context.Background(), "pet-2", "user-1"); err != nil {
		t.Fatalf("Foster error: %v", err)
	}

	for _, petID := range []string{"pet-1", "pet-2"} {
		res, err := svc.Return(context.Background(), petID, "user-1")
		if err != nil {
			t.Fatalf("Return %s error: %v", petID, err)
		}
		if res.Outcome != OutcomeApplied {
			t.Fatalf("expected applied returning %s, got %s", petID, res.Outcome)
		}
		if res.Pet.AdoptionStatus != pets.StatusAdoptable {
			t.Fatalf("expected adoptable after return, got %s", res.Pet.AdoptionStatus)
		}
	}

	if userStore.hasRef("user-1", "pet-1", RelationAdopted) || userStore.hasRef("user-1", "pet-2", RelationFostered) {
		t.Fatalf("expected mirrors removed after return")
	}
}

func TestService_Return_WithoutCustodyIsNoop(t *testing.T) {
	petStore := newTestPetStore(pets.Pet{ID: "pet-1"})
	userStore := newTestUserStore("user-1", "user-2")
	svc := NewService(petStore, userStore)

	if _, err := svc.Adopt(context.Background(), "pet-1", "user-1"); err != nil {
		t.Fatalf("Adopt error: %v", err)
	}

	// user-2 no es custodio: no-op, y la custodia de user-1 queda intacta.
	res, err := svc.Return(context.Background(), "pet-1", "user-2")
	if err != nil {
		t.Fatalf("Return error: %v", err)
	}
	if res.Outcome != OutcomeNotApplicable {
		t.Fatalf("expected not_applicable, got %s", res.Outcome)
	}

	p, _ := petStore.GetPet(context.Background(), "pet-1")
	if p.AdoptionStatus != pets.StatusAdopted || !p.IsAdoptedBy("user-1") {
		t.Fatalf("custody of user-1 must survive a foreign return")
	}
}

func TestService_LikeUnlike_IdempotentAndOrthogonal(t *testing.T) {
	petStore := newTestPetStore(pets.Pet{ID: "pet-1"})
	userStore := newTestUserStore("user-1", "user-2")
	svc := NewService(petStore, userStore)

	// like no toca la custodia
	if _, err := svc.Adopt(context.Background(), "pet-1", "user-1"); err != nil {
		t.Fatalf("Adopt error: %v", err)
	}
	res, err := svc.Like(context.Background(), "pet-1", "user-2")
	if err != nil {
		t.Fatalf("Like error: %v", err)
	}
	if res.Outcome != OutcomeApplied {
		t.Fatalf("expected applied, got %s", res.Outcome)
	}
	if res.Pet.AdoptionStatus != pets.StatusAdopted {
		t.Fatalf("like must not touch adoption status, got %s", res.Pet.AdoptionStatus)
	}

	// repetido => already_applied
	res, err = svc.Like(context.Background(), "pet-1", "user-2")
	if err != nil {
		t.Fatalf("Like #2 error: %v", err)
	}
	if res.Outcome != OutcomeAlreadyApplied {
		t.Fatalf("expected already_applied, got %s", res.Outcome)
	}

	// unlike aplica y el segundo es no-op
	res, err = svc.Unlike(context.Background(), "pet-1", "user-2")
	if err != nil {
		t.Fatalf("Unlike error: %v", err)
	}
	if res.Outcome != OutcomeApplied {
		t.Fatalf("expected applied, got %s", res.Outcome)
	}
	res, err = svc.Unlike(context.Background(), "pet-1", "user-2")
	if err != nil {
		t.Fatalf("Unlike #2 error: %v", err)
	}
	if res.Outcome != OutcomeNotApplicable {
		t.Fatalf("expected not_applicable, got %s", res.Outcome)
	}
	if userStore.hasRef("user-2", "pet-1", RelationLiked) {
		t.Fatalf("expected like mirror removed")
	}
}

func TestService_MirrorFailure_IsDistinguishable(t *testing.T) {
	petStore := newTestPetStore(pets.Pet{ID: "pet-1"})
	userStore := newTestUserStore("user-1")
	userStore.failAddRef = true
	svc := NewService(petStore, userStore)

	_, err := svc.Adopt(context.Background(), "pet-1", "user-1")
	if !errors.Is(err, ErrMirrorWrite) {
		t.Fatalf("expected ErrMirrorWrite, got %v", err)
	}

	// El lado pet quedó commiteado: así lo exige el contrato (el
	// operador reconcilia; no hay rollback cross-documento).
	p, _ := petStore.GetPet(context.Background(), "pet-1")
	if !p.IsAdoptedBy("user-1") || p.AdoptionStatus != pets.StatusAdopted {
		t.Fatalf("pet side must stay committed on mirror failure")
	}
}

// Si la re-lectura de confirmación falla, el estado del commit es
// desconocido: eso no puede reportarse como falla de espejo.
func TestService_ConfirmReadFailure_IsNotMirrorWrite(t *testing.T) {
	petStore := newTestPetStore(pets.Pet{ID: "pet-1"})
	userStore := newTestUserStore("user-1")
	svc := NewService(petStore, userStore)

	// lectura 1: chequeo previo al claim; lectura 2: confirmación
	petStore.failGetOnCall = 2

	_, err := svc.Adopt(context.Background(), "pet-1", "user-1")
	if err == nil {
		t.Fatalf("expected error from failing confirmation read")
	}
	if errors.Is(err, ErrMirrorWrite) {
		t.Fatalf("confirmation read failure must not map to ErrMirrorWrite, got %v", err)
	}

	// El error del store sube envuelto, no reemplazado.
	if !errors.Is(err, errStoreRead) {
		t.Fatalf("expected the store error to surface, got %v", err)
	}

	// El espejo nunca se intentó.
	if userStore.hasRef("user-1", "pet-1", RelationAdopted) {
		t.Fatalf("mirror must not be written when confirmation fails")
	}
}

func TestService_ConcurrentAdopt_OneWinner(t *testing.T) {
	petStore := newTestPetStore(pets.Pet{ID: "pet-1"})
	userStore := newTestUserStore("user-1", "user-2")
	svc := NewService(petStore, userStore)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, userID := range []string{"user-1", "user-2"} {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			_, err := svc.Adopt(context.Background(), "pet-1", uid)
			results <- err
		}(userID)
	}
	wg.Wait()
	close(results)

	var okCount, conflictCount int
	for err := range results {
		switch {
		case err == nil:
			okCount++
		case errors.Is(err, ErrConflict):
			conflictCount++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if okCount != 1 || conflictCount != 1 {
		t.Fatalf("expected exactly one winner and one conflict, got ok=%d conflict=%d", okCount, conflictCount)
	}

	p, _ := petStore.GetPet(context.Background(), "pet-1")
	if len(p.AdoptedBy) != 1 {
		t.Fatalf("expected a single custodian, got %#v", p.AdoptedBy)
	}
}

func TestService_SeverUser_ReleasesEverything(t *testing.T) {
	petStore := newTestPetStore(pets.Pet{ID: "pet-1"}, pets.Pet{ID: "pet-2"}, pets.Pet{ID: "pet-3"})
	userStore := newTestUserStore("user-1")
	svc := NewService(petStore, userStore)

	if _, err := svc.Adopt(context.Background(), "pet-1", "user-1"); err != nil {
		t.Fatalf("Adopt error: %v", err)
	}
	if _, err := svc.Foster(context.Background(), "pet-2", "user-1"); err != nil {
		t.Fatalf("Foster error: %v", err)
	}
	if _, err := svc.Like(context.Background(), "pet-3", "user-1"); err != nil {
		t.Fatalf("Like error: %v", err)
	}

	// pet-gone ya no existe: el sever lo ignora (ErrNotFound tolerado)
	err := svc.SeverUser(context.Background(), "user-1",
		[]string{"pet-3", "pet-gone"},
		[]string{"pet-2"},
		[]string{"pet-1"},
	)
	if err != nil {
		t.Fatalf("SeverUser error: %v", err)
	}

	for _, petID := range []string{"pet-1", "pet-2"} {
		p, _ := petStore.GetPet(context.Background(), petID)
		if p.AdoptionStatus != pets.StatusAdoptable {
			t.Fatalf("expected %s adoptable after sever, got %s", petID, p.AdoptionStatus)
		}
	}
	p, _ := petStore.GetPet(context.Background(), "pet-3")
	if p.IsLikedBy("user-1") {
		t.Fatalf("expected like removed after sever")
	}

	// Los pets siguen existiendo: sever corta membresía, nunca borra.
	for _, petID := range []string{"pet-1", "pet-2", "pet-3"} {
		if _, err := petStore.GetPet(context.Background(), petID); err != nil {
			t.Fatalf("pet %s must survive the sever: %v", petID, err)
		}
	}
}
