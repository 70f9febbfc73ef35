package tournaments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arenahub/arenahub/internal/platform/httpx"
	"github.com/arenahub/arenahub/internal/shared"
)

type memoryTournamentRepo struct {
	tournaments   map[uuid.UUID]*Tournament
	registrations map[uuid.UUID][]Registration
}

func newMemoryTournamentRepo() *memoryTournamentRepo {
	return &memoryTournamentRepo{
		tournaments:   map[uuid.UUID]*Tournament{},
		registrations: map[uuid.UUID][]Registration{},
	}
}

func (r *memoryTournamentRepo) List(ctx context.Context, status Status, limit, offset int) ([]Tournament, int, error) {
	out := []Tournament{}
	for _, t := range r.tournaments {
		if status == "" || t.Status == status {
			out = append(out, *t)
		}
	}
	return out, len(out), nil
}

func (r *memoryTournamentRepo) Get(ctx context.Context, id uuid.UUID) (*Tournament, error) {
	if t, ok := r.tournaments[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, nil
}

func (r *memoryTournamentRepo) Create(ctx context.Context, t Tournament) error {
	copied := t
	r.tournaments[t.ID] = &copied
	return nil
}

func (r *memoryTournamentRepo) Update(ctx context.Context, t Tournament) (int64, error) {
	current, ok := r.tournaments[t.ID]
	if !ok {
		return 0, nil
	}
	t.Status = current.Status
	copied := t
	r.tournaments[t.ID] = &copied
	return 1, nil
}

func (r *memoryTournamentRepo) SetStatus(ctx context.Context, id uuid.UUID, status Status) (int64, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return 0, nil
	}
	t.Status = status
	return 1, nil
}

func (r *memoryTournamentRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, ok := r.tournaments[id]; !ok {
		return 0, nil
	}
	delete(r.tournaments, id)
	return 1, nil
}

func (r *memoryTournamentRepo) ListRegistrations(ctx context.Context, tournamentID uuid.UUID) ([]Registration, error) {
	return append([]Registration{}, r.registrations[tournamentID]...), nil
}

func (r *memoryTournamentRepo) Register(ctx context.Context, tournamentID, userID uuid.UUID) (*Registration, error) {
	t, ok := r.tournaments[tournamentID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if t.Status != StatusOpen {
		return nil, ErrNotOpen
	}
	for _, reg := range r.registrations[tournamentID] {
		if reg.UserID == userID {
			return nil, ErrAlreadyRegistered
		}
	}
	if len(r.registrations[tournamentID]) >= t.Capacity {
		return nil, ErrFull
	}
	reg := Registration{ID: uuid.New(), TournamentID: tournamentID, UserID: userID, RegisteredAt: time.Now().UTC()}
	r.registrations[tournamentID] = append(r.registrations[tournamentID], reg)
	return &reg, nil
}

func (r *memoryTournamentRepo) Unregister(ctx context.Context, tournamentID, userID uuid.UUID) (int64, error) {
	kept := r.registrations[tournamentID][:0]
	var removed int64
	for _, reg := range r.registrations[tournamentID] {
		if reg.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, reg)
	}
	r.registrations[tournamentID] = kept
	return removed, nil
}

func openTournament(t *testing.T, repo *memoryTournamentRepo, capacity int) *Tournament {
	t.Helper()
	svc := NewService(repo, nil)
	admin := uuid.New()
	created, err := svc.Create(context.Background(), admin, Tournament{
		Title: "Winter Clash", Game: "cs2", Capacity: capacity, StartsAt: time.Now().Add(72 * time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, created.Status)
	require.NoError(t, svc.SetStatus(context.Background(), admin, created.ID, StatusOpen))
	return created
}

func TestRegisterHappyPath(t *testing.T) {
	repo := newMemoryTournamentRepo()
	tournament := openTournament(t, repo, 8)
	svc := NewService(repo, nil)

	reg, err := svc.Register(context.Background(), tournament.ID, uuid.New())
	require.NoError(t, err)
	require.Equal(t, tournament.ID, reg.TournamentID)
}

func TestRegisterDuplicate(t *testing.T) {
	repo := newMemoryTournamentRepo()
	tournament := openTournament(t, repo, 8)
	svc := NewService(repo, nil)
	player := uuid.New()

	_, err := svc.Register(context.Background(), tournament.ID, player)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), tournament.ID, player)
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestRegisterCapacity(t *testing.T) {
	repo := newMemoryTournamentRepo()
	tournament := openTournament(t, repo, 2)
	svc := NewService(repo, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.Register(context.Background(), tournament.ID, uuid.New())
		require.NoError(t, err)
	}
	_, err := svc.Register(context.Background(), tournament.ID, uuid.New())
	require.ErrorIs(t, err, httpx.ErrPolicy)

	// a withdrawal frees the slot
	regs, err := svc.Registrations(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Unregister(context.Background(), tournament.ID, regs[0].UserID))
	_, err = svc.Register(context.Background(), tournament.ID, uuid.New())
	require.NoError(t, err)
}

func TestRegisterClosed(t *testing.T) {
	repo := newMemoryTournamentRepo()
	tournament := openTournament(t, repo, 8)
	svc := NewService(repo, nil)
	admin := uuid.New()

	require.NoError(t, svc.SetStatus(context.Background(), admin, tournament.ID, StatusClosed))
	_, err := svc.Register(context.Background(), tournament.ID, uuid.New())
	require.ErrorIs(t, err, httpx.ErrPolicy)
}

func TestFinishedIsTerminal(t *testing.T) {
	repo := newMemoryTournamentRepo()
	tournament := openTournament(t, repo, 8)
	svc := NewService(repo, nil)
	admin := uuid.New()

	require.NoError(t, svc.SetStatus(context.Background(), admin, tournament.ID, StatusFinished))
	err := svc.SetStatus(context.Background(), admin, tournament.ID, StatusOpen)
	require.ErrorIs(t, err, httpx.ErrPolicy)
}

func TestCreateRejectsZeroCapacity(t *testing.T) {
	svc := NewService(newMemoryTournamentRepo(), nil)
	_, err := svc.Create(context.Background(), uuid.New(), Tournament{Title: "x", Capacity: 0})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
