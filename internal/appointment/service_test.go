package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telecare/internal/user"
)

type fakeRepo struct {
	created   []*Appointment
	roomIDs   []string
	byDoctor  []Appointment
	byPatient []Appointment
	statuses  map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{statuses: make(map[string]string)}
}

func (f *fakeRepo) CreateWithRoom(_ context.Context, a *Appointment, roomID string) error {
	f.created = append(f.created, a)
	f.roomIDs = append(f.roomIDs, roomID)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Appointment, error) {
	for _, a := range f.created {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) ListByDoctor(_ context.Context, _ string) ([]Appointment, error) {
	return f.byDoctor, nil
}

func (f *fakeRepo) ListByPatient(_ context.Context, _ string) ([]Appointment, error) {
	return f.byPatient, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id, status string) error {
	f.statuses[id] = status
	return nil
}

type fakeDirectory struct {
	users map[string]*user.User // keyed by both internal and external id
}

func (f *fakeDirectory) GetByExternalID(_ context.Context, externalID string) (*user.User, error) {
	u, ok := f.users[externalID]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeDirectory) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func newTestService(repo *fakeRepo) (*Service, *fakeDirectory) {
	doctor := &user.User{ID: "doc-1", ExternalID: "usr_doc", Role: user.RoleDoctor}
	patient := &user.User{ID: "pat-1", ExternalID: "usr_pat", Role: user.RolePatient}
	dir := &fakeDirectory{users: map[string]*user.User{
		"doc-1": doctor, "usr_doc": doctor,
		"pat-1": patient, "usr_pat": patient,
	}}
	svc := NewService(repo, dir, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	return svc, dir
}

func TestBookCreatesAppointmentWithRoom(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	date := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	result, err := svc.Book(context.Background(), "usr_pat", &BookRequest{DoctorID: "doc-1", Date: date})
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	assert.Equal(t, "doc-1", repo.created[0].DoctorID)
	assert.Equal(t, "pat-1", repo.created[0].PatientID)
	assert.Equal(t, StatusScheduled, repo.created[0].Status)

	require.Len(t, repo.roomIDs, 1)
	assert.Equal(t, repo.roomIDs[0], result.ChatRoomID)
	assert.NotEmpty(t, result.ChatRoomID)
}

func TestBookRejectsDoctorCaller(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	_, err := svc.Book(context.Background(), "usr_doc", &BookRequest{DoctorID: "doc-1", Date: time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)})
	assert.Error(t, err)
	assert.Empty(t, repo.created)
}

func TestBookRejectsNonDoctorProvider(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	_, err := svc.Book(context.Background(), "usr_pat", &BookRequest{DoctorID: "pat-1", Date: time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)})
	assert.ErrorIs(t, err, ErrNotADoctor)
	assert.Empty(t, repo.created)
}

func TestBookRejectsPastDate(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	_, err := svc.Book(context.Background(), "usr_pat", &BookRequest{DoctorID: "doc-1", Date: time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)})
	assert.ErrorIs(t, err, ErrPastDate)
	assert.Empty(t, repo.created)
}

func TestBookUnknownDoctor(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	_, err := svc.Book(context.Background(), "usr_pat", &BookRequest{DoctorID: "ghost", Date: time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListScopesByRole(t *testing.T) {
	repo := newFakeRepo()
	repo.byDoctor = []Appointment{{ID: "a1"}}
	repo.byPatient = []Appointment{{ID: "a2"}}
	svc, _ := newTestService(repo)

	appts, err := svc.List(context.Background(), "usr_doc")
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, "a1", appts[0].ID)

	appts, err = svc.List(context.Background(), "usr_pat")
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, "a2", appts[0].ID)
}

func TestCancelUpdatesStatus(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	require.NoError(t, svc.Cancel(context.Background(), "a1"))
	assert.Equal(t, StatusCancelled, repo.statuses["a1"])
}
