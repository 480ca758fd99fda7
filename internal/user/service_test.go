package user

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	byEmail    map[string]*User
	byExternal map[string]*User
	created    []*User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byEmail:    make(map[string]*User),
		byExternal: make(map[string]*User),
	}
}

func (f *fakeRepo) Create(_ context.Context, u *User) error {
	f.created = append(f.created, u)
	f.byEmail[u.Email] = u
	f.byExternal[u.ExternalID] = u
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) GetByExternalID(_ context.Context, externalID string) (*User, error) {
	u, ok := f.byExternal[externalID]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) SenderByID(ctx context.Context, id string) (*SenderView, error) {
	u, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SenderView{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role}, nil
}

func (f *fakeRepo) Search(_ context.Context, query string, limit int) ([]User, error) {
	var out []User
	for _, u := range f.byEmail {
		if len(out) == limit {
			break
		}
		if strings.Contains(strings.ToLower(u.FirstName+" "+u.LastName), strings.ToLower(query)) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func registerDoctor(t *testing.T, svc *Service) *User {
	t.Helper()
	u, err := svc.Register(context.Background(), &RegisterRequest{
		Email:          "house@clinic.test",
		Password:       "lupus-is-never-it",
		Role:           RoleDoctor,
		FirstName:      "Greg",
		LastName:       "House",
		Specialization: "Diagnostics",
	})
	require.NoError(t, err)
	return u
}

func TestRegisterHashesPasswordAndAssignsIDs(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, "test-secret")

	u := registerDoctor(t, svc)

	assert.NotEmpty(t, u.ID)
	assert.True(t, strings.HasPrefix(u.ExternalID, "usr_"))
	assert.NotEqual(t, "lupus-is-never-it", u.Password)
	require.Len(t, repo.created, 1)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc := NewService(newFakeRepo(), "test-secret")

	_, err := svc.Register(context.Background(), &RegisterRequest{Role: RoleDoctor})
	assert.Error(t, err)

	_, err = svc.Register(context.Background(), &RegisterRequest{
		Email: "a@b.test", Password: "pw", Role: "admin",
	})
	assert.Error(t, err)
}

func TestLoginValidateTokenRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, "test-secret")
	u := registerDoctor(t, svc)

	resp, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "house@clinic.test",
		Password: "lupus-is-never-it",
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.ID)
	assert.Equal(t, u.ExternalID, resp.ExternalID)
	assert.Equal(t, RoleDoctor, resp.Role)

	subject, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ExternalID, subject)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, "test-secret")
	registerDoctor(t, svc)

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "house@clinic.test",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := NewService(newFakeRepo(), "test-secret")

	_, err := svc.Login(context.Background(), &LoginRequest{Email: "nobody@clinic.test", Password: "pw"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := newFakeRepo()
	issuer := NewService(repo, "secret-a")
	verifier := NewService(repo, "secret-b")
	registerDoctor(t, issuer)

	resp, err := issuer.Login(context.Background(), &LoginRequest{
		Email:    "house@clinic.test",
		Password: "lupus-is-never-it",
	})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(resp.AccessToken)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewService(newFakeRepo(), "test-secret")

	_, err := svc.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}
