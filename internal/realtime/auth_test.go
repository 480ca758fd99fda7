package realtime

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telecare/internal/user"
)

type fakeDirectory struct {
	users map[string]*user.User
}

func (f *fakeDirectory) GetByExternalID(_ context.Context, externalID string) (*user.User, error) {
	u, ok := f.users[externalID]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func testAuthorizer() *Authorizer {
	dir := &fakeDirectory{users: map[string]*user.User{
		"usr_doc": {
			ID:        "doc-1",
			FirstName: "Greg",
			LastName:  "House",
			ImageURL:  "https://img.example/house.png",
			Role:      user.RoleDoctor,
		},
	}}
	return NewAuthorizer("app-key", "app-secret", dir)
}

func TestRequiresAuth(t *testing.T) {
	assert.True(t, RequiresAuth("private-notes-1"))
	assert.True(t, RequiresAuth("presence-doc-1"))
	assert.False(t, RequiresAuth("chat-room-abc"))
}

func TestAuthorizeChannelMissingParams(t *testing.T) {
	auth := testAuthorizer()

	_, err := auth.AuthorizeChannel(context.Background(), "usr_doc", "", "private-x")
	assert.ErrorIs(t, err, ErrMissingParams)

	_, err = auth.AuthorizeChannel(context.Background(), "usr_doc", "sock-1", "")
	assert.ErrorIs(t, err, ErrMissingParams)
}

func TestAuthorizeChannelUnknownUser(t *testing.T) {
	auth := testAuthorizer()

	_, err := auth.AuthorizeChannel(context.Background(), "usr_ghost", "sock-1", "private-x")
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestAuthorizePrivateChannelSignature(t *testing.T) {
	auth := testAuthorizer()

	resp, err := auth.AuthorizeChannel(context.Background(), "usr_doc", "sock-1", "private-x")
	require.NoError(t, err)
	assert.Empty(t, resp.ChannelData)

	mac := hmac.New(sha256.New, []byte("app-secret"))
	mac.Write([]byte("sock-1:private-x"))
	want := "app-key:" + hex.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, resp.Auth)
}

func TestAuthorizePresenceChannelCarriesMemberData(t *testing.T) {
	auth := testAuthorizer()

	resp, err := auth.AuthorizeChannel(context.Background(), "usr_doc", "sock-1", "presence-doc-1")
	require.NoError(t, err)
	require.NotEmpty(t, resp.ChannelData)

	var member MemberData
	require.NoError(t, json.Unmarshal([]byte(resp.ChannelData), &member))
	assert.Equal(t, "doc-1", member.UserID)
	assert.Equal(t, "Greg House", member.UserInfo.Name)
	assert.Equal(t, "https://img.example/house.png", member.UserInfo.Image)

	// Member data is bound into the signature.
	mac := hmac.New(sha256.New, []byte("app-secret"))
	mac.Write([]byte("sock-1:presence-doc-1:" + resp.ChannelData))
	want := "app-key:" + hex.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, resp.Auth)
}

func TestVerifyRoundTrip(t *testing.T) {
	auth := testAuthorizer()

	resp, err := auth.AuthorizeChannel(context.Background(), "usr_doc", "sock-1", "presence-doc-1")
	require.NoError(t, err)

	assert.True(t, auth.Verify("sock-1", "presence-doc-1", resp.Auth, resp.ChannelData))

	// Any drift in the signed tuple invalidates the grant.
	assert.False(t, auth.Verify("sock-2", "presence-doc-1", resp.Auth, resp.ChannelData))
	assert.False(t, auth.Verify("sock-1", "presence-pat-1", resp.Auth, resp.ChannelData))
	assert.False(t, auth.Verify("sock-1", "presence-doc-1", resp.Auth, strings.Replace(resp.ChannelData, "doc-1", "pat-1", 1)))
	assert.False(t, auth.Verify("sock-1", "presence-doc-1", "app-key:bogus", resp.ChannelData))
}
