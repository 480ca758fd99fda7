package realtime

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"telecare/internal/user"
)

var (
	// ErrMissingParams means the handshake omitted socket_id or channel_name.
	ErrMissingParams = errors.New("missing socket_id or channel_name")
	// ErrUnknownUser means the caller's external identity has no row in the
	// user directory. No grant is issued for unprovisioned identities.
	ErrUnknownUser = errors.New("unknown user")
	// ErrBadSignature means a subscribe frame carried an auth token that does
	// not match the socket/channel pair.
	ErrBadSignature = errors.New("invalid channel authorization")
)

// MemberInfo is the display payload carried with presence memberships.
type MemberInfo struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// MemberData binds a user id to its display info on a presence channel.
type MemberData struct {
	UserID   string     `json:"user_id"`
	UserInfo MemberInfo `json:"user_info"`
}

// AuthResponse is the signed grant consumed by the client library to
// complete a private/presence subscription handshake.
type AuthResponse struct {
	Auth        string `json:"auth"`
	ChannelData string `json:"channel_data,omitempty"`
}

// Directory is the user lookup the authorizer needs.
type Directory interface {
	GetByExternalID(ctx context.Context, externalID string) (*user.User, error)
}

// RequiresAuth reports whether a channel needs a signed grant to subscribe.
// Public channels (chat-room-*) are open to any connected socket.
func RequiresAuth(channel string) bool {
	return strings.HasPrefix(channel, "private-") || IsPresence(channel)
}

// IsPresence reports whether the transport tracks membership on the channel.
func IsPresence(channel string) bool {
	return strings.HasPrefix(channel, "presence-")
}

// Authorizer vouches for subscription attempts on behalf of the application.
// The transport does not know our identity scheme, so every private/presence
// subscription is signed here against the app secret.
type Authorizer struct {
	appKey    string
	appSecret string
	users     Directory
}

func NewAuthorizer(appKey, appSecret string, users Directory) *Authorizer {
	return &Authorizer{appKey: appKey, appSecret: appSecret, users: users}
}

// AuthorizeChannel validates the caller and produces a signed grant binding
// the socket to the channel. Presence channels carry the member payload in
// the signature so the hub can trust the claimed identity.
func (a *Authorizer) AuthorizeChannel(ctx context.Context, externalID, socketID, channel string) (*AuthResponse, error) {
	if socketID == "" || channel == "" {
		return nil, ErrMissingParams
	}

	u, err := a.users.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("resolve caller: %w", err)
	}

	var channelData string
	if IsPresence(channel) {
		data, err := json.Marshal(MemberData{
			UserID: u.ID,
			UserInfo: MemberInfo{
				Name:  u.FullName(),
				Image: u.ImageURL,
			},
		})
		if err != nil {
			return nil, err
		}
		channelData = string(data)
	}

	return &AuthResponse{
		Auth:        a.appKey + ":" + a.sign(socketID, channel, channelData),
		ChannelData: channelData,
	}, nil
}

// Verify checks a subscribe frame's auth token against the socket, channel
// and (for presence) the claimed member payload.
func (a *Authorizer) Verify(socketID, channel, auth, channelData string) bool {
	expected := a.appKey + ":" + a.sign(socketID, channel, channelData)
	return hmac.Equal([]byte(auth), []byte(expected))
}

func (a *Authorizer) sign(socketID, channel, channelData string) string {
	payload := socketID + ":" + channel
	if channelData != "" {
		payload += ":" + channelData
	}
	mac := hmac.New(sha256.New, []byte(a.appSecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
