package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"testing"

	"identity_service/internal/apperr"
	"identity_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeIdentity struct {
	live  map[string]bool
	users map[string]models.User
	err   error
}

func (f *fakeIdentity) Introspect(_ context.Context, tok string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.live[tok], nil
}

func (f *fakeIdentity) UserInfo(_ context.Context, id string) (models.User, error) {
	if f.err != nil {
		return models.User{}, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("auth.UserInfo: %w", apperr.ErrUserNotFound)
	}
	return u, nil
}

func startServer(t *testing.T, identity Identity) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	srv := New(slog.New(slog.DiscardHandler), "bufnet", identity)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		assert.NoError(t, <-done)
	})

	return NewClient(conn)
}

func TestIntrospect(t *testing.T) {
	c := startServer(t, &fakeIdentity{live: map[string]bool{"good": true}})

	valid, err := c.Introspect(context.Background(), "good")
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = c.Introspect(context.Background(), "revoked")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestIntrospect_InfraIsInternal(t *testing.T) {
	c := startServer(t, &fakeIdentity{err: apperr.Infra("auth.Introspect", errors.New("redis down"))})

	_, err := c.Introspect(context.Background(), "any")
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(errors.Unwrap(err)))
	assert.NotContains(t, err.Error(), "redis down")
}

func TestGetUserInfo(t *testing.T) {
	c := startServer(t, &fakeIdentity{users: map[string]models.User{
		"u-1": {ID: "u-1", Email: "a@b.com", FirstName: "Ann", LastName: "Lee", Bio: "hi"},
	}})

	user, err := c.UserInfo(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, models.User{ID: "u-1", Email: "a@b.com", FirstName: "Ann", LastName: "Lee", Bio: "hi"}, user)
}

func TestGetUserInfo_Errors(t *testing.T) {
	c := startServer(t, &fakeIdentity{users: map[string]models.User{}})

	_, err := c.UserInfo(context.Background(), "missing")
	assert.Equal(t, codes.NotFound, status.Code(errors.Unwrap(err)))

	_, err = c.UserInfo(context.Background(), "")
	assert.Equal(t, codes.InvalidArgument, status.Code(errors.Unwrap(err)))
}
