package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"chat_relay/internal/storage"
)

func TestUserService_FindOrCreate(t *testing.T) {
	req := require.New(t)
	services, _ := newTestServices(t, defaultOptions())

	created, err := services.User.FindOrCreate("u1", "alice")
	req.NoError(err)
	req.Equal("alice", created.Name)

	found, err := services.User.FindOrCreate("u1", "bob")
	req.NoError(err)
	req.Equal("alice", found.Name)
}

func TestUserService_DeleteClosesConnections(t *testing.T) {
	req := require.New(t)
	services, _ := newTestServices(t, defaultOptions())

	first := connectAndIdentify(t, services, "c1", "u1", "alice")
	second := connectAndIdentify(t, services, "c2", "u1", "alice")
	other := connectAndIdentify(t, services, "c3", "u2", "bob")

	req.NoError(services.User.DeleteUser("u1"))

	req.True(first.isClosed())
	req.True(second.isClosed())
	req.False(other.isClosed())

	_, err := services.User.GetUser("u1")
	req.True(errors.Is(err, storage.ErrNotFound))
	err = services.User.DeleteUser("u1")
	req.True(errors.Is(err, storage.ErrNotFound))
}
