package grpcserver

import (
	"context"
	"fmt"

	"identity_service/internal/models"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls the identity service from other services.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Introspect(ctx context.Context, tok string) (bool, error) {
	const op = "grpc_server.Client.Introspect"

	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, introspectMethod, wrapperspb.String(tok), out); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return out.GetValue(), nil
}

func (c *Client) UserInfo(ctx context.Context, userID string) (models.User, error) {
	const op = "grpc_server.Client.UserInfo"

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getUserInfoMethod, wrapperspb.String(userID), out); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	f := out.GetFields()

	return models.User{
		ID:        f["user_id"].GetStringValue(),
		Email:     f["email"].GetStringValue(),
		FirstName: f["first_name"].GetStringValue(),
		LastName:  f["last_name"].GetStringValue(),
		Bio:       f["bio"].GetStringValue(),
	}, nil
}
