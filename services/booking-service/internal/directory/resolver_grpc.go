//go:build protogen

package directory

import (
	"context"
	"log/slog"
	"time"

	"github.com/rafaeldmoura/pontual/libs/grpcx"
	directoryv1 "github.com/rafaeldmoura/pontual/protos/gen/directory/v1"
	"github.com/rafaeldmoura/pontual/services/booking-service/internal/model"
)

type grpcResolver struct {
	client directoryv1.DirectoryServiceClient
}

func NewResolver(logger *slog.Logger, local Resolver, addr string) (Resolver, error) {
	if addr == "" {
		return local, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := grpcx.Dial(ctx, addr, grpcx.DialOptions{Timeout: 5 * time.Second})
	if err != nil {
		logger.Warn("grpc directory unavailable, using local users table", "err", err)
		return local, nil
	}

	logger.Info("grpc directory enabled", "addr", addr)
	return &grpcResolver{client: directoryv1.NewDirectoryServiceClient(conn)}, nil
}

func (r *grpcResolver) FindUser(ctx context.Context, id string) (model.User, bool, error) {
	resp, err := r.client.GetUser(ctx, &directoryv1.GetUserRequest{UserId: id})
	if err != nil {
		return model.User{}, false, err
	}
	u := resp.GetUser()
	if u.GetId() == "" {
		return model.User{}, false, nil
	}
	return model.User{
		ID:       u.GetId(),
		Name:     u.GetName(),
		Email:    u.GetEmail(),
		Provider: u.GetProvider(),
	}, true, nil
}

func (r *grpcResolver) FindProvider(ctx context.Context, id string) (model.User, bool, error) {
	u, ok, err := r.FindUser(ctx, id)
	if err != nil || !ok || !u.Provider {
		return model.User{}, false, err
	}
	return u, true, nil
}
