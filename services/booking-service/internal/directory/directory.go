// Package directory resolves the users involved in a booking. The local
// users table serves by default; a remote directory service can take
// over when built with the protogen tag and an address is configured.
package directory

import (
	"context"

	"github.com/rafaeldmoura/pontual/services/booking-service/internal/model"
)

type Resolver interface {
	FindUser(ctx context.Context, id string) (model.User, bool, error)
	FindProvider(ctx context.Context, id string) (model.User, bool, error)
}
