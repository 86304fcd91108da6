//go:build !protogen

package directory

import "log/slog"

func NewResolver(_ *slog.Logger, local Resolver, _ string) (Resolver, error) {
	return local, nil
}
