package service

import (
	"projecthub/internal/authz"
	"projecthub/internal/errors"
)

// denied converts a policy decision into an error, or nil when allowed.
func denied(d authz.Decision) error {
	if d.Allowed {
		return nil
	}
	return errors.Forbidden(d.Reason)
}
