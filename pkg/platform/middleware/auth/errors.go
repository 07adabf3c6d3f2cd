package auth

import dErrors "avd/pkg/domain-errors"

func errUnauthorized(msg string) error {
	return dErrors.New(dErrors.CodeUnauthorized, msg)
}
