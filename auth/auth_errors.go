package auth

import "errors"

var (
	MissingTokensErr    = errors.New("login response missing tokens")
	NotAuthenticatedErr = errors.New("not authenticated")
)
