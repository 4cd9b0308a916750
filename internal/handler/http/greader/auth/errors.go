package auth

import "errors"

var errUnauthorized = errors.New("unauthorized")
