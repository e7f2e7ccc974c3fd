package gate

import "errors"

// ErrUnauthorized is returned by Gate.Authorize when the user is anonymous,
// has no profile, or the profile lacks the requested permission.
var ErrUnauthorized = errors.New("unauthorized")
