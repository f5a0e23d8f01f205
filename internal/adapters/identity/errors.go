package identity

import "errors"

// ErrDeleteFailed indicates the provider rejected or failed the
// user-removal request.
var ErrDeleteFailed = errors.New("identity delete failed")
