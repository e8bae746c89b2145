package notify

import "errors"

var errMissingEmail = errors.New("candidate has no email address")
