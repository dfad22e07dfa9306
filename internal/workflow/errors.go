package workflow

import "errors"

// ErrConcurrencyLimit reports that the active set is at the cap. The item stays
// queued; callers should retry later.
var ErrConcurrencyLimit = errors.New("concurrency limit reached")
