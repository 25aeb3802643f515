package pool

import "errors"

// ErrNoMemory indicates the backing store could not supply a block: either
// the page cache's OS request failed or an oversized mapping was refused.
// The allocator never retries internally; the failure propagates to the
// caller of the allocate that hit it.
var ErrNoMemory = errors.New("pool: out of memory")
