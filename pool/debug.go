package pool

import (
	"fmt"
	"os"
)

// Runtime debug flag for allocation logging - controlled by the
// MEMPOOL_LOG_ALLOC env var.
var logAlloc = os.Getenv("MEMPOOL_LOG_ALLOC") != ""

func debugf(format string, args ...any) {
	if logAlloc {
		fmt.Fprintf(os.Stderr, "[pool] "+format+"\n", args...)
	}
}
