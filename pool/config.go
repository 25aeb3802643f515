package pool

// Config tunes a Pool. The zero value is not usable; pass nil to New for
// DefaultConfig.
type Config struct {
	// Name labels the configuration in logs and benchmarks.
	Name string

	// HighWaterMark is the per-class block count a Local may hold before it
	// spills three quarters of the list back to the central cache.
	HighWaterMark int

	// MaxMappedBytes caps the total memory the managed tiers may obtain
	// from the operating system; allocations over the cap fail with
	// ErrNoMemory. Zero means unlimited. Oversized requests bypass the
	// tiers and are not counted against it.
	MaxMappedBytes int64
}

// Predefined configurations.
var (
	// ConfigDefault suits mixed workloads: deep local lists, rare spills.
	ConfigDefault = Config{
		Name:          "Default",
		HighWaterMark: 256,
	}

	// ConfigSmallFootprint trades fast-path hit rate for tighter per-worker
	// memory, spilling back to the shared tier much earlier.
	ConfigSmallFootprint = Config{
		Name:          "SmallFootprint",
		HighWaterMark: 32,
	}

	// DefaultConfig is used when New receives nil.
	DefaultConfig = ConfigDefault
)
