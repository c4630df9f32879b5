package dedupe

const defaultMaxSize = 50000

// Option configures the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of remembered match IDs. The oldest
// entries are evicted first. Zero or negative disables eviction.
func WithMaxSize(n int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = n
	}
}
