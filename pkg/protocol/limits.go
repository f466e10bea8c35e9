package protocol

// Allocation limits to prevent DoS attacks via malicious length prefixes.
const (
	// DefaultMaxAllocation is the maximum size of a single string or byte
	// field (4MB).
	DefaultMaxAllocation = 4 * 1024 * 1024

	// MaxPayloadSize is the maximum frame payload size (8MB).
	MaxPayloadSize = 8 * 1024 * 1024

	// MaxCollectionCount is the maximum number of items in a collection,
	// such as the records of a batch or the attributes of a record.
	MaxCollectionCount = 100_000
)
