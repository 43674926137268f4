package cloth

import "errors"

// Error conditions reported by the simulator. Returned errors wrap one of these,
// so callers test with errors.Is.
var (
	// ErrConfiguration reports invalid setup values (dimensions, spacing, material).
	ErrConfiguration = errors.New("cloth: invalid configuration")

	// ErrIndexOutOfRange reports an invalid particle, constraint or collision object index.
	ErrIndexOutOfRange = errors.New("cloth: index out of range")

	// ErrIO reports a save or load failure, including version mismatch and truncated data.
	ErrIO = errors.New("cloth: io failure")

	// ErrNotInitialized reports an operation that needs a particle grid.
	ErrNotInitialized = errors.New("cloth: simulator not initialized")
)
