package pipeline

// Default values for import runs.
const (
	// DefaultUserID is used when the caller does not name a user.
	DefaultUserID = "default"

	// DefaultFeedPageLimit caps how many feed pages one sync may read.
	DefaultFeedPageLimit = 100
)
