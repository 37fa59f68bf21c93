package config

// Default paths for on-disk state
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./bookshelf.db"

	// DefaultUploadsDir is where uploaded cover images are stored
	DefaultUploadsDir = "./uploads"
)
