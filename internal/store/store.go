package store

// Persisted record keys. Keys are versioned so a future schema change can be
// migrated by key renaming instead of guessing at the payload shape.
const (
	KeyTimeEntries  = "time_entries.v1"
	KeyBudgets      = "ticket_budgets.v1"
	KeyAccessToken  = "auth.access_token.v1"
	KeyRefreshToken = "auth.refresh_token.v1"
)

// Store is the key-value persistence port for deskbridge.
type Store interface {
	// Get returns the value for key. The boolean reports whether the key
	// was present.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}
