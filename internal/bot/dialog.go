package bot

import "sync"

// Stage identifies where in a multi-step dialogue a user currently is.
type Stage int

const (
	StageNone Stage = iota

	// Listing creation, in the order the questions are asked.
	StageName
	StagePrice
	StageDescription
	StagePhoto
	StageCity
	StageDelivery
	StageTags

	// Seller replacing a photo after a moderator asked for one.
	StagePhotoFix

	// Moderator entering a new value for a single listing field.
	StageModEdit

	// Owner entering a new price from the listing management menu.
	StageOwnerPrice
)

func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageName:
		return "awaiting_name"
	case StagePrice:
		return "awaiting_price"
	case StageDescription:
		return "awaiting_description"
	case StagePhoto:
		return "awaiting_photo"
	case StageCity:
		return "awaiting_city"
	case StageDelivery:
		return "awaiting_delivery"
	case StageTags:
		return "awaiting_tags"
	case StagePhotoFix:
		return "awaiting_photo_fix"
	case StageModEdit:
		return "awaiting_mod_edit"
	case StageOwnerPrice:
		return "awaiting_owner_price"
	default:
		return "unknown"
	}
}

// Draft accumulates the answers of the listing creation dialogue.
type Draft struct {
	Name        string
	Price       float64
	Description string
	PhotoFileID string
	City        string
	Delivery    string
	Tags        string
}

// DialogEntry is one user's dialogue state. Exactly one entry exists per user;
// starting a new dialogue replaces whatever was there before.
type DialogEntry struct {
	Stage Stage
	Draft Draft

	// Set for stages that operate on an existing listing
	// (photo fix, moderator edit, owner price change).
	ListingID int64
	Field     EditField
}

// DialogStore keeps per-user dialogue state.
type DialogStore interface {
	Get(userID int64) (DialogEntry, bool)
	Set(userID int64, entry DialogEntry)
	Clear(userID int64)
}

// memoryDialogStore is the in-memory DialogStore used in production. Dialogue
// state is transient by design: a restart drops half-finished dialogues and
// users simply start over.
type memoryDialogStore struct {
	mu      sync.Mutex
	entries map[int64]DialogEntry
}

// NewDialogStore returns an empty in-memory dialogue store.
func NewDialogStore() DialogStore {
	return &memoryDialogStore{entries: make(map[int64]DialogEntry)}
}

func (d *memoryDialogStore) Get(userID int64) (DialogEntry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.entries[userID]
	return entry, ok
}

func (d *memoryDialogStore) Set(userID int64, entry DialogEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[userID] = entry
}

func (d *memoryDialogStore) Clear(userID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, userID)
}
