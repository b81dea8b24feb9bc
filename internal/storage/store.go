package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Status is the lifecycle status of a persisted listing.
type Status string

const (
	StatusModeration Status = "moderation"
	StatusActive     Status = "active"
	StatusRejected   Status = "rejected"
	StatusSold       Status = "sold"
)

// User is a registered bot user. Phone is stored encrypted and transparently
// decrypted by the store.
type User struct {
	ID           int64
	FirstName    string
	Username     string
	Phone        string
	Moderator    bool
	RegisteredAt time.Time
}

// Listing is an item for sale. ChannelMessageID is 0 when the listing has no
// live broadcast post.
type Listing struct {
	ID               int64
	SellerID         int64
	Name             string
	Price            float64
	Description      string
	PhotoFileID      string
	Status           Status
	ModerationNotes  string
	ChannelMessageID int64
	LastRepublishAt  time.Time
	Tags             string
	City             string
	Delivery         string
	Views            int64
	CreatedAt        time.Time
}

// ListingField names a single moderator-editable listing column.
type ListingField string

const (
	FieldName        ListingField = "name"
	FieldDescription ListingField = "description"
	FieldCity        ListingField = "city"
	FieldDelivery    ListingField = "delivery"
	FieldTags        ListingField = "tags"
)

// Store defines the persistence interface the bot depends on.
type Store interface {
	UpsertUser(u *User) error
	GetUser(id int64) (*User, error)
	SetUserPhone(id int64, phone string) error

	CreateListing(l *Listing) (int64, error)
	GetListing(id int64) (*Listing, error)
	GetUserListings(sellerID int64) ([]Listing, error)
	SetListingStatus(id int64, status Status) error
	SetListingPublished(id int64, channelMessageID int64) error
	SetListingRepublished(id int64, channelMessageID int64, at time.Time) error
	ClearChannelMessage(id int64, status Status) error
	UpdateListingPrice(id int64, price float64) error
	UpdateListingField(id int64, field ListingField, value string) error
	SetListingPhoto(id int64, fileID string) error
	DeleteListing(id int64) error

	LogConversationMessage(userID, listingID int64, senderType, body string) error

	Close() error
}

// SQLiteStore implements Store using SQLite. Phone numbers are encrypted with
// AES-GCM before they hit the disk.
type SQLiteStore struct {
	db       *sql.DB
	phoneKey []byte
	mu       sync.RWMutex
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
// phoneKey is the 32-byte key used for phone number encryption.
func NewSQLiteStore(dbPath string, phoneKey []byte) (*SQLiteStore, error) {
	// WAL mode and busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{
		db:       db,
		phoneKey: phoneKey,
	}

	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT '',
		encrypted_phone TEXT NOT NULL DEFAULT '',
		moderator INTEGER NOT NULL DEFAULT 0,
		registered_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS listings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seller_id INTEGER NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		price REAL NOT NULL,
		description TEXT NOT NULL,
		photo_file_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'moderation',
		moderation_notes TEXT NOT NULL DEFAULT '',
		channel_message_id INTEGER NOT NULL DEFAULT 0,
		last_republish_at DATETIME,
		tags TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		delivery TEXT NOT NULL DEFAULT '',
		views INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS support_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		resolved INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		listing_id INTEGER NOT NULL REFERENCES listings(id),
		buyer_id INTEGER NOT NULL REFERENCES users(id),
		amount REAL NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		listing_id INTEGER NOT NULL REFERENCES listings(id),
		author_id INTEGER NOT NULL REFERENCES users(id),
		rating INTEGER NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		listing_id INTEGER,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id INTEGER NOT NULL REFERENCES conversations(id),
		sender_type TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS favorites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		listing_id INTEGER NOT NULL REFERENCES listings(id),
		UNIQUE(user_id, listing_id)
	);
	CREATE TABLE IF NOT EXISTS commission_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		listing_id INTEGER NOT NULL REFERENCES listings(id),
		seller_id INTEGER NOT NULL REFERENCES users(id),
		amount REAL NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending_payment',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		paid_at DATETIME
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// UpsertUser creates the user row on first contact or refreshes the display
// fields on later ones. Phone and moderator flag are not touched on update.
func (s *SQLiteStore) UpsertUser(u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO users (id, first_name, username, moderator)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET first_name = excluded.first_name, username = excluded.username`,
		u.ID, u.FirstName, u.Username, boolToInt(u.Moderator),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by Telegram ID. Returns ErrNotFound if the user is
// unknown.
func (s *SQLiteStore) GetUser(id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var u User
	var encryptedPhone string
	var moderator int
	err := s.db.QueryRow(`
		SELECT id, first_name, username, encrypted_phone, moderator, registered_at
		FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.FirstName, &u.Username, &encryptedPhone, &moderator, &u.RegisteredAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.Moderator = moderator != 0

	if encryptedPhone != "" {
		phone, err := Decrypt(encryptedPhone, s.phoneKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt phone: %w", err)
		}
		u.Phone = string(phone)
	}
	return &u, nil
}

// SetUserPhone stores the user's phone number, encrypted at rest.
func (s *SQLiteStore) SetUserPhone(id int64, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encrypted, err := Encrypt([]byte(phone), s.phoneKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt phone: %w", err)
	}
	res, err := s.db.Exec(`UPDATE users SET encrypted_phone = ? WHERE id = ?`, encrypted, id)
	if err != nil {
		return fmt.Errorf("failed to set phone: %w", err)
	}
	return requireRow(res)
}

// CreateListing persists a new listing and returns its ID.
func (s *SQLiteStore) CreateListing(l *Listing) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		INSERT INTO listings (seller_id, name, price, description, photo_file_id, status, city, delivery, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.SellerID, l.Name, l.Price, l.Description, l.PhotoFileID, string(l.Status), l.City, l.Delivery, l.Tags,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert listing: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get listing id: %w", err)
	}
	log.Info().Int64("listingId", id).Int64("sellerId", l.SellerID).Msg("listing created")
	return id, nil
}

// GetListing retrieves a listing by ID. Returns ErrNotFound if it does not
// exist.
func (s *SQLiteStore) GetListing(id int64) (*Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(listingSelect+` WHERE id = ?`, id)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query listing: %w", err)
	}
	return l, nil
}

// GetUserListings returns all of a seller's listings, newest first.
func (s *SQLiteStore) GetUserListings(sellerID int64) ([]Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(listingSelect+` WHERE seller_id = ? ORDER BY created_at DESC, id DESC`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

const listingSelect = `
	SELECT id, seller_id, name, price, description, photo_file_id, status,
	       moderation_notes, channel_message_id, last_republish_at, tags, city,
	       delivery, views, created_at
	FROM listings`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*Listing, error) {
	var l Listing
	var status string
	var lastRepublish sql.NullTime
	err := row.Scan(
		&l.ID, &l.SellerID, &l.Name, &l.Price, &l.Description, &l.PhotoFileID,
		&status, &l.ModerationNotes, &l.ChannelMessageID, &lastRepublish,
		&l.Tags, &l.City, &l.Delivery, &l.Views, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Status = Status(status)
	if lastRepublish.Valid {
		l.LastRepublishAt = lastRepublish.Time
	}
	return &l, nil
}

// SetListingStatus updates the status column only.
func (s *SQLiteStore) SetListingStatus(id int64, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE listings SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return requireRow(res)
}

// SetListingPublished marks the listing active and records its broadcast post.
func (s *SQLiteStore) SetListingPublished(id int64, channelMessageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE listings SET status = ?, channel_message_id = ?, views = 0 WHERE id = ?`,
		string(StatusActive), channelMessageID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to publish listing: %w", err)
	}
	return requireRow(res)
}

// SetListingRepublished swaps the broadcast post reference and records when.
func (s *SQLiteStore) SetListingRepublished(id int64, channelMessageID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE listings SET channel_message_id = ?, last_republish_at = ?, views = 0 WHERE id = ?`,
		channelMessageID, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to republish listing: %w", err)
	}
	return requireRow(res)
}

// ClearChannelMessage drops the broadcast post reference and sets the given
// status in one statement, keeping the reference and status consistent.
func (s *SQLiteStore) ClearChannelMessage(id int64, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE listings SET channel_message_id = 0, status = ? WHERE id = ?`,
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("failed to clear channel message: %w", err)
	}
	return requireRow(res)
}

// UpdateListingPrice updates the price column only. An existing broadcast post
// keeps its old text until the listing is republished.
func (s *SQLiteStore) UpdateListingPrice(id int64, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE listings SET price = ? WHERE id = ?`, price, id)
	if err != nil {
		return fmt.Errorf("failed to update price: %w", err)
	}
	return requireRow(res)
}

// UpdateListingField writes a single moderator-editable text column.
func (s *SQLiteStore) UpdateListingField(id int64, field ListingField, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var query string
	switch field {
	case FieldName:
		query = `UPDATE listings SET name = ? WHERE id = ?`
	case FieldDescription:
		query = `UPDATE listings SET description = ? WHERE id = ?`
	case FieldCity:
		query = `UPDATE listings SET city = ? WHERE id = ?`
	case FieldDelivery:
		query = `UPDATE listings SET delivery = ? WHERE id = ?`
	case FieldTags:
		query = `UPDATE listings SET tags = ? WHERE id = ?`
	default:
		return fmt.Errorf("unknown listing field: %s", field)
	}

	res, err := s.db.Exec(query, value, id)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", field, err)
	}
	return requireRow(res)
}

// SetListingPhoto replaces the photo reference.
func (s *SQLiteStore) SetListingPhoto(id int64, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE listings SET photo_file_id = ? WHERE id = ?`, fileID, id)
	if err != nil {
		return fmt.Errorf("failed to update photo: %w", err)
	}
	return requireRow(res)
}

// DeleteListing removes a listing and all rows that reference it. Dependents
// go first so the schema's references never dangle mid-delete.
func (s *SQLiteStore) DeleteListing(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	steps := []string{
		`DELETE FROM commission_transactions WHERE listing_id = ?`,
		`DELETE FROM favorites WHERE listing_id = ?`,
		`DELETE FROM messages WHERE conversation_id IN (SELECT id FROM conversations WHERE listing_id = ?)`,
		`DELETE FROM conversations WHERE listing_id = ?`,
		`DELETE FROM reviews WHERE listing_id = ?`,
		`DELETE FROM transactions WHERE listing_id = ?`,
	}
	for _, q := range steps {
		if _, err := tx.Exec(q, id); err != nil {
			return fmt.Errorf("failed to delete dependents: %w", err)
		}
	}

	res, err := tx.Exec(`DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	log.Info().Int64("listingId", id).Msg("listing deleted")
	return nil
}

// LogConversationMessage appends a message to the user's conversation thread,
// creating the thread on first use. listingID may be 0 for assistant chat.
func (s *SQLiteStore) LogConversationMessage(userID, listingID int64, senderType, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var listing any
	if listingID != 0 {
		listing = listingID
	}

	var convID int64
	err := s.db.QueryRow(
		`SELECT id FROM conversations WHERE user_id = ? AND listing_id IS ? ORDER BY id LIMIT 1`,
		userID, listing,
	).Scan(&convID)
	if err == sql.ErrNoRows {
		res, err := s.db.Exec(`INSERT INTO conversations (user_id, listing_id) VALUES (?, ?)`, userID, listing)
		if err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}
		convID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get conversation id: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to query conversation: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO messages (conversation_id, sender_type, body) VALUES (?, ?, ?)`,
		convID, senderType, body,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
