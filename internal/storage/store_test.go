package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), testKey)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestListing(t *testing.T, store *SQLiteStore, sellerID int64) int64 {
	t.Helper()
	require.NoError(t, store.UpsertUser(&User{ID: sellerID, FirstName: "Оксана", Username: "oksana"}))
	id, err := store.CreateListing(&Listing{
		SellerID:    sellerID,
		Name:        "Велосипед",
		Price:       1500,
		Description: "Майже новий",
		PhotoFileID: "photo123",
		Status:      StatusModeration,
		City:        "Київ",
		Delivery:    "Нова Пошта",
		Tags:        "#спорт #велосипед",
	})
	require.NoError(t, err)
	return id
}

func TestUpsertUserPreservesPhone(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.UpsertUser(&User{ID: 1, FirstName: "Іван", Username: "ivan"}))
	require.NoError(t, store.SetUserPhone(1, "+380501234567"))

	// later contact with updated display fields
	require.NoError(t, store.UpsertUser(&User{ID: 1, FirstName: "Іван Петрович", Username: "ivan_p"}))

	u, err := store.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, "Іван Петрович", u.FirstName)
	assert.Equal(t, "ivan_p", u.Username)
	assert.Equal(t, "+380501234567", u.Phone)
}

func TestGetUserNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetUser(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPhoneEncryptedAtRest(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.UpsertUser(&User{ID: 1, FirstName: "Іван"}))
	require.NoError(t, store.SetUserPhone(1, "+380501234567"))

	var raw string
	err := store.db.QueryRow(`SELECT encrypted_phone FROM users WHERE id = 1`).Scan(&raw)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.NotContains(t, raw, "380501234567")
}

func TestCreateAndGetListing(t *testing.T) {
	store := newTestStore(t)
	id := createTestListing(t, store, 42)

	l, err := store.GetListing(id)
	require.NoError(t, err)
	assert.Equal(t, "Велосипед", l.Name)
	assert.Equal(t, 1500.0, l.Price)
	assert.Equal(t, StatusModeration, l.Status)
	assert.Equal(t, int64(0), l.ChannelMessageID)
	assert.True(t, l.LastRepublishAt.IsZero())
}

func TestSetListingPublished(t *testing.T) {
	store := newTestStore(t)
	id := createTestListing(t, store, 42)

	require.NoError(t, store.SetListingPublished(id, 777))

	l, err := store.GetListing(id)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, l.Status)
	assert.Equal(t, int64(777), l.ChannelMessageID)
}

func TestSetListingRepublished(t *testing.T) {
	store := newTestStore(t)
	id := createTestListing(t, store, 42)
	require.NoError(t, store.SetListingPublished(id, 777))

	at := time.Now()
	require.NoError(t, store.SetListingRepublished(id, 888, at))

	l, err := store.GetListing(id)
	require.NoError(t, err)
	assert.Equal(t, int64(888), l.ChannelMessageID)
	assert.WithinDuration(t, at, l.LastRepublishAt, time.Second)
}

func TestClearChannelMessage(t *testing.T) {
	store := newTestStore(t)
	id := createTestListing(t, store, 42)
	require.NoError(t, store.SetListingPublished(id, 777))

	require.NoError(t, store.ClearChannelMessage(id, StatusSold))

	l, err := store.GetListing(id)
	require.NoError(t, err)
	assert.Equal(t, StatusSold, l.Status)
	assert.Equal(t, int64(0), l.ChannelMessageID)
}

func TestUpdateListingPriceLeavesStatus(t *testing.T) {
	store := newTestStore(t)
	id := createTestListing(t, store, 42)
	require.NoError(t, store.SetListingPublished(id, 777))

	require.NoError(t, store.UpdateListingPrice(id, 1200))

	l, err := store.GetListing(id)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, l.Price)
	assert.Equal(t, StatusActive, l.Status)
	assert.Equal(t, int64(777), l.ChannelMessageID)
}

func TestUpdateListingField(t *testing.T) {
	store := newTestStore(t)
	id := createTestListing(t, store, 42)

	require.NoError(t, store.UpdateListingField(id, FieldCity, "Львів"))
	require.NoError(t, store.UpdateListingField(id, FieldTags, "#зима"))

	l, err := store.GetListing(id)
	require.NoError(t, err)
	assert.Equal(t, "Львів", l.City)
	assert.Equal(t, "#зима", l.Tags)
	assert.Equal(t, StatusModeration, l.Status)

	err = store.UpdateListingField(id, ListingField("price"), "1")
	assert.Error(t, err)
}

func TestUpdateMissingListing(t *testing.T) {
	store := newTestStore(t)

	assert.ErrorIs(t, store.SetListingStatus(999, StatusActive), ErrNotFound)
	assert.ErrorIs(t, store.UpdateListingPrice(999, 10), ErrNotFound)
}

func TestDeleteListingCascades(t *testing.T) {
	store := newTestStore(t)
	id := createTestListing(t, store, 42)

	// seed dependent rows the way buyers interacting with a listing would
	_, err := store.db.Exec(`INSERT INTO favorites (user_id, listing_id) VALUES (42, ?)`, id)
	require.NoError(t, err)
	_, err = store.db.Exec(`INSERT INTO commission_transactions (listing_id, seller_id, amount) VALUES (?, 42, 75)`, id)
	require.NoError(t, err)
	require.NoError(t, store.LogConversationMessage(42, id, "user", "Ще актуально?"))

	require.NoError(t, store.DeleteListing(id))

	_, err = store.GetListing(id)
	assert.ErrorIs(t, err, ErrNotFound)

	var n int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM favorites`).Scan(&n))
	assert.Equal(t, 0, n)
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM commission_transactions`).Scan(&n))
	assert.Equal(t, 0, n)
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&n))
	assert.Equal(t, 0, n)
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM conversations`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestGetUserListingsOrder(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.UpsertUser(&User{ID: 42, FirstName: "Оксана"}))

	first, err := store.CreateListing(&Listing{SellerID: 42, Name: "Стіл", Price: 100, Status: StatusModeration})
	require.NoError(t, err)
	second, err := store.CreateListing(&Listing{SellerID: 42, Name: "Стілець", Price: 50, Status: StatusModeration})
	require.NoError(t, err)

	listings, err := store.GetUserListings(42)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, second, listings[0].ID)
	assert.Equal(t, first, listings[1].ID)

	listings, err = store.GetUserListings(7)
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestLogConversationMessageReusesThread(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.UpsertUser(&User{ID: 42, FirstName: "Оксана"}))

	require.NoError(t, store.LogConversationMessage(42, 0, "user", "Привіт"))
	require.NoError(t, store.LogConversationMessage(42, 0, "assistant", "Вітаю!"))

	var n int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM conversations`).Scan(&n))
	assert.Equal(t, 1, n)
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	encrypted, err := Encrypt([]byte("+380501234567"), testKey)
	require.NoError(t, err)

	decrypted, err := Decrypt(encrypted, testKey)
	require.NoError(t, err)
	assert.Equal(t, "+380501234567", string(decrypted))

	// wrong key must not decrypt
	otherKey := []byte("ffffffffffffffffffffffffffffffff")
	_, err = Decrypt(encrypted, otherKey)
	assert.Error(t, err)
}

func TestDeriveKey(t *testing.T) {
	key, err := DeriveKey("secret-passphrase")
	require.NoError(t, err)
	assert.Len(t, key, 32)

	again, err := DeriveKey("secret-passphrase")
	require.NoError(t, err)
	assert.Equal(t, key, again)

	other, err := DeriveKey("another-passphrase")
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}
