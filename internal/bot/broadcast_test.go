package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ukrmarket/baraholka-bot/internal/storage"
)

func fullListing() *storage.Listing {
	return &storage.Listing{
		ID:          1,
		Name:        "Велосипед",
		Price:       1500,
		Description: "Майже новий, катався один сезон",
		City:        "Київ",
		Delivery:    "Нова Пошта",
		Tags:        "#велосипед #спорт",
	}
}

func TestComposeBroadcastFull(t *testing.T) {
	seller := &storage.User{ID: 42, Username: "oksana", Phone: "+380501234567"}

	want := "📦 Велосипед\n\n" +
		"💰 Ціна: 1500.00 грн\n\n" +
		"📝 Майже новий, катався один сезон\n\n" +
		"📍 Місто: Київ\n\n" +
		"🚚 Доставка: Нова Пошта\n\n" +
		"#велосипед #спорт\n\n" +
		"📞 Контакт: @oksana"

	assert.Equal(t, want, ComposeBroadcast(fullListing(), seller))
}

func TestComposeBroadcastOmitsEmptyBlocks(t *testing.T) {
	l := fullListing()
	l.City = ""
	l.Tags = ""

	text := ComposeBroadcast(l, nil)

	assert.NotContains(t, text, "Місто")
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "Контакт")
	assert.Contains(t, text, "🚚 Доставка: Нова Пошта")
}

func TestComposeBroadcastPhoneFallback(t *testing.T) {
	seller := &storage.User{ID: 42, Phone: "+380501234567"}

	text := ComposeBroadcast(fullListing(), seller)

	assert.Contains(t, text, "📞 Контакт: +380501234567")
}

func TestComposeBroadcastPrefersUsernameOverPhone(t *testing.T) {
	seller := &storage.User{ID: 42, Username: "oksana", Phone: "+380501234567"}

	text := ComposeBroadcast(fullListing(), seller)

	assert.Contains(t, text, "@oksana")
	assert.NotContains(t, text, "+380501234567")
}
