package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		data string
		want Action
	}{
		{"approve_12", Action{Kind: ActionApprove, ListingID: 12}},
		{"reject_7", Action{Kind: ActionReject, ListingID: 7}},
		{"photo_fix_3", Action{Kind: ActionPhotoFix, ListingID: 3}},
		{"contact_seller_9", Action{Kind: ActionContactSeller, ListingID: 9}},
		{"show_1", Action{Kind: ActionShowListing, ListingID: 1}},
		{"republish_42", Action{Kind: ActionRepublish, ListingID: 42}},
		{"sold_42", Action{Kind: ActionSold, ListingID: 42}},
		{"delete_42", Action{Kind: ActionDelete, ListingID: 42}},
		{"change_price_5", Action{Kind: ActionChangePrice, ListingID: 5}},
		{"mod_edit_name_8", Action{Kind: ActionModEdit, Field: EditName, ListingID: 8}},
		{"mod_edit_description_8", Action{Kind: ActionModEdit, Field: EditDescription, ListingID: 8}},
		{"mod_edit_price_8", Action{Kind: ActionModEdit, Field: EditPrice, ListingID: 8}},
		{"mod_edit_tags_8", Action{Kind: ActionModEdit, Field: EditTags, ListingID: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := parseAction(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseActionErrors(t *testing.T) {
	for _, data := range []string{
		"",
		"approve_",
		"approve_abc",
		"frobnicate_12",
		"mod_edit_12",
		"mod_edit_color_12",
		"mod_edit_price_",
	} {
		t.Run(data, func(t *testing.T) {
			_, err := parseAction(data)
			assert.Error(t, err)
		})
	}
}

func TestCallbackDataRoundTrip(t *testing.T) {
	kinds := []ActionKind{
		ActionApprove, ActionReject, ActionPhotoFix, ActionContactSeller,
		ActionShowListing, ActionRepublish, ActionSold, ActionDelete, ActionChangePrice,
	}
	for _, kind := range kinds {
		action, err := parseAction(callbackData(kind, 77))
		require.NoError(t, err)
		assert.Equal(t, Action{Kind: kind, ListingID: 77}, action)
	}

	action, err := parseAction(editCallbackData(EditDelivery, 77))
	require.NoError(t, err)
	assert.Equal(t, Action{Kind: ActionModEdit, Field: EditDelivery, ListingID: 77}, action)
}
