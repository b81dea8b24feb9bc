package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionKind enumerates every inline button action the bot understands.
type ActionKind int

const (
	ActionApprove ActionKind = iota
	ActionReject
	ActionPhotoFix
	ActionContactSeller
	ActionModEdit
	ActionShowListing
	ActionRepublish
	ActionSold
	ActionDelete
	ActionChangePrice
)

// EditField names a listing field a moderator can edit. It is a superset of
// the persisted text columns: price has its own validation and storage path.
type EditField string

const (
	EditName        EditField = "name"
	EditDescription EditField = "description"
	EditPrice       EditField = "price"
	EditCity        EditField = "city"
	EditDelivery    EditField = "delivery"
	EditTags        EditField = "tags"
)

// Action is a decoded callback token. Raw callback data is parsed into an
// Action exactly once at the dispatch boundary; handlers never see strings.
type Action struct {
	Kind      ActionKind
	Field     EditField // set only for ActionModEdit
	ListingID int64
}

var actionPrefixes = []struct {
	prefix string
	kind   ActionKind
}{
	{"approve_", ActionApprove},
	{"reject_", ActionReject},
	{"photo_fix_", ActionPhotoFix},
	{"contact_seller_", ActionContactSeller},
	{"show_", ActionShowListing},
	{"republish_", ActionRepublish},
	{"sold_", ActionSold},
	{"delete_", ActionDelete},
	{"change_price_", ActionChangePrice},
}

var editFields = map[string]EditField{
	"name":        EditName,
	"description": EditDescription,
	"price":       EditPrice,
	"city":        EditCity,
	"delivery":    EditDelivery,
	"tags":        EditTags,
}

// parseAction decodes callback data of the form "<action>_<listingId>" or
// "mod_edit_<field>_<listingId>".
func parseAction(data string) (Action, error) {
	if rest, ok := strings.CutPrefix(data, "mod_edit_"); ok {
		sep := strings.LastIndex(rest, "_")
		if sep == -1 {
			return Action{}, fmt.Errorf("malformed edit callback: %q", data)
		}
		field, ok := editFields[rest[:sep]]
		if !ok {
			return Action{}, fmt.Errorf("unknown edit field in callback: %q", data)
		}
		id, err := strconv.ParseInt(rest[sep+1:], 10, 64)
		if err != nil {
			return Action{}, fmt.Errorf("malformed listing id in callback %q: %w", data, err)
		}
		return Action{Kind: ActionModEdit, Field: field, ListingID: id}, nil
	}

	for _, p := range actionPrefixes {
		rest, ok := strings.CutPrefix(data, p.prefix)
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return Action{}, fmt.Errorf("malformed listing id in callback %q: %w", data, err)
		}
		return Action{Kind: p.kind, ListingID: id}, nil
	}

	return Action{}, fmt.Errorf("unknown callback: %q", data)
}

// callbackData renders an Action back to its wire form. It is the single
// counterpart of parseAction, used when building keyboards.
func callbackData(kind ActionKind, listingID int64) string {
	for _, p := range actionPrefixes {
		if p.kind == kind {
			return fmt.Sprintf("%s%d", p.prefix, listingID)
		}
	}
	panic(fmt.Sprintf("no callback prefix for action kind %d", kind))
}

func editCallbackData(field EditField, listingID int64) string {
	return fmt.Sprintf("mod_edit_%s_%d", field, listingID)
}
