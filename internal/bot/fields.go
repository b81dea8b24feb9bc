package bot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParsePrice parses a user-entered price in hryvnias. Both "." and "," are
// accepted as the decimal separator. The price must be strictly positive.
func ParsePrice(text string) (float64, error) {
	text = strings.TrimSpace(text)
	text = strings.Replace(text, ",", ".", 1)
	price, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", text)
	}
	// ParseFloat also accepts NaN and Inf spellings
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("not a finite number: %q", text)
	}
	if price <= 0 {
		return 0, fmt.Errorf("price must be positive: %v", price)
	}
	return price, nil
}

// FormatPrice renders a price the way it appears everywhere the user sees it.
func FormatPrice(price float64) string {
	return fmt.Sprintf("%.2f грн", price)
}

// NormalizeCity trims the input and maps the "-" placeholder to an empty
// string, meaning the seller chose not to name a city.
func NormalizeCity(text string) string {
	text = strings.TrimSpace(text)
	if text == "-" {
		return ""
	}
	return text
}

// NormalizeTags splits the input on commas, trims each token and keeps only
// tokens that start with "#". It never fails: input with no valid tags yields
// an empty string.
func NormalizeTags(text string) string {
	var tags []string
	for _, token := range strings.Split(text, ",") {
		token = strings.TrimSpace(token)
		if strings.HasPrefix(token, "#") {
			tags = append(tags, token)
		}
	}
	return strings.Join(tags, " ")
}
