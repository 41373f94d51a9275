package invoice

import (
	"strings"

	"github.com/indiancoinstore/coinstore-backend/internal/app/model"
)

// truncate shortens s to n runes, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func toUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func joinAddress(c model.Customer) string {
	addr := strings.TrimSpace(c.Address)
	city := strings.TrimSpace(c.City)
	if city == "" || strings.Contains(strings.ToLower(addr), strings.ToLower(city)) {
		return addr
	}
	return addr + ", " + city
}

func footerLine(shop, tagline string) string {
	if tagline == "" {
		return shop
	}
	return shop + " - " + tagline
}
