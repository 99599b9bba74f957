package client

import (
	"fmt"
	"net/http"
	"strings"
)

// Backend endpoints
const (
	RegisterPath      = "/api/users/register/"
	RegisterOwnerPath = "/api/restaurants/register-owner/"
	LoginPath         = "/api/users/token/"
	RefreshPath       = "/api/users/token/refresh/"
	MePath            = "/api/users/me/"
	RestaurantsPath   = "/api/restaurants/"
)

// Classification tells whether a request must carry the access credential
type Classification int

const (
	// Protected requests carry "Authorization: Bearer <access>" when a credential is stored
	Protected Classification = iota
	// Public requests never carry a credential
	Public
)

func (c Classification) String() string {
	switch c {
	case Public:
		return "public"
	case Protected:
		return "protected"
	default:
		return fmt.Sprintf("classification(%d)", int(c))
	}
}

// publicPaths are public for every method, matched exactly
var publicPaths = map[string]struct{}{
	RegisterPath:      {},
	RegisterOwnerPath: {},
	LoginPath:         {},
	RefreshPath:       {},
}

// Classify maps a method and path to its classification.
// GET requests under RestaurantsPath are public browsing; an empty method means GET.
func Classify(method, path string) Classification {
	if _, ok := publicPaths[path]; ok {
		return Public
	}
	if (method == "" || strings.EqualFold(method, http.MethodGet)) && strings.HasPrefix(path, RestaurantsPath) {
		return Public
	}
	return Protected
}

func restaurantPath(id int64) string {
	return fmt.Sprintf("%s%d/", RestaurantsPath, id)
}

func categoriesPath(restaurantID int64) string {
	return restaurantPath(restaurantID) + "categories/"
}

func menuPath(restaurantID int64) string {
	return restaurantPath(restaurantID) + "menu/"
}

func menuItemPath(restaurantID, itemID int64) string {
	return fmt.Sprintf("%s%d/", menuPath(restaurantID), itemID)
}

func qrCodePath(restaurantID int64) string {
	return restaurantPath(restaurantID) + "generate-qr/"
}
