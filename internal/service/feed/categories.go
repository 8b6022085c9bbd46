package feed

import (
	"strings"

	svcErr "github.com/tandemapp/tandem-server/internal/errors"
)

// Categories is the fixed category set. It mirrors the client's catalog and
// is not mutated by this service.
var Categories = []string{"casa", "salir", "peliculas", "comidas", "hot"}

var categorySet = func() map[string]bool {
	m := make(map[string]bool, len(Categories))
	for _, c := range Categories {
		m[c] = true
	}
	return m
}()

// NormalizeCategory lower-cases and validates an incoming category parameter.
func NormalizeCategory(raw string) (string, error) {
	category := strings.ToLower(strings.TrimSpace(raw))
	if !categorySet[category] {
		return "", svcErr.ErrUnknownCategory
	}
	return category, nil
}

const (
	DirectionLike      = "like"
	DirectionDislike   = "dislike"
	DirectionSuperlike = "superlike"
)

// ValidateDirection checks a swipe direction against the known set.
func ValidateDirection(direction string) error {
	switch direction {
	case DirectionLike, DirectionDislike, DirectionSuperlike:
		return nil
	}
	return svcErr.ErrInvalidDirection
}
