package pantry

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

var errBadQuantity = errors.New("bad quantity")

func parseIDParam(r *http.Request, name string) (uint, error) {
	return parseID(chi.URLParam(r, name))
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

// parseIDs parses every non-blank value and fails on the first malformed one.
func parseIDs(values []string) ([]uint, error) {
	ids := make([]uint, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		id, err := parseID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseQuantity accepts "2.5" and "2,5". Blank input yields 0 with no error;
// negative and non-finite values are rejected.
func parseQuantity(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	q, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || math.IsNaN(q) || math.IsInf(q, 0) || q < 0 {
		return 0, fmt.Errorf("%q: %w", raw, errBadQuantity)
	}
	return q, nil
}

func quantityField(productID uint) string {
	return fmt.Sprintf("quantity_%d", productID)
}

func uintString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
