package allocation

import (
	"errors"
	"fmt"
	"strings"
)

// Method selects the line-item measure used to split a shared expense.
type Method string

const (
	// MethodByUnits splits proportionally to ordered quantity.
	MethodByUnits Method = "by_units"
	// MethodByBoxes splits proportionally to the declared box count.
	MethodByBoxes Method = "by_boxes"
	// MethodByWeight splits proportionally to qty x declared unit weight.
	MethodByWeight Method = "by_weight"
	// MethodByVolume splits proportionally to qty x declared unit volume.
	MethodByVolume Method = "by_volume"
	// MethodByFOBValue splits proportionally to the FOB subtotal.
	MethodByFOBValue Method = "by_fob_value"
)

// ErrUnknownMethod is returned when parsing an unrecognised method name.
var ErrUnknownMethod = errors.New("allocation: unknown method")

// ParseMethod converts a stored or configured string into a Method.
func ParseMethod(value string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(value))) {
	case MethodByUnits:
		return MethodByUnits, nil
	case MethodByBoxes:
		return MethodByBoxes, nil
	case MethodByWeight:
		return MethodByWeight, nil
	case MethodByVolume:
		return MethodByVolume, nil
	case MethodByFOBValue:
		return MethodByFOBValue, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, value)
	}
}

// Methods returns every supported method, for validation and admin listings.
func Methods() []Method {
	return []Method{MethodByUnits, MethodByBoxes, MethodByWeight, MethodByVolume, MethodByFOBValue}
}
