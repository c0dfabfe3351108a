package domain

import (
	"strings"

	"github.com/google/uuid"
)

// CanonicalContext is the system-agnostic pivot vocabulary for all mappings.
const CanonicalContext = "DCB"

// Mapping categories.
const (
	CategoryPatronType     = "patronType"
	CategoryItemType       = "ItemType"
	CategoryLocation       = "Location"
	CategoryAgency         = "AGENCY"
	CategoryPickupLocation = "PickupLocation"
)

// NonCirculatingItemType is the canonical item type for items that may not
// leave their owning agency.
const NonCirculatingItemType = "NONCIRC"

// ReferenceValueMapping maps one exact value between contexts.
type ReferenceValueMapping struct {
	ID           uuid.UUID
	FromCategory string
	FromContext  string
	FromValue    string
	ToCategory   string
	ToContext    string
	ToValue      string
}

// mappingNamespace seeds deterministic mapping ids.
var mappingNamespace = uuid.MustParse("3b1e2c47-9d0c-4f0a-9a53-6c2b1e4d7f10")

// ReferenceValueMappingID derives a stable id from the mapping's source key so
// re-imports upsert rather than duplicate.
func ReferenceValueMappingID(fromCategory, fromContext, fromValue, toCategory, toContext string) uuid.UUID {
	key := strings.Join([]string{fromCategory, fromContext, fromValue, toCategory, toContext}, ":")
	return uuid.NewSHA1(mappingNamespace, []byte(key))
}

// NumericRangeMapping maps an inclusive integer range to one value.
type NumericRangeMapping struct {
	ID            uuid.UUID
	Context       string
	Domain        string
	LowerBound    int64
	UpperBound    int64
	TargetContext string
	MappedValue   string
}

// Covers reports whether v falls inside the inclusive range.
func (m NumericRangeMapping) Covers(v int64) bool {
	return v >= m.LowerBound && v <= m.UpperBound
}

// Overlaps reports whether m and o share at least one value.
func (m NumericRangeMapping) Overlaps(o NumericRangeMapping) bool {
	return m.LowerBound <= o.UpperBound && o.LowerBound <= m.UpperBound
}
