package models

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UdiScheme is the URI scheme used for block identifiers.
const UdiScheme = "block"

// UdiEntityElement is the entity type for embeddable content elements.
const UdiEntityElement = "element"

// Udi is a serialized block identifier of the form
// "block://element/<32 hex chars>". It is the reference format used by
// layout nodes to point at content and settings records.
type Udi string

// NewElementUdi builds the canonical element Udi for a record key.
func NewElementUdi(key uuid.UUID) Udi {
	return Udi(fmt.Sprintf("%s://%s/%s", UdiScheme, UdiEntityElement, hex.EncodeToString(key[:])))
}

// Key parses the record key out of the Udi. The zero UUID and ok=false are
// returned for anything that is not a well-formed element Udi.
func (u Udi) Key() (uuid.UUID, bool) {
	s := string(u)
	prefix := UdiScheme + "://" + UdiEntityElement + "/"
	if !strings.HasPrefix(s, prefix) {
		return uuid.Nil, false
	}
	raw, err := hex.DecodeString(s[len(prefix):])
	if err != nil || len(raw) != 16 {
		return uuid.Nil, false
	}
	key, err := uuid.FromBytes(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return key, true
}

// IsEmpty reports whether the Udi is unset.
func (u Udi) IsEmpty() bool {
	return u == ""
}
