// Package wire holds the JSON conventions shared with existing clients:
// record IDs travel as {"$oid": "..."} and timestamps as {"$date": "..."}.
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ID is a record identifier. It is stored as a plain string and rendered as
// {"$oid": id} on the wire.
type ID string

type oidEnvelope struct {
	OID string `json:"$oid"`
}

func NewID() ID {
	return ID(primitive.NewObjectID().Hex())
}

func (id ID) String() string {
	return string(id)
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(oidEnvelope{OID: string(id)})
}

// UnmarshalJSON accepts both {"$oid": "..."} and a bare string.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var env oidEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return errors.New("wire: id must be a string or {\"$oid\": string}")
	}
	*id = ID(strings.TrimSpace(env.OID))
	return nil
}

// IDs converts plain strings into IDs, dropping blanks.
func IDs(values []string) []ID {
	out := make([]ID, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, ID(v))
		}
	}
	return out
}
