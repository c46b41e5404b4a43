package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Date is a timestamp rendered as {"$date": "<RFC3339>"} and stored as a
// native BSON datetime.
type Date struct {
	time.Time
}

type dateEnvelope struct {
	Date string `json:"$date"`
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func NewDate(t time.Time) Date {
	return Date{Time: t.UTC()}
}

func Now() Date {
	return NewDate(time.Now())
}

// ParseDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return NewDate(t), nil
		}
	}
	return Date{}, fmt.Errorf("wire: invalid date %q", raw)
}

// MarshalJSON writes a zero Date as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(dateEnvelope{Date: d.UTC().Format("2006-01-02T15:04:05.000Z07:00")})
}

// UnmarshalJSON accepts {"$date": "..."} or a bare date string.
func (d *Date) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var raw string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	} else {
		var env dateEnvelope
		if err := json.Unmarshal(b, &env); err != nil {
			return fmt.Errorf("wire: date must be a string or {\"$date\": string}")
		}
		raw = env.Date
	}
	if strings.TrimSpace(raw) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if d.IsZero() {
		return bson.TypeNull, nil, nil
	}
	return bson.MarshalValue(d.Time)
}

func (d *Date) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bson.TypeNull, bson.TypeUndefined:
		*d = Date{}
		return nil
	case bson.TypeDateTime:
		rv := bson.RawValue{Type: t, Value: data}
		*d = NewDate(rv.Time())
		return nil
	case bson.TypeString:
		rv := bson.RawValue{Type: t, Value: data}
		parsed, err := ParseDate(rv.StringValue())
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	return fmt.Errorf("wire: cannot decode bson %s into Date", t)
}
