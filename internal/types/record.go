package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RecordID is the server-assigned identifier of a record. It is opaque to the
// client: backends that emit numeric ids decode into their decimal text.
type RecordID string

// UnmarshalJSON accepts both JSON strings and JSON numbers
func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("record id must be a string or number: %w", err)
	}
	*id = RecordID(n.String())
	return nil
}

func (id RecordID) String() string { return string(id) }

// Minutes is a duration in minutes carried as numeric text, the way form
// input delivers it.
type Minutes string

// UnmarshalJSON accepts both JSON strings and JSON numbers
func (m *Minutes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = Minutes(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("callDuration must be a string or number: %w", err)
	}
	*m = Minutes(n.String())
	return nil
}

// Value parses the minutes as a float
func (m Minutes) Value() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(m)), 64)
}

// RecordFields holds every mutable field of a record
type RecordFields struct {
	AgentName    string  `json:"agentName" validate:"required" dynamodbav:"AgentName"`
	CustomerName string  `json:"customerName" validate:"required" dynamodbav:"CustomerName"`
	PhoneNumber  string  `json:"phoneNumber" validate:"required" dynamodbav:"PhoneNumber"`
	Issue        string  `json:"issue" validate:"required" dynamodbav:"Issue"`
	Status       Status  `json:"status" validate:"required" dynamodbav:"Status"`
	CallDuration Minutes `json:"callDuration" validate:"required,numeric" dynamodbav:"CallDuration"`
}

// Record is the single entity managed by calldesk: a call ticket, or a
// playlist track in the playlist vocabulary.
type Record struct {
	ID RecordID `json:"id" dynamodbav:"ID"`
	RecordFields
}

// UnmarshalJSON decodes a record, falling back to "_id" for document stores
// that do not expose "id".
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var aux struct {
		plain
		MongoID RecordID `json:"_id"`
	}
	aux.plain = plain(*r)
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Record(aux.plain)
	if r.ID == "" {
		r.ID = aux.MongoID
	}
	return nil
}

// Fields returns a copy of the mutable fields
func (r Record) Fields() RecordFields {
	return r.RecordFields
}

// TrimSpace returns the fields with surrounding whitespace removed
func (f RecordFields) TrimSpace() RecordFields {
	return RecordFields{
		AgentName:    strings.TrimSpace(f.AgentName),
		CustomerName: strings.TrimSpace(f.CustomerName),
		PhoneNumber:  strings.TrimSpace(f.PhoneNumber),
		Issue:        strings.TrimSpace(f.Issue),
		Status:       Status(strings.TrimSpace(string(f.Status))),
		CallDuration: Minutes(strings.TrimSpace(string(f.CallDuration))),
	}
}
