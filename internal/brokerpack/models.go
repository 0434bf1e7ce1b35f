package brokerpack

import (
	"time"
)

// FormType is how a broker accepts opt-out requests. The constants are the
// common values; publishers may use others.
type FormType string

const (
	FormTypeWeb   FormType = "web"
	FormTypeEmail FormType = "email"
	FormTypeMail  FormType = "mail"
	FormTypePhone FormType = "phone"
)

// DefaultFormType applies when an entry does not name one.
const DefaultFormType = FormTypeWeb

// PointerID is the fixed key of the latest-pointer document.
const PointerID = "latest"

// TimestampLayout is fixed-width so that lexical order equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// BrokerEntry describes one data broker's opt-out procedure.
type BrokerEntry struct {
	ID                string   `json:"id" bson:"id" yaml:"id"`
	Name              string   `json:"name" bson:"name" yaml:"name"`
	OptOutURL         string   `json:"opt_out_url" bson:"opt_out_url" yaml:"opt_out_url"`
	FormType          FormType `json:"form_type" bson:"form_type" yaml:"form_type"`
	RequiredFields    []string `json:"required_fields" bson:"required_fields" yaml:"required_fields"`
	VerificationSteps string   `json:"verification_steps" bson:"verification_steps" yaml:"verification_steps"`
	ResponseTime      string   `json:"response_time" bson:"response_time" yaml:"response_time"`
	FollowUpGuidance  string   `json:"follow_up_guidance" bson:"follow_up_guidance" yaml:"follow_up_guidance"`
}

// BrokerPack is the caller-facing, immutable, versioned bundle of entries.
type BrokerPack struct {
	Version   string        `json:"version" bson:"version" yaml:"version"`
	CreatedAt string        `json:"created_at" bson:"created_at" yaml:"created_at"`
	UpdatedAt string        `json:"updated_at" bson:"updated_at" yaml:"updated_at"`
	Brokers   []BrokerEntry `json:"brokers" bson:"brokers" yaml:"brokers"`
	Notes     string        `json:"notes" bson:"notes" yaml:"notes"`
}

// StoredPack is the storage representation; ID mirrors Version and never leaves the store.
type StoredPack struct {
	ID         string `bson:"_id"`
	BrokerPack `bson:",inline"`
}

// LatestPointer is the denormalized index naming the most recently created pack.
type LatestPointer struct {
	ID        string `json:"-" bson:"_id"`
	Version   string `json:"version" bson:"version"`
	UpdatedAt string `json:"updated_at" bson:"updated_at"`
}

// CreateRequest is the caller payload for a new pack.
type CreateRequest struct {
	Version   string        `json:"version" yaml:"version"`
	Brokers   []BrokerEntry `json:"brokers" yaml:"brokers"`
	Notes     *string       `json:"notes,omitempty" yaml:"notes,omitempty"`
	UpdatedAt *string       `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NewStoredPack keys a pack by its version for persistence.
func NewStoredPack(p BrokerPack) *StoredPack {
	return &StoredPack{ID: p.Version, BrokerPack: p.Clone()}
}

// Sanitize returns the caller-facing copy of a stored pack, without the storage key.
func (s *StoredPack) Sanitize() BrokerPack {
	return s.BrokerPack.Clone()
}

// Clone deep-copies the pack so callers never share slices with a store.
func (p BrokerPack) Clone() BrokerPack {
	out := p
	out.Brokers = make([]BrokerEntry, len(p.Brokers))
	for i, e := range p.Brokers {
		out.Brokers[i] = e.clone()
	}
	return out
}

func (e BrokerEntry) clone() BrokerEntry {
	out := e
	out.RequiredFields = append([]string{}, e.RequiredFields...)
	return out
}

// NewPointer builds the latest-pointer document for a freshly created pack.
func NewPointer(p BrokerPack) LatestPointer {
	return LatestPointer{ID: PointerID, Version: p.Version, UpdatedAt: p.CreatedAt}
}
