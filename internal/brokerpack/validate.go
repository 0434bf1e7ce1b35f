package brokerpack

import (
	"fmt"
	"strings"
)

// ValidateVersion checks that a version identifier can be stored and routed.
func ValidateVersion(version string) error {
	if strings.TrimSpace(version) == "" {
		return Invalid("version must be set")
	}
	if strings.TrimSpace(version) != version {
		return Invalid("version must not have leading or trailing whitespace")
	}
	if strings.Contains(version, "/") {
		return Invalid("version must not contain '/'")
	}
	if version == PointerID {
		return Invalid(fmt.Sprintf("version %q is reserved", PointerID))
	}
	return nil
}

// Build validates the request and returns the pack with every optional field defaulted.
// Server-assigned timestamps are left empty. An explicitly empty brokers list is
// a valid pack; an absent one is not.
func (r CreateRequest) Build() (BrokerPack, error) {
	if err := ValidateVersion(r.Version); err != nil {
		return BrokerPack{}, err
	}
	if r.Brokers == nil {
		return BrokerPack{}, Invalid("brokers must be set")
	}
	seen := make(map[string]struct{}, len(r.Brokers))
	brokers := make([]BrokerEntry, 0, len(r.Brokers))
	for i, e := range r.Brokers {
		e = e.withDefaults()
		if err := e.validate(); err != nil {
			return BrokerPack{}, Invalid(fmt.Sprintf("brokers[%d]: %s", i, Message(err)))
		}
		if _, dup := seen[e.ID]; dup {
			return BrokerPack{}, Invalid(fmt.Sprintf("brokers[%d]: duplicate broker id %q", i, e.ID))
		}
		seen[e.ID] = struct{}{}
		brokers = append(brokers, e)
	}
	p := BrokerPack{Version: r.Version, Brokers: brokers}
	if r.Notes != nil {
		p.Notes = *r.Notes
	}
	return p, nil
}

func (e BrokerEntry) withDefaults() BrokerEntry {
	e = e.clone()
	e.ID = strings.TrimSpace(e.ID)
	e.Name = strings.TrimSpace(e.Name)
	e.OptOutURL = strings.TrimSpace(e.OptOutURL)
	e.FormType = FormType(strings.TrimSpace(string(e.FormType)))
	if e.FormType == "" {
		e.FormType = DefaultFormType
	}
	return e
}

func (e BrokerEntry) validate() error {
	switch {
	case e.ID == "":
		return Invalid("id must be set")
	case e.Name == "":
		return Invalid("name must be set")
	case e.OptOutURL == "":
		return Invalid("opt_out_url must be set")
	}
	return nil
}
