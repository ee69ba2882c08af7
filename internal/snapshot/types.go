package snapshot

import (
	"encoding/json"
	"fmt"
)

// Validity is one check of the 1kv programme against a candidate.
type Validity struct {
	Type    string `json:"type"`
	Valid   bool   `json:"valid"`
	Details string `json:"details"`
	Updated uint64 `json:"updated"`
}

// OneKVValidator is one 1kv candidate. Only the fields the service reads
// are typed; the rest of the published document passes through unchanged.
type OneKVValidator struct {
	Stash    string
	Valid    *bool
	Validity []Validity

	rest map[string]json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *OneKVValidator) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode 1kv validator: %w", err)
	}

	*v = OneKVValidator{rest: fields}
	if raw, ok := fields["stash"]; ok {
		if err := json.Unmarshal(raw, &v.Stash); err != nil {
			return fmt.Errorf("decode 1kv stash: %w", err)
		}
	}
	if raw, ok := fields["valid"]; ok {
		if err := json.Unmarshal(raw, &v.Valid); err != nil {
			return fmt.Errorf("decode 1kv valid: %w", err)
		}
	}
	if raw, ok := fields["validity"]; ok {
		if err := json.Unmarshal(raw, &v.Validity); err != nil {
			return fmt.Errorf("decode 1kv validity: %w", err)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v OneKVValidator) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(v.rest)+3)
	for k, raw := range v.rest {
		out[k] = raw
	}
	out["stash"] = v.Stash
	out["valid"] = v.Valid
	validity := v.Validity
	if validity == nil {
		validity = []Validity{}
	}
	out["validity"] = validity
	return json.Marshal(out)
}

// passes reports whether every validity check passed.
func (v OneKVValidator) passes() bool {
	for _, c := range v.Validity {
		if !c.Valid {
			return false
		}
	}
	return true
}

// OneKV is the published 1kv programme snapshot.
type OneKV struct {
	ActiveEra      *uint32          `json:"activeEra,omitempty"`
	ValidatorCount *uint32          `json:"validatorCount,omitempty"`
	ElectedCount   *uint32          `json:"electedCount,omitempty"`
	ElectionRate   *float64         `json:"electionRate,omitempty"`
	Valid          []OneKVValidator `json:"valid"`
	ModifiedTime   *uint64          `json:"modifiedTime,omitempty"`
}

// ValidatorsSnapshot is the "validDetailAll" snapshot. Entries are served
// as published.
type ValidatorsSnapshot struct {
	Valid []json.RawMessage `json:"valid"`
}

// OneKVNominated is a validator currently nominated by a 1kv nominator.
type OneKVNominated struct {
	Stash   string `json:"stash"`
	Name    string `json:"name"`
	Elected bool   `json:"elected"`
}

// UnmarshalJSON defaults a null name to "N/A" and a null elected to false.
func (n *OneKVNominated) UnmarshalJSON(data []byte) error {
	var raw struct {
		Stash   string  `json:"stash"`
		Name    *string `json:"name"`
		Elected *bool   `json:"elected"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode 1kv nominated: %w", err)
	}
	n.Stash = raw.Stash
	n.Name = "N/A"
	if raw.Name != nil {
		n.Name = *raw.Name
	}
	n.Elected = raw.Elected != nil && *raw.Elected
	return nil
}

// OneKVNominator is one nominator account run by the 1kv programme.
type OneKVNominator struct {
	Current        []OneKVNominated `json:"current"`
	LastNomination string           `json:"lastNomination"`
}

// OneKVNominators is the published 1kv nominator snapshot.
type OneKVNominators struct {
	ActiveEra  uint32           `json:"activeEra"`
	Nominators []OneKVNominator `json:"nominators"`
}
