package domain

import (
	"encoding/json"
	"sort"
)

// AddressList is a sum type over the two shapes recipient lists take in
// the source data: an ordered list of addresses, or a map of address to
// display-name. Normalize is the single function used everywhere strings
// are joined from one of these, per the §9 "Dynamic typing of
// to_addresses" design note.
type AddressList struct {
	list []string
	m    map[string]string
}

// NewAddressList builds an AddressList from an ordered slice.
func NewAddressList(addrs ...string) AddressList {
	return AddressList{list: addrs}
}

// NewAddressMap builds an AddressList from an address-to-name map. Go maps
// have no stable order, so Normalize sorts the keys for determinism.
func NewAddressMap(m map[string]string) AddressList {
	return AddressList{m: m}
}

// Normalize returns the addresses as an ordered slice of strings,
// regardless of the underlying representation.
func (a AddressList) Normalize() []string {
	if a.m != nil {
		out := make([]string, 0, len(a.m))
		for addr := range a.m {
			out = append(out, addr)
		}
		sort.Strings(out)
		return out
	}
	out := make([]string, len(a.list))
	copy(out, a.list)
	return out
}

// IsEmpty reports whether the address list carries no recipients.
func (a AddressList) IsEmpty() bool {
	return len(a.list) == 0 && len(a.m) == 0
}

// MarshalJSON encodes an AddressList as a plain JSON array, the canonical
// on-disk/over-the-wire shape regardless of how it was constructed.
func (a AddressList) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Normalize())
}

// UnmarshalJSON accepts either a JSON array of strings or a JSON object of
// address -> name, matching the two shapes the source data may carry.
func (a *AddressList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		a.list = list
		a.m = nil
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	a.m = m
	a.list = nil
	return nil
}
