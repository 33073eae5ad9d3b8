// Package registry implements the public, unauthenticated fallback metadata
// sources and the offline registration database. These services return
// loosely-shaped JSON with inconsistent field names, so records are decoded
// through explicit alias tables instead of ad-hoc key probing.
package registry

import (
	"encoding/json"
	"strings"

	"github.com/airoverhead/flight-tracker/internal/core/domain"
)

// Alias tables per semantic field, in lookup order. The first present,
// non-empty alias wins.
var (
	manufacturerAliases = []string{"manufacturer", "Manufacturer", "Man"}
	modelAliases        = []string{"model", "Model", "type", "Type", "Mdl"}
	registrationAliases = []string{"registration", "Registration", "Reg", "reg"}
	operatorAliases     = []string{"operator", "Operator", "Op", "RegisteredOwners", "owner"}
	serialAliases       = []string{"serial_number", "serialNumber", "SerialNumber", "Sqk"}
)

// recordFromFields extracts a MetadataRecord from an arbitrarily-shaped JSON
// object using the alias tables.
func recordFromFields(fields map[string]any) domain.MetadataRecord {
	return domain.MetadataRecord{
		Manufacturer: firstAlias(fields, manufacturerAliases),
		Model:        firstAlias(fields, modelAliases),
		Registration: firstAlias(fields, registrationAliases),
		Operator:     firstAlias(fields, operatorAliases),
		SerialNumber: firstAlias(fields, serialAliases),
	}
}

func firstAlias(fields map[string]any, aliases []string) *string {
	for _, key := range aliases {
		v, ok := fields[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return &s
		}
	}
	return nil
}

// stringField returns the string under key, or "" when absent or not a
// string.
func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

// objectField decodes the JSON object under key, or nil.
func objectField(raw json.RawMessage, key string) map[string]any {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil
	}
	inner, ok := outer[key]
	if !ok {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(inner, &fields); err != nil {
		return nil
	}
	return fields
}
