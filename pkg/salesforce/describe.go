package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// SObjectField describes a single field on a Salesforce SObject.
type SObjectField struct {
	Name       string `json:"name"`
	Label      string `json:"label"`
	Type       string `json:"type"`
	Length     int    `json:"length"`
	Updateable bool   `json:"updateable"`
}

// SObjectDescription holds metadata about a Salesforce SObject.
type SObjectDescription struct {
	Name   string         `json:"name"`
	Label  string         `json:"label"`
	Fields []SObjectField `json:"fields"`
}

func decodeJSON(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return eris.Wrap(err, "decode json")
	}
	return nil
}

// HasField reports whether the description contains a field, ignoring case.
func (d *SObjectDescription) HasField(name string) bool {
	for _, f := range d.Fields {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// RequireFields describes each object and fails listing every field the org
// is missing. It lets callers detect a misconfigured org before querying.
func RequireFields(ctx context.Context, c Client, required map[string][]string) error {
	var missing []string
	for _, object := range sortedObjects(required) {
		desc, err := c.Describe(ctx, object)
		if err != nil {
			return eris.Wrap(err, fmt.Sprintf("sf: require fields on %s", object))
		}
		for _, field := range required[object] {
			if !desc.HasField(field) {
				missing = append(missing, object+"."+field)
			}
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("sf: org is missing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func sortedObjects(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
