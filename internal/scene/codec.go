package scene

import (
	"encoding/json"

	"enginecore/internal/errkit"
)

// Encode marshals doc to its wire JSON form.
func Encode(doc *Document) ([]byte, error) {
	return json.Marshal(doc)
}

// Decode unmarshals raw into a Document and validates its version,
// migrating v4 payloads to v5 in memory per spec §4.D version negotiation.
func Decode(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errkit.Wrap(errkit.ValidationFailed, "scene document is not valid JSON", err)
	}
	if verr := validateVersion(doc.Version); verr != nil {
		return nil, verr
	}
	if doc.Version == LegacyVersion {
		return migrateV4ToV5(&doc), nil
	}
	return &doc, nil
}

// MergeOpaque folds previously preserved opaque component payloads back
// into doc's entities before re-export, so a type this registry does not
// recognize still round-trips losslessly across an import/export cycle.
func MergeOpaque(doc *Document, opaque map[string]map[string]map[string]any) {
	for i := range doc.Entities {
		extra, ok := opaque[doc.Entities[i].PersistentId]
		if !ok {
			continue
		}
		if doc.Entities[i].Components == nil {
			doc.Entities[i].Components = map[string]map[string]any{}
		}
		for typeID, data := range extra {
			doc.Entities[i].Components[typeID] = data
		}
	}
}
