package blocks

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/berkano/internal/models"
)

// Parsed is the normalized intermediate form every flavor's payload funnels
// into: an ordered layout plus the two parallel record sets.
type Parsed struct {
	Layout       []models.LayoutItem
	ContentData  []models.ContentRecord
	SettingsData []models.ContentRecord
}

// IsEmpty reports whether the payload holds nothing to materialize.
func (p *Parsed) IsEmpty() bool {
	return len(p.ContentData) == 0
}

// payloadEnvelope is the wire shape shared by all flavors. Each flavor
// locates its own layout section under its editor alias.
type payloadEnvelope struct {
	Layout       map[string]json.RawMessage `json:"layout"`
	ContentData  []json.RawMessage          `json:"contentData"`
	SettingsData []json.RawMessage          `json:"settingsData"`
}

// ParsePayload decodes a raw block property value into the normalized
// triple. Blank input yields the canonical empty result. Malformed JSON is
// not caught here; it propagates to the caller, which owns the decision to
// log or suppress at the property-conversion boundary.
func ParsePayload(raw []byte, editorAlias string) (*Parsed, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return &Parsed{}, nil
	}

	var env payloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("blocks: decode payload: %w", err)
	}

	out := &Parsed{}

	if rawLayout, ok := env.Layout[editorAlias]; ok {
		if err := json.Unmarshal(rawLayout, &out.Layout); err != nil {
			return nil, fmt.Errorf("blocks: decode %s layout: %w", editorAlias, err)
		}
	}

	var err error
	if out.ContentData, err = decodeRecords(env.ContentData); err != nil {
		return nil, fmt.Errorf("blocks: decode contentData: %w", err)
	}
	if out.SettingsData, err = decodeRecords(env.SettingsData); err != nil {
		return nil, fmt.Errorf("blocks: decode settingsData: %w", err)
	}

	return out, nil
}

func decodeRecords(raws []json.RawMessage) ([]models.ContentRecord, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	out := make([]models.ContentRecord, 0, len(raws))
	for i, raw := range raws {
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, *rec)
	}
	return out, nil
}

// decodeRecord turns one wire record into a ContentRecord. The reserved
// fields (key, udi, contentTypeKey) identify the record; every other field
// is a property value, either a bare scalar (invariant) or the tagged
// {value, culture, segment} form, or an array of tagged forms for values
// that vary.
func decodeRecord(raw json.RawMessage) (*models.ContentRecord, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	rec := &models.ContentRecord{}

	if rawKey, ok := fields["key"]; ok {
		// "key" can legitimately be a property alias; only treat it as the
		// record identity when it parses as one.
		var s string
		if err := json.Unmarshal(rawKey, &s); err == nil {
			if k, err := uuid.Parse(s); err == nil {
				rec.Key = k
				delete(fields, "key")
			}
		}
	}
	if rawUdi, ok := fields["udi"]; ok {
		var s string
		if err := json.Unmarshal(rawUdi, &s); err != nil {
			return nil, fmt.Errorf("udi: %w", err)
		}
		rec.Udi = models.Udi(s)
		if rec.Key == uuid.Nil {
			if k, ok := rec.Udi.Key(); ok {
				rec.Key = k
			}
		}
		delete(fields, "udi")
	}

	rawType, ok := fields["contentTypeKey"]
	if !ok {
		return nil, fmt.Errorf("contentTypeKey is required")
	}
	var typeStr string
	if err := json.Unmarshal(rawType, &typeStr); err != nil {
		return nil, fmt.Errorf("contentTypeKey: %w", err)
	}
	typeKey, err := uuid.Parse(typeStr)
	if err != nil {
		return nil, fmt.Errorf("contentTypeKey: %w", err)
	}
	rec.ContentTypeKey = typeKey
	delete(fields, "contentTypeKey")

	for alias, rawValue := range fields {
		values, err := decodePropertyValues(alias, rawValue)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", alias, err)
		}
		rec.Values = append(rec.Values, values...)
	}

	return rec, nil
}

// taggedValue is the variant wire form of a property value.
type taggedValue struct {
	Value   any     `json:"value"`
	Culture *string `json:"culture"`
	Segment *string `json:"segment"`
}

func decodePropertyValues(alias string, raw json.RawMessage) ([]models.PropertyValue, error) {
	if tv, ok := decodeTagged(raw); ok {
		return []models.PropertyValue{tagged(alias, tv)}, nil
	}

	// An array is the multi-variance form only when every entry is tagged;
	// otherwise it is a plain array-valued property.
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, err
		}
		tvs := make([]taggedValue, 0, len(entries))
		allTagged := len(entries) > 0
		for _, entry := range entries {
			tv, ok := decodeTagged(entry)
			if !ok {
				allTagged = false
				break
			}
			tvs = append(tvs, tv)
		}
		if allTagged {
			out := make([]models.PropertyValue, len(tvs))
			for i, tv := range tvs {
				out[i] = tagged(alias, tv)
			}
			return out, nil
		}
	}

	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, err
	}
	return []models.PropertyValue{{Alias: alias, Value: plain}}, nil
}

// decodeTagged attempts to read raw as the {value, culture, segment} form.
// Only objects whose keys are a subset of those three, with "value"
// present, qualify; anything else is a plain object-valued property.
func decodeTagged(raw json.RawMessage) (taggedValue, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return taggedValue{}, false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return taggedValue{}, false
	}
	if _, ok := probe["value"]; !ok {
		return taggedValue{}, false
	}
	for k := range probe {
		switch k {
		case "value", "culture", "segment":
		default:
			return taggedValue{}, false
		}
	}
	var tv taggedValue
	if err := json.Unmarshal(raw, &tv); err != nil {
		return taggedValue{}, false
	}
	return tv, true
}

func tagged(alias string, tv taggedValue) models.PropertyValue {
	return models.PropertyValue{
		Alias:   alias,
		Culture: normalizeTag(tv.Culture),
		Segment: normalizeTag(tv.Segment),
		Value:   tv.Value,
	}
}

// normalizeTag maps empty-string tags to nil; absent and empty mean the
// same thing on the wire.
func normalizeTag(tag *string) *string {
	if tag == nil || *tag == "" {
		return nil
	}
	return tag
}
