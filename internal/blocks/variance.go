package blocks

import (
	"github.com/starford/berkano/internal/models"
	"github.com/starford/berkano/internal/schema"
)

// AlignEditable normalizes the culture/segment tags of an authored value to
// the property's schema variation. It is used on the authoring path, before
// values are stored: a value missing a required culture tag is assigned the
// default locale, and a tag the schema no longer allows is cleared.
func AlignEditable(v models.PropertyValue, prop schema.Variation, defaultLocale string) models.PropertyValue {
	v.Culture = alignEditableTag(v.Culture, prop.VariesByCulture(), defaultLocale)
	v.Segment = alignEditableTag(v.Segment, prop.VariesBySegment(), "")
	return v
}

func alignEditableTag(tag *string, varies bool, defaultTag string) *string {
	if !varies {
		return nil
	}
	if tag == nil && defaultTag != "" {
		t := defaultTag
		return &t
	}
	return tag
}

// AlignPublished adjusts the stored tags of a value at read time, given the
// variance the value is required to have now. required is the intersection
// of the owner type's and the property's variation.
//
// When culture must be invariant but the stored tag equals the default
// locale, the tag is cleared so that exactly one authored value becomes the
// rendered invariant value. Tags for non-default locales are left unchanged;
// the resolver's exact-match filter excludes them instead of corrupting them.
func AlignPublished(v models.PropertyValue, required schema.Variation, defaultLocale string) models.PropertyValue {
	v.Culture = alignPublishedTag(v.Culture, required.VariesByCulture(), defaultLocale)
	v.Segment = alignPublishedTag(v.Segment, required.VariesBySegment(), "")
	return v
}

// alignPublishedTag applies the published-value policy to one tag.
// defaultTag is the default locale for cultures and empty for segments (the
// default segment is the absence of one).
func alignPublishedTag(tag *string, varies bool, defaultTag string) *string {
	if varies {
		if tag == nil && defaultTag != "" {
			t := defaultTag
			return &t
		}
		return tag
	}
	if tag != nil && *tag == defaultTag {
		return nil
	}
	return tag
}

// requiredCultureTag computes the culture tag a value must carry to render
// in the given context. Rendering without an explicit culture targets the
// default locale.
func requiredCultureTag(varies bool, requested, defaultLocale string) *string {
	if !varies {
		return nil
	}
	c := requested
	if c == "" {
		c = defaultLocale
	}
	return &c
}

// requiredSegmentTag computes the segment tag a value must carry to render
// in the given context. nil is the default segment.
func requiredSegmentTag(varies bool, requested string) *string {
	if !varies || requested == "" {
		return nil
	}
	return &requested
}

// tagEqual reports exact tag equality: both nil, or both the same string.
func tagEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
