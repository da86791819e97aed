package blocks

import (
	"testing"

	"github.com/starford/berkano/internal/models"
	"github.com/starford/berkano/internal/schema"
)

func strp(s string) *string { return &s }

func tagString(tag *string) string {
	if tag == nil {
		return "<nil>"
	}
	return *tag
}

func TestAlignEditable(t *testing.T) {
	cases := []struct {
		name        string
		variation   schema.Variation
		culture     *string
		segment     *string
		wantCulture *string
		wantSegment *string
	}{
		{
			name:      "invariant clears stray tags",
			variation: schema.VariationNothing,
			culture:   strp("da-DK"),
			segment:   strp("vip"),
		},
		{
			name:        "culture variant fills missing tag with default locale",
			variation:   schema.VariationCulture,
			wantCulture: strp("en-US"),
		},
		{
			name:        "culture variant keeps explicit tag",
			variation:   schema.VariationCulture,
			culture:     strp("da-DK"),
			wantCulture: strp("da-DK"),
		},
		{
			name:      "segment variant leaves missing tag nil",
			variation: schema.VariationSegment,
		},
		{
			name:        "segment variant keeps explicit tag",
			variation:   schema.VariationSegment,
			segment:     strp("vip"),
			wantSegment: strp("vip"),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := models.PropertyValue{Alias: "title", Culture: tc.culture, Segment: tc.segment}
			got := AlignEditable(v, tc.variation, "en-US")
			if !tagEqual(got.Culture, tc.wantCulture) {
				t.Errorf("culture = %s, want %s", tagString(got.Culture), tagString(tc.wantCulture))
			}
			if !tagEqual(got.Segment, tc.wantSegment) {
				t.Errorf("segment = %s, want %s", tagString(got.Segment), tagString(tc.wantSegment))
			}
		})
	}
}

func TestAlignPublishedCulture(t *testing.T) {
	cases := []struct {
		name     string
		required schema.Variation
		culture  *string
		want     *string
	}{
		{
			name:     "variant fills missing tag with default locale",
			required: schema.VariationCulture,
			want:     strp("en-US"),
		},
		{
			name:     "variant keeps explicit tag",
			required: schema.VariationCulture,
			culture:  strp("da-DK"),
			want:     strp("da-DK"),
		},
		{
			name:     "invariant clears default-locale tag",
			required: schema.VariationNothing,
			culture:  strp("en-US"),
		},
		{
			// A non-default tag on an invariant property stays; the exact-match
			// filter excludes the value instead of corrupting it.
			name:     "invariant keeps non-default tag",
			required: schema.VariationNothing,
			culture:  strp("da-DK"),
			want:     strp("da-DK"),
		},
		{
			name:     "invariant with no tag stays untagged",
			required: schema.VariationNothing,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := models.PropertyValue{Alias: "title", Culture: tc.culture}
			got := AlignPublished(v, tc.required, "en-US")
			if !tagEqual(got.Culture, tc.want) {
				t.Errorf("culture = %s, want %s", tagString(got.Culture), tagString(tc.want))
			}
		})
	}
}

func TestAlignPublishedSegment(t *testing.T) {
	// The default segment is the absence of one, so an invariant segment tag
	// is only cleared when it is already empty, never when it names a real
	// segment.
	v := models.PropertyValue{Alias: "title", Segment: strp("vip")}
	got := AlignPublished(v, schema.VariationNothing, "en-US")
	if !tagEqual(got.Segment, strp("vip")) {
		t.Errorf("segment = %s, want vip", tagString(got.Segment))
	}

	got = AlignPublished(models.PropertyValue{Alias: "title"}, schema.VariationSegment, "en-US")
	if got.Segment != nil {
		t.Errorf("segment = %s, want <nil>", tagString(got.Segment))
	}
}

func TestRequiredTags(t *testing.T) {
	if got := requiredCultureTag(false, "da-DK", "en-US"); got != nil {
		t.Errorf("invariant culture tag = %s, want <nil>", tagString(got))
	}
	if got := requiredCultureTag(true, "", "en-US"); !tagEqual(got, strp("en-US")) {
		t.Errorf("default culture tag = %s, want en-US", tagString(got))
	}
	if got := requiredCultureTag(true, "da-DK", "en-US"); !tagEqual(got, strp("da-DK")) {
		t.Errorf("explicit culture tag = %s, want da-DK", tagString(got))
	}
	if got := requiredSegmentTag(true, ""); got != nil {
		t.Errorf("default segment tag = %s, want <nil>", tagString(got))
	}
	if got := requiredSegmentTag(true, "vip"); !tagEqual(got, strp("vip")) {
		t.Errorf("explicit segment tag = %s, want vip", tagString(got))
	}
}
