package creative

import "testing"

func TestKeywordParserBasicExample(t *testing.T) {
	got := KeywordParser{}.Parse("Headline: Buy Now\nAd Copy: Great deal")
	if got.Headline != "Buy Now" || got.AdCopy != "Great deal" {
		t.Fatalf("unexpected fields %+v", got)
	}
	if got.CallToAction != "" || got.VisualDirection != "" || got.TargetAudience != "" || got.Hypothesis != "" {
		t.Fatalf("unmatched fields must stay empty: %+v", got)
	}
}

func TestKeywordParserFullResponse(t *testing.T) {
	text := `**Headline:** Summer Sale Is Here
## Ad Copy: Save 30% on every pair.
Free shipping this week only.

Call to Action: Shop Now
Visual Direction: Bright beach scene
Target Audience: Runners aged 25-40
Test Hypothesis: Urgency framing lifts CTR`

	got := KeywordParser{}.Parse(text)
	want := Fields{
		Headline:        "Summer Sale Is Here",
		AdCopy:          "Save 30% on every pair. Free shipping this week only.",
		CallToAction:    "Shop Now",
		VisualDirection: "Bright beach scene",
		TargetAudience:  "Runners aged 25-40",
		Hypothesis:      "Urgency framing lifts CTR",
	}
	if got != want {
		t.Fatalf("unexpected fields\n got: %+v\nwant: %+v", got, want)
	}
}

func TestKeywordParserEdgeCases(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Fields
	}{
		{name: "empty", text: "", want: Fields{}},
		{name: "no keywords", text: "just some words\nand more", want: Fields{}},
		{name: "keyword without colon", text: "Headline\nBig Savings", want: Fields{Headline: "Big Savings"}},
		{name: "first match wins", text: "Headline copy: Both", want: Fields{Headline: "Both"}},
		{name: "value keeps later colons", text: "CTA: Buy: now", want: Fields{CallToAction: "Buy: now"}},
		{name: "description alias", text: "Description: Soft cotton", want: Fields{AdCopy: "Soft cotton"}},
		{name: "image alias", text: "IMAGE: Studio shot", want: Fields{VisualDirection: "Studio shot"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := (KeywordParser{}).Parse(tc.text); got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
