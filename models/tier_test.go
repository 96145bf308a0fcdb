package models

import (
	"reflect"
	"testing"
)

func TestTierOrdering(t *testing.T) {
	// public < tier_3 < tier_2 < tier_1
	for i := 1; i < len(AllTiers); i++ {
		lower, higher := AllTiers[i-1], AllTiers[i]
		if !higher.Above(lower) {
			t.Errorf("expected %s above %s", higher, lower)
		}
		if lower.Above(higher) {
			t.Errorf("did not expect %s above %s", lower, higher)
		}
	}
	if Tier1.Above(Tier1) {
		t.Error("a tier must not be above itself")
	}
}

func TestTierCanAccess(t *testing.T) {
	cases := []struct {
		viewer  Tier
		content Tier
		want    bool
	}{
		{TierPublic, TierPublic, true},
		{TierPublic, Tier3, false},
		{Tier3, TierPublic, true},
		{Tier3, Tier3, true},
		{Tier3, Tier2, false},
		{Tier2, Tier3, true},
		{Tier1, TierPublic, true},
		{Tier1, Tier1, true},
	}
	for _, tc := range cases {
		if got := tc.viewer.CanAccess(tc.content); got != tc.want {
			t.Errorf("%s.CanAccess(%s) = %v, want %v", tc.viewer, tc.content, got, tc.want)
		}
	}
}

func TestTierAccessibleTiers(t *testing.T) {
	got := Tier2.AccessibleTiers()
	want := []Tier{TierPublic, Tier3, Tier2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("AccessibleTiers(tier_2) = %v, want %v", got, want)
	}

	if got := TierPublic.AccessibleTiers(); !reflect.DeepEqual(got, []Tier{TierPublic}) {
		t.Fatalf("AccessibleTiers(public) = %v", got)
	}
	if got := Tier1.AccessibleTiers(); len(got) != len(AllTiers) {
		t.Fatalf("tier_1 must see all tiers, got %v", got)
	}
}

func TestTierIsValid(t *testing.T) {
	for _, tier := range AllTiers {
		if !tier.IsValid() {
			t.Errorf("expected %s valid", tier)
		}
	}
	for _, bad := range []Tier{"", "tier_0", "TIER_1", "gold"} {
		if bad.IsValid() {
			t.Errorf("expected %q invalid", bad)
		}
	}
}
