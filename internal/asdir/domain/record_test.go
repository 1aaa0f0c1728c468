package domain

import "testing"

func TestHasOrganization(t *testing.T) {
	r := AsRecord{ASN: 5550}
	if r.HasOrganization() {
		t.Error("record without rank info cannot have an organization")
	}
	r.Rank = &RankInfo{Rank: 1}
	if r.HasOrganization() {
		t.Error("nil organization should report false")
	}
	empty := ""
	r.Rank.Organization = &empty
	if r.HasOrganization() {
		t.Error("empty organization should report false")
	}
	org := "Academic Computer Center"
	r.Rank.Organization = &org
	if !r.HasOrganization() {
		t.Error("expected organization to be reported present")
	}
}

func TestLayer1Categories(t *testing.T) {
	r := AsRecord{
		ASN: 1,
		Categories: []Category{
			{Layer1: "Service", Layer2: "Other"},
			{Layer1: "Service", Layer2: "Law, Business, and Consulting Services"},
			{Layer1: "Education and Research", Layer2: "Research and Development Organizations"},
		},
	}
	got := r.Layer1Categories()
	if len(got) != 2 {
		t.Fatalf("expected 2 distinct layer-1 categories, got %d", len(got))
	}
	if _, ok := got["Service"]; !ok {
		t.Error("missing Service")
	}
	if _, ok := got["Education and Research"]; !ok {
		t.Error("missing Education and Research")
	}
}

func TestRecordValidate(t *testing.T) {
	r := AsRecord{}
	if err := r.Validate(); err == nil {
		t.Error("zero asn should not validate")
	}
	r = AsRecord{ASN: 5550, Rank: &RankInfo{CountryISO: "Poland"}}
	if err := r.Validate(); err == nil {
		t.Error("non 2-letter country code should not validate")
	}
	r = AsRecord{ASN: 5550, Rank: &RankInfo{CountryISO: "PL"}}
	if err := r.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
