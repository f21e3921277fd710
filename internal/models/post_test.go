package models

import "testing"

func TestEngagementTotal(t *testing.T) {
	e := Engagement{Likes: 10, Shares: 3, Comments: 7, Views: 5000}
	if got := e.Total(); got != 20 {
		t.Errorf("Total() = %d, want 20 (views excluded)", got)
	}
	if (Engagement{}).Total() != 0 {
		t.Error("zero engagement should total 0")
	}
}

func TestValidPlatform(t *testing.T) {
	for _, p := range Platforms() {
		if !ValidPlatform(string(p)) {
			t.Errorf("expected %q to be valid", p)
		}
	}
	if ValidPlatform("myspace") {
		t.Error("expected unknown platform to be invalid")
	}
}
