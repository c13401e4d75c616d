package model

import "testing"

func TestConversationCounterpart(t *testing.T) {
	cv := Conversation{BuyerUID: "buyer", SellerUID: "seller"}

	if got := cv.Counterpart("buyer"); got != "seller" {
		t.Fatalf("got=%s want=seller", got)
	}
	if got := cv.Counterpart("seller"); got != "buyer" {
		t.Fatalf("got=%s want=buyer", got)
	}
}

func TestConversationHasParticipant(t *testing.T) {
	cv := Conversation{BuyerUID: "buyer", SellerUID: "seller"}

	tests := []struct {
		uid  string
		want bool
	}{
		{"buyer", true},
		{"seller", true},
		{"stranger", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := cv.HasParticipant(tt.uid); got != tt.want {
			t.Errorf("HasParticipant(%q)=%v want=%v", tt.uid, got, tt.want)
		}
	}
}
