package model

import "testing"

func TestEventIsFull(t *testing.T) {
	tests := []struct {
		name         string
		capacity     int
		participants int
		want         bool
	}{
		{name: "空席あり", capacity: 3, participants: 2, want: false},
		{name: "定員ちょうど", capacity: 3, participants: 3, want: true},
		{name: "定員超過", capacity: 3, participants: 4, want: true},
		{name: "参加者なし", capacity: 1, participants: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &Event{Capacity: tt.capacity}
			for i := 0; i < tt.participants; i++ {
				event.Participants = append(event.Participants, Participant{})
			}

			if got := event.IsFull(); got != tt.want {
				t.Errorf("IsFull() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidRating(t *testing.T) {
	tests := []struct {
		rating int
		want   bool
	}{
		{rating: 0, want: false},
		{rating: 1, want: true},
		{rating: 3, want: true},
		{rating: 5, want: true},
		{rating: 6, want: false},
		{rating: -1, want: false},
	}

	for _, tt := range tests {
		if got := IsValidRating(tt.rating); got != tt.want {
			t.Errorf("IsValidRating(%d) = %v, want %v", tt.rating, got, tt.want)
		}
	}
}
