package card

import "testing"

func TestParse_WireNames(t *testing.T) {
	cases := []struct {
		suit, rank string
		want       Card
		short      string
	}{
		{"spades", "ace", New(Spade, 1), "As"},
		{"hearts", "10", New(Heart, 10), "Th"},
		{"Diamonds", "Queen", New(Diamond, 12), "Qd"},
		{"clubs", "2", New(Club, 2), "2c"},
	}
	for _, tc := range cases {
		got, err := Parse(tc.suit, tc.rank)
		if err != nil {
			t.Fatalf("Parse(%q,%q) err: %v", tc.suit, tc.rank, err)
		}
		if got != tc.want {
			t.Fatalf("Parse(%q,%q) = %v, want %v", tc.suit, tc.rank, got, tc.want)
		}
		if got.String() != tc.short {
			t.Fatalf("String() = %q, want %q", got.String(), tc.short)
		}
	}
}

func TestParse_Rejects(t *testing.T) {
	bad := [][2]string{{"", "ace"}, {"spades", ""}, {"stars", "ace"}, {"hearts", "11"}, {"hearts", "1"}}
	for _, in := range bad {
		if _, err := Parse(in[0], in[1]); err == nil {
			t.Fatalf("Parse(%q,%q) expected error", in[0], in[1])
		}
	}
}

func TestNames_RoundTrip(t *testing.T) {
	for s := Spade; s <= Diamond; s++ {
		for r := byte(1); r <= 13; r++ {
			c := New(s, r)
			back, err := Parse(c.SuitName(), c.RankName())
			if err != nil {
				t.Fatalf("Parse(%s) err: %v", c, err)
			}
			if back != c {
				t.Fatalf("round trip %s -> %s", c, back)
			}
		}
	}
}

func TestNew_OutOfRange(t *testing.T) {
	if New(Spade, 0).Valid() || New(Spade, 14).Valid() || New(Suit(7), 3).Valid() {
		t.Fatalf("expected invalid cards")
	}
}

func TestDescribe(t *testing.T) {
	flop := List{New(Spade, 1), New(Heart, 1), New(Club, 1), New(Diamond, 9), New(Spade, 9)}
	if desc, ok := Describe(flop); !ok || desc == "" {
		t.Fatalf("expected description for 5 cards, got %q ok=%v", desc, ok)
	}
	turn := append(flop.Clone(), New(Heart, 4))
	if desc, ok := Describe(turn); !ok || desc == "" {
		t.Fatalf("expected description for 6 cards, got %q ok=%v", desc, ok)
	}
	if _, ok := Describe(flop[:4]); ok {
		t.Fatalf("4 cards should not be described")
	}
	dup := List{New(Spade, 1), New(Spade, 1), New(Club, 1), New(Diamond, 9), New(Spade, 9)}
	if _, ok := Describe(dup); ok {
		t.Fatalf("duplicate cards should not be described")
	}
}
