package order

import "testing"

func TestDirectionReverseInvolution(t *testing.T) {
	for _, d := range []Direction{Long, Short} {
		t.Run(string(d), func(t *testing.T) {
			if d.Reverse() == d {
				t.Errorf("Reverse() = %v, want different from %v", d.Reverse(), d)
			}
			if got := d.Reverse().Reverse(); got != d {
				t.Errorf("Reverse().Reverse() = %v, want %v", got, d)
			}
		})
	}
}

func TestDirectionReverseMapping(t *testing.T) {
	if Long.Reverse() != Short {
		t.Errorf("Long.Reverse() = %v, want Short", Long.Reverse())
	}
	if Short.Reverse() != Long {
		t.Errorf("Short.Reverse() = %v, want Long", Short.Reverse())
	}
}

func TestInstructionIsBuy(t *testing.T) {
	cases := []struct {
		name string
		dir  Direction
		off  Offset
		want bool
	}{
		{"long open", Long, Open, true},
		{"short close", Short, Close, true},
		{"short open", Short, Open, false},
		{"long close", Long, Close, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			i := Instruction{Direction: c.dir, Offset: c.off}
			if got := i.IsBuy(); got != c.want {
				t.Errorf("IsBuy() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestInstructionWithVolumeImmutable(t *testing.T) {
	orig := Instruction{VtSymbol: "IO2312-C-4000.CFFEX", Volume: 10}
	updated := orig.WithVolume(5)
	if orig.Volume != 10 {
		t.Errorf("original mutated: Volume = %d, want 10", orig.Volume)
	}
	if updated.Volume != 5 {
		t.Errorf("updated.Volume = %d, want 5", updated.Volume)
	}
}
