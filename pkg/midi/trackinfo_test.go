package midi

import "testing"

func TestTrackInfoBPMRoundTrip(t *testing.T) {
	ti := NewTrackInfo()
	ti.SetBPM(120)
	if got := ti.BPM(); got < 119.9 || got > 120.1 {
		t.Fatalf("BPM() = %f, want ~120", got)
	}
	if !ti.HasTempo {
		t.Fatal("SetBPM should set HasTempo")
	}
}

func TestTrackInfoBPMZeroWithoutTempo(t *testing.T) {
	ti := NewTrackInfo()
	if got := ti.BPM(); got != 0 {
		t.Fatalf("BPM() on untouched TrackInfo = %f, want 0", got)
	}
}

func TestTimeSignatureBeatWidth(t *testing.T) {
	cases := []struct {
		log  byte
		want int
	}{{0, 1}, {2, 4}, {3, 8}}
	for _, c := range cases {
		ts := TimeSignature{LogDenominator: c.log}
		if got := ts.BeatWidth(); got != c.want {
			t.Errorf("BeatWidth() with log %d = %d, want %d", c.log, got, c.want)
		}
	}
}
