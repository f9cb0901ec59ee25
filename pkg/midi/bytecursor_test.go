package midi

import "testing"

func TestByteCursorGetVarinum(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want uint32
	}{
		{"zero", []byte{0x00}, 0},
		{"one byte", []byte{0x40}, 0x40},
		{"two bytes", []byte{0x81, 0x00}, 0x80},
		{"three bytes", []byte{0xC0, 0x80, 0x00}, 0x100000},
		{"max size", []byte{0xFF, 0xFF, 0xFF, 0x7F}, 0x0FFFFFFF},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cur := NewByteCursor(c.in)
			got := cur.GetVarinum()
			if cur.FatalError() {
				t.Fatalf("GetVarinum() set fatal: %s", cur.ErrorMessage())
			}
			if got != c.want {
				t.Errorf("GetVarinum() = %#x, want %#x", got, c.want)
			}
		})
	}
}

func TestByteCursorGetVarinumTruncated(t *testing.T) {
	cur := NewByteCursor([]byte{0x81})
	cur.GetVarinum()
	if !cur.FatalError() {
		t.Fatal("expected fatal flag on truncated varinum")
	}
}

func TestByteCursorPutGetVarinumRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0x3F, 0x40, 0x7F, 0x80, 0x1FFF, 0x2000, 0x0FFFFFFF}
	for _, v := range values {
		cur := NewByteCursorSize(8)
		cur.PutVarinum(v)
		if n := VarinumSize(v); n != cur.Len() {
			t.Errorf("value %#x: VarinumSize(%#x) = %d, wrote %d bytes", v, v, n, cur.Len())
		}
		cur.Reset()
		got := cur.GetVarinum()
		if cur.FatalError() {
			t.Fatalf("value %#x: GetVarinum() set fatal: %s", v, cur.ErrorMessage())
		}
		if got != v {
			t.Errorf("round trip %#x got %#x", v, got)
		}
	}
}

func TestByteCursorOverrun(t *testing.T) {
	cur := NewByteCursor([]byte{0x01})
	cur.GetByte()
	if cur.FatalError() {
		t.Fatal("first GetByte should not be fatal")
	}
	cur.GetByte()
	if !cur.FatalError() {
		t.Fatal("expected overrun error on second GetByte")
	}
}

func TestByteCursorGetShortLong(t *testing.T) {
	cur := NewByteCursor([]byte{0x01, 0x02, 0x03, 0x04})
	if s := cur.GetShort(); s != 0x0102 {
		t.Fatalf("GetShort() = %#x", s)
	}
	cur.Reset()
	if l := cur.GetLong(); l != 0x01020304 {
		t.Fatalf("GetLong() = %#x", l)
	}
}

func TestByteCursorSeekSkipDecrement(t *testing.T) {
	cur := NewByteCursor([]byte{1, 2, 3, 4, 5})
	if !cur.Seek(3) {
		t.Fatal("Seek(3) should succeed")
	}
	if cur.Pos() != 3 {
		t.Fatalf("Pos() = %d, want 3", cur.Pos())
	}
	cur.Decrement()
	if cur.Pos() != 2 {
		t.Fatalf("Pos() after Decrement = %d, want 2", cur.Pos())
	}
	cur.Skip(10)
	if !cur.Done() {
		t.Fatal("expected Done() after skipping past the end")
	}
	if cur.Seek(-1) {
		t.Fatal("Seek(-1) should fail")
	}
	if cur.Seek(100) {
		t.Fatal("Seek(100) should fail on a 5-byte buffer")
	}
}
