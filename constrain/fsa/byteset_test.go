package fsa

import "testing"

func TestByteSetAddContains(t *testing.T) {
	var s ByteSet
	s.Add('a')
	s.Add('\n')
	if !s.Contains('a') || !s.Contains('\n') {
		t.Fatalf("expected 'a' and '\\n' to be members")
	}
	if s.Contains('b') {
		t.Fatalf("did not expect 'b' to be a member")
	}
	if s.Count() != 2 {
		t.Errorf("expected count 2, got %d", s.Count())
	}
}

func TestByteSetRange(t *testing.T) {
	var s ByteSet
	s.AddRange('0', '9')
	for b := byte('0'); b <= '9'; b++ {
		if !s.Contains(b) {
			t.Errorf("expected digit %q to be a member", b)
		}
	}
	if s.Contains('a') {
		t.Errorf("did not expect 'a' to be a member")
	}
	if s.Count() != 10 {
		t.Errorf("expected count 10, got %d", s.Count())
	}
}

func TestByteSetUnion(t *testing.T) {
	a := SingleByte('{')
	b := SingleByte('}')
	a.Union(b)
	if !a.Contains('{') || !a.Contains('}') {
		t.Fatalf("union lost a member")
	}
}

func TestByteSetEachOrder(t *testing.T) {
	var s ByteSet
	s.Add(200)
	s.Add(5)
	s.Add(64)
	var seen []byte
	s.Each(func(b byte) { seen = append(seen, b) })
	want := []byte{5, 64, 200}
	if len(seen) != len(want) {
		t.Fatalf("got %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("got %v, want %v", seen, want)
		}
	}
}

func TestByteSetClearAndEmpty(t *testing.T) {
	s := SingleByte('x')
	if s.IsEmpty() {
		t.Fatalf("expected non-empty set")
	}
	s.Clear()
	if !s.IsEmpty() {
		t.Fatalf("expected empty set after Clear")
	}
}
