package classfile

import (
	"bytes"
	"testing"
)

func TestNumParameters(t *testing.T) {
	cases := []struct {
		descriptor string
		want       uint16
	}{
		{"()V", 0},
		{"(I)V", 1},
		{"(II)I", 2},
		{"([I)I", 1},
		{"([Ljava/lang/String;)V", 0}, // not an 'I' slot: this engine only counts int/int-array
		{"(I[I)I", 2},
	}
	for _, c := range cases {
		if got := NumParameters(c.descriptor); got != c.want {
			t.Errorf("NumParameters(%q) = %d, want %d", c.descriptor, got, c.want)
		}
	}
}

func TestFindMethodExactMatch(t *testing.T) {
	b := NewBuilder()
	b.AddMethod("main", "([Ljava/lang/String;)V", 2, 1, []byte{0xb1})
	b.AddMethod("fact", "(I)I", 4, 1, []byte{0xac})
	class := b.Build()

	m, ok := FindMethod(class, "fact", "(I)I")
	if !ok {
		t.Fatal("expected to find fact(I)I")
	}
	if m.MaxStack != 4 || m.MaxLocals != 1 {
		t.Errorf("unexpected method metadata: %+v", m)
	}

	if _, ok := FindMethod(class, "fact", "(II)I"); ok {
		t.Error("descriptor mismatch should not match")
	}
}

func TestFindMethodFromIndex(t *testing.T) {
	b := NewBuilder()
	b.AddMethod("fact", "(I)I", 4, 1, []byte{0xac})
	ref := b.AddMethodRef("fact", "(I)I")
	class := b.Build()

	m, ok := FindMethodFromIndex(class, ref)
	if !ok {
		t.Fatal("expected to resolve method ref")
	}
	if m.Name != "fact" {
		t.Errorf("resolved wrong method: %+v", m)
	}

	if _, ok := FindMethodFromIndex(class, 0); ok {
		t.Error("index 0 must never resolve (pool is 1-based)")
	}
	if _, ok := FindMethodFromIndex(class, 999); ok {
		t.Error("out-of-range index must not resolve")
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	b := NewBuilder()
	b.AddInteger(5)
	b.AddMethodRef("fact", "(I)I")
	b.AddMethod("main", "([Ljava/lang/String;)V", 2, 1, []byte{0x08, 0xb8, 0x00, 0x02, 0xb1})
	b.AddMethod("fact", "(I)I", 4, 1, []byte{0xac})
	class := b.Build()

	var buf bytes.Buffer
	if err := Encode(&buf, class); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := parse(&buf, 0)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if len(got.Pool) != len(class.Pool) {
		t.Fatalf("pool size mismatch: got %d, want %d", len(got.Pool), len(class.Pool))
	}
	if len(got.Methods) != len(class.Methods) {
		t.Fatalf("method count mismatch: got %d, want %d", len(got.Methods), len(class.Methods))
	}
	main, ok := FindMethod(got, "main", "([Ljava/lang/String;)V")
	if !ok {
		t.Fatal("round-tripped class missing main")
	}
	if !bytes.Equal(main.Code, class.Methods[0].Code) {
		t.Errorf("round-tripped code mismatch: got %x, want %x", main.Code, class.Methods[0].Code)
	}
}

func TestParseBadMagic(t *testing.T) {
	_, err := parse(bytes.NewReader([]byte{0x00, 0x00, 0x00, 0x00}), 0)
	if err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestParseRejectsOversizedMethodCode(t *testing.T) {
	b := NewBuilder()
	b.AddMethod("main", "([Ljava/lang/String;)V", 2, 1, []byte{0xb1, 0xb1, 0xb1, 0xb1})
	class := b.Build()

	var buf bytes.Buffer
	if err := Encode(&buf, class); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if _, err := parse(bytes.NewReader(buf.Bytes()), 3); err == nil {
		t.Fatal("expected an error for code length exceeding the limit")
	}
	if _, err := parse(bytes.NewReader(buf.Bytes()), 4); err != nil {
		t.Errorf("code length equal to the limit should parse fine, got %v", err)
	}
	if _, err := parse(bytes.NewReader(buf.Bytes()), 0); err != nil {
		t.Errorf("a zero limit means unbounded, got %v", err)
	}
}
