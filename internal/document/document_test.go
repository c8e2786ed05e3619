package document

import "testing"

func TestTextJoinsPages(t *testing.T) {
	d := New("https://example.gov/ord.pdf", []string{"page one", "page two"})
	if got, want := d.Text(), "page one\n\npage two"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestStampChecksum(t *testing.T) {
	d := New("file.pdf", nil)
	Stamp(d, []byte("hello"))
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if d.Checksum != want {
		t.Errorf("Checksum = %q, want %q", d.Checksum, want)
	}
}

func TestAttrRoundTrip(t *testing.T) {
	d := New("x", nil)
	if _, ok := Attr[string](d, "missing"); ok {
		t.Error("expected missing attr to report !ok")
	}
	SetAttr(d, "cleaned_ordinance_text", "some text")
	got, ok := Attr[string](d, "cleaned_ordinance_text")
	if !ok || got != "some text" {
		t.Errorf("Attr() = %q, %v, want %q, true", got, ok, "some text")
	}
}

func TestAttrWrongType(t *testing.T) {
	d := New("x", nil)
	SetAttr(d, "k", 42)
	if _, ok := Attr[string](d, "k"); ok {
		t.Error("expected type mismatch to report !ok")
	}
}

func TestDateIsZero(t *testing.T) {
	if !(Date{}).IsZero() {
		t.Error("zero Date should report IsZero")
	}
	if (Date{Year: 2020}).IsZero() {
		t.Error("non-zero Date should not report IsZero")
	}
}
