package document

import "testing"

func TestKindFromFilename(t *testing.T) {
	cases := []struct {
		name string
		want Kind
		ok   bool
	}{
		{"notes.txt", KindText, true},
		{"README.md", KindText, true},
		{"report.PDF", KindPDF, true},
		{"contract.docx", KindDOCX, true},
		{"legacy.DOC", KindDOCX, true},
		{"budget.xls", KindExcel, true},
		{"budget.xlsx", KindExcel, true},
		{"archive.tar.xlsx", KindExcel, true},
		{"image.png", "", false},
		{"noextension", "", false},
		{"trailingdot.", "", false},
	}

	for _, tc := range cases {
		kind, ok := KindFromFilename(tc.name)
		if ok != tc.ok || kind != tc.want {
			t.Fatalf("%s: got (%s, %v) want (%s, %v)", tc.name, kind, ok, tc.want, tc.ok)
		}
	}
}

func TestNewDerivesSizeFromContent(t *testing.T) {
	doc := New("hello.txt", KindText, "Hello world")
	if doc.SizeBytes != len("Hello world") {
		t.Fatalf("unexpected size: %d", doc.SizeBytes)
	}
	if doc.ProcessedAt.IsZero() {
		t.Fatal("ProcessedAt not set")
	}
}
