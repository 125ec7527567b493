package mcp

import "testing"

func TestPassageURI_String(t *testing.T) {
	uri := NewPassageURI("ibn-katheer", 2, 153)
	expected := "tafsir://ibn-katheer/2/153"
	if uri.String() != expected {
		t.Errorf("expected %s, got %s", expected, uri.String())
	}
}

func TestPassageURI_WithLanguage(t *testing.T) {
	uri := NewPassageURI("ibn-katheer", 2, 153).WithLanguage("en")
	expected := "tafsir://ibn-katheer/2/153?language=en"
	if uri.String() != expected {
		t.Errorf("expected %s, got %s", expected, uri.String())
	}
}

func TestParsePassageURI(t *testing.T) {
	uri, err := ParsePassageURI("tafsir://al-tabari/1/7?language=fr")
	if err != nil {
		t.Fatalf("ParsePassageURI: %v", err)
	}
	if uri.Author() != "al-tabari" || uri.Surah() != 1 || uri.Ayah() != 7 || uri.Language() != "fr" {
		t.Errorf("unexpected uri: %+v", uri)
	}
}

func TestParsePassageURI_Invalid(t *testing.T) {
	for _, raw := range []string{
		"file://1/abc/main.go",
		"tafsir://ibn-katheer/2",
		"tafsir://ibn-katheer/two/1",
		"tafsir://ibn-katheer/2/x",
		"tafsir:///2/1",
	} {
		if _, err := ParsePassageURI(raw); err == nil {
			t.Errorf("ParsePassageURI(%q) expected error", raw)
		}
	}
}
