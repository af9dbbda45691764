package normalize

import "testing"

func TestTwitterStatus(t *testing.T) {
	cases := []string{
		"https://twitter.com/foo/status/123?s=20",
		"https://x.com/foo/status/123",
		"https://mobile.twitter.com/foo/status/123",
		"https://vxtwitter.com/foo/status/123",
		"https://X.COM/FOO/STATUS/123",
	}
	for _, raw := range cases {
		if got := Key(raw); got != "tw/123" {
			t.Fatalf("Key(%q) = %q, want tw/123", raw, got)
		}
	}
}

func TestTwitterNoStatusPassthrough(t *testing.T) {
	if got := Key("https://twitter.com/foo"); got != "https://twitter.com/foo" {
		t.Fatalf("profile link rewritten: %q", got)
	}
	if got := Key("https://Twitter.com/Foo"); got != "https://twitter.com/foo" {
		t.Fatalf("expected lower-cased passthrough, got %q", got)
	}
}

func TestYouTubeShortLink(t *testing.T) {
	got := Key("https://youtu.be/abc123?t=5")
	want := "https://www.youtube.com/watch?v=abc123&t=5"
	if got != want {
		t.Fatalf("Key = %q, want %q", got, want)
	}
	if got := Key("https://youtu.be/abc123"); got != "https://www.youtube.com/watch?v=abc123" {
		t.Fatalf("bare short link: %q", got)
	}
}

func TestYouTubeFeatureStrip(t *testing.T) {
	got := Key("https://www.youtube.com/watch?v=abc123&feature=youtu.be")
	if got != "https://www.youtube.com/watch?v=abc123" {
		t.Fatalf("feature tag kept: %q", got)
	}
}

func TestUnrelatedPassthrough(t *testing.T) {
	if got := Key("https://example.com/a/b?c=d"); got != "https://example.com/a/b?c=d" {
		t.Fatalf("unrelated URL rewritten: %q", got)
	}
	if got := Key("not a url at all"); got != "not a url at all" {
		t.Fatalf("malformed input rewritten: %q", got)
	}
}

func TestIdempotent(t *testing.T) {
	inputs := []string{
		"https://twitter.com/foo/status/123?s=20",
		"https://twitter.com/foo",
		"https://youtu.be/abc123?t=5",
		"https://youtu.be/abc123?feature=youtu.be",
		"https://www.youtube.com/watch?v=abc123&feature=youtu.be",
		"https://example.com/x",
		"tw/999",
	}
	for _, raw := range inputs {
		once := Key(raw)
		if twice := Key(once); twice != once {
			t.Fatalf("Key not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}

func TestExtractURLs(t *testing.T) {
	urls := ExtractURLs("look https://a.example/x and http://b.example/y end")
	if len(urls) != 2 || urls[0] != "https://a.example/x" || urls[1] != "http://b.example/y" {
		t.Fatalf("ExtractURLs = %v", urls)
	}
	if urls := ExtractURLs("no links here"); len(urls) != 0 {
		t.Fatalf("unexpected urls: %v", urls)
	}
}
