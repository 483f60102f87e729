package pagination

import (
	"errors"
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	cursor := Encode(createdAt, 42)

	gotTime, gotID, err := Decode(cursor)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !gotTime.Equal(createdAt) {
		t.Fatalf("expected %v, got %v", createdAt, gotTime)
	}
	if gotID != 42 {
		t.Fatalf("expected id 42, got %d", gotID)
	}
}

func TestCursorRejectsGarbage(t *testing.T) {
	cases := []string{
		"not base64!!",
		"bm8gcGlwZQ",     // "no pipe"
		"YWJjfGRlZg",     // "abc|def"
		"MTIzNA",         // "1234", missing id
		"LTV8MTA",        // "-5|10", negative timestamp
		"MTAwfDA",        // "100|0", zero id
		"",
	}
	for _, cursor := range cases {
		if _, _, err := Decode(cursor); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("cursor %q: expected ErrInvalidCursor, got %v", cursor, err)
		}
	}
}
