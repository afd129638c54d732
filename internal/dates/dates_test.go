package dates

import (
	"reflect"
	"testing"
	"time"
)

func TestYesterday(t *testing.T) {
	want := time.Now().AddDate(0, 0, -1).Format(Layout)
	if got := Yesterday(); got != want {
		t.Errorf("Yesterday() = %q, want %q", got, want)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2024-03-01", true},
		{"2024-12-31", true},
		{"2024-13-01", false},
		{"2024-02-30", false},
		{"01/02/2024", false},
		{"2024-3-1", false},
		{"", false},
		{"not-a-date", false},
	}

	for _, tt := range tests {
		if got := IsValid(tt.input); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestRange(t *testing.T) {
	got, err := Range("2024-02-27", "2024-03-02")
	if err != nil {
		t.Fatalf("Range() error = %v", err)
	}
	want := []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Range() = %v, want %v", got, want)
	}
}

func TestRange_SingleDay(t *testing.T) {
	got, err := Range("2024-01-05", "2024-01-05")
	if err != nil {
		t.Fatalf("Range() error = %v", err)
	}
	if len(got) != 1 || got[0] != "2024-01-05" {
		t.Errorf("Range() = %v, want single element 2024-01-05", got)
	}
}

func TestRange_Errors(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
	}{
		{name: "end before start", start: "2024-01-05", end: "2024-01-04"},
		{name: "bad start", start: "nope", end: "2024-01-04"},
		{name: "bad end", start: "2024-01-05", end: "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Range(tt.start, tt.end); err == nil {
				t.Error("Range() succeeded, want error")
			}
		})
	}
}
