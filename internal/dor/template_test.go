package dor

import "testing"

func TestIsTemplateText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{"Empty string", "", true},
		{"Whitespace only", "   \n\t ", true},
		{"Unfilled story skeleton", "As a  I want  So that ", true},
		{"Unfilled would-like skeleton", "As a I would like So that", true},
		{"Bracketed placeholders", "As a [USER TYPE] I want [FEATURE] So that [BENEFIT]", true},
		{"Partial placeholders", "As a [USER] I want [X]", true},
		{"Short skeleton without brackets", "as a i want it", true},
		{"Bug template boilerplate", "Please describe what the expected behavior is", true},
		{"Real story syntax", "As a release manager I want automated changelog generation So that I stop writing them by hand", false},
		{"Plain summary", "Fix login bug", false},
		{"Multiline real content", "As a support agent\nI want canned replies\nSo that common tickets close faster", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTemplateText(tt.text); got != tt.expected {
				t.Errorf("IsTemplateText(%q) = %v, want %v", tt.text, got, tt.expected)
			}
		})
	}
}

func TestMeaningfulText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{"Empty", "", false},
		{"Template", "As a [USER] I want [X]", false},
		{"Real content", "Add retry handling to the payment webhook consumer", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MeaningfulText(tt.text); got != tt.expected {
				t.Errorf("MeaningfulText(%q) = %v, want %v", tt.text, got, tt.expected)
			}
		})
	}
}
