package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"простое название", "Acme", "acme"},
		{"пробелы", "Acme Corp", "acme-corp"},
		{"спецсимволы", "Acme, Inc.", "acme-inc"},
		{"повторные разделители", "Acme  --  Corp", "acme-corp"},
		{"цифры", "Team 42", "team-42"},
		{"хвостовые разделители", "Acme!!!", "acme"},
		{"пустая строка", "", ""},
		{"только спецсимволы", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Make(tt.input))
		})
	}
}
