package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"jane.doe@x.com", "Jane Doe"},
		{"rider_01-dhaka@profast.io", "Rider 01 Dhaka"},
		{"jane.doe+parcels@x.com", "Jane Doe Parcels"},
		{"solo", "Solo"},
		{"@x.com", "Customer"},
		{"", "Customer"},
		{"émile@x.fr", "Émile"},
	}
	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.address))
		})
	}
}
