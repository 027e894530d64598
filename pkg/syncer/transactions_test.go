package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapPaymentMethod(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"efectivo", "Cash"},
		{"cash", "Cash"},
		{"EFECTIVO", "Cash"},
		{"  efectivo  ", "Cash"},
		{"tarjeta", "Card"},
		{"credito", "Card"},
		{"debito", "Card"},
		{"card", "Card"},
		{"transferencia", "Transfer"},
		{"transfer", "Transfer"},
		{"cheque", "Check"},
		{"check", "Check"},
		{"", PaymentMethodLegacy},
		{"bitcoin", PaymentMethodLegacy},
		{"otro", PaymentMethodLegacy},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapPaymentMethod(tt.code))
		})
	}
}

func TestSaleDescription(t *testing.T) {
	assert.Equal(t, "Legacy Sale 42", SaleDescription(42))
	assert.Equal(t, "Legacy Sale ", SaleDescriptionPrefix())
}

func TestBuildName(t *testing.T) {
	tests := []struct {
		name     string
		given    string
		paternal string
		maternal string
		expected string
	}{
		{"all parts", "Ana", "García", "López", "Ana García López"},
		{"missing maternal", "Bob", "Pérez", "", "Bob Pérez"},
		{"missing paternal", "Carla", "", "Soto", "Carla Soto"},
		{"given only", "Dana", "", "", "Dana"},
		{"all blank", "", "", "", ""},
		{"padded parts", " Ana ", " García ", "", "Ana García"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildName(tt.given, tt.paternal, tt.maternal))
		})
	}
}
