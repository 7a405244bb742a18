package services

// UnitOptions lists the units of measure offered for laboratory tests.
var UnitOptions = []string{
	"UND",
	"Ensayo",
	"Muestra",
	"Punto",
	"ML",
	"M2",
	"M3",
	"Día",
	"Global",
}

// QuoteStatusOptions are the lifecycle states of a quotation.
var QuoteStatusOptions = []string{
	"Pendiente",
	"Enviada",
	"Aceptada",
	"Rechazada",
	"Anulada",
}

// PaymentTermOptions maps stored payment-term values to their labels.
var PaymentTermOptions = []struct {
	Value string
	Label string
}{
	{"Contado", "Al Contado"},
	{"15_dias", "A 15 días"},
	{"30_dias", "A 30 días"},
	{"60_dias", "A 60 días"},
	{"Personalizado", "Personalizado"},
}

// PaymentTermLabel returns the printable label of a payment-term value.
func PaymentTermLabel(value, custom string) string {
	if value == "Personalizado" && custom != "" {
		return custom
	}
	for _, opt := range PaymentTermOptions {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

// IsLockedStatus reports whether a quotation in this state can no longer be
// deleted.
func IsLockedStatus(status string) bool {
	return status == "Aceptada"
}
