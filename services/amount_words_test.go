package services

import "testing"

func TestAmountToWords(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		expect string
	}{
		{"zero", 0, "SON: CERO CON 00/100 SOLES"},
		{"with cents", 35.40, "SON: TREINTA Y CINCO CON 40/100 SOLES"},
		{"hundred exact", 100, "SON: CIEN CON 00/100 SOLES"},
		{"hundred and one", 101, "SON: CIENTO UNO CON 00/100 SOLES"},
		{"thousand", 1000, "SON: MIL CON 00/100 SOLES"},
		{"apocope before mil", 21000, "SON: VEINTIÚN MIL CON 00/100 SOLES"},
		{"thirty one thousand", 31000, "SON: TREINTA Y UN MIL CON 00/100 SOLES"},
		{"one million", 1000000, "SON: UN MILLÓN CON 00/100 SOLES"},
		{"millions", 2500100.5, "SON: DOS MILLONES QUINIENTOS MIL CIEN CON 50/100 SOLES"},
		{"negative", -12, "SON: MENOS DOCE CON 00/100 SOLES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AmountToWords(tt.amount)
			if got != tt.expect {
				t.Errorf("AmountToWords(%v) = %q, want %q", tt.amount, got, tt.expect)
			}
		})
	}
}
