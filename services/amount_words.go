package services

import (
	"fmt"
	"math"
	"strings"
)

// AmountToWords spells an amount the way Peruvian quotations print it:
// 35.40 → "SON: TREINTA Y CINCO CON 40/100 SOLES".
func AmountToWords(amount float64) string {
	prefix := ""
	if amount < 0 {
		prefix = "MENOS "
		amount = -amount
	}

	cents := int64(math.Round(amount * 100))
	soles := cents / 100
	rest := cents % 100

	words := "cero"
	if soles > 0 {
		words = spanishWords(soles)
	}
	return fmt.Sprintf("SON: %s%s CON %02d/100 SOLES", prefix, strings.ToUpper(words), rest)
}

func spanishWords(n int64) string {
	var parts []string

	if n >= 1000000 {
		millions := n / 1000000
		if millions == 1 {
			parts = append(parts, "un millón")
		} else {
			parts = append(parts, apocopate(spanishWords(millions))+" millones")
		}
		n %= 1000000
	}

	if n >= 1000 {
		thousands := n / 1000
		if thousands == 1 {
			parts = append(parts, "mil")
		} else {
			parts = append(parts, apocopate(spanishUnder1000(thousands))+" mil")
		}
		n %= 1000
	}

	if n > 0 {
		parts = append(parts, spanishUnder1000(n))
	}

	return strings.Join(parts, " ")
}

func spanishUnder1000(n int64) string {
	if n == 100 {
		return "cien"
	}
	var parts []string
	if n >= 100 {
		parts = append(parts, hundredsES[n/100])
		n %= 100
	}
	if n > 0 {
		parts = append(parts, spanishUnder100(n))
	}
	return strings.Join(parts, " ")
}

func spanishUnder100(n int64) string {
	if n < 30 {
		return onesES[n]
	}
	result := tensES[n/10]
	if n%10 != 0 {
		result += " y " + onesES[n%10]
	}
	return result
}

// apocopate shortens a trailing "uno" before "mil" or "millones".
func apocopate(words string) string {
	switch {
	case strings.HasSuffix(words, "veintiuno"):
		return strings.TrimSuffix(words, "veintiuno") + "veintiún"
	case strings.HasSuffix(words, "uno"):
		return strings.TrimSuffix(words, "uno") + "un"
	}
	return words
}

var onesES = []string{
	"", "uno", "dos", "tres", "cuatro", "cinco", "seis", "siete", "ocho", "nueve",
	"diez", "once", "doce", "trece", "catorce", "quince", "dieciséis", "diecisiete",
	"dieciocho", "diecinueve", "veinte", "veintiuno", "veintidós", "veintitrés",
	"veinticuatro", "veinticinco", "veintiséis", "veintisiete", "veintiocho", "veintinueve",
}

var tensES = []string{
	"", "", "", "treinta", "cuarenta", "cincuenta", "sesenta", "setenta", "ochenta", "noventa",
}

var hundredsES = []string{
	"", "ciento", "doscientos", "trescientos", "cuatrocientos", "quinientos",
	"seiscientos", "setecientos", "ochocientos", "novecientos",
}
