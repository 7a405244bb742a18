// Package config loads application settings from the environment and an
// optional .env file. PocketBase keeps its own serve flags and data dir.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"

	"labquote/services"
)

type Config struct {
	TaxRate        float64
	OfferPrefix    string
	CurrencySymbol string
	CompanyName    string
	CompanyAddress string
	CompanyEmail   string
	LogLevel       string
	LogDevelopment bool
	SeedData       bool

	// CSRFKey signs the CSRF cookie. Without CSRF_AUTH_KEY a random key is
	// generated, so tokens do not survive a restart.
	CSRFKey            []byte
	CSRFSecureCookie   bool
	CSRFTrustedOrigins []string
}

const csrfKeyLength = 32

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TaxRate:        services.NormalizeTaxRate(getEnvFloat("TAX_RATE", services.DefaultTaxRate)),
		OfferPrefix:    strings.TrimSpace(getEnv("OFFER_PREFIX", services.DefaultOfferPrefix)),
		CurrencySymbol: getEnv("CURRENCY_SYMBOL", services.DefaultCurrencySymbol),
		CompanyName:    getEnv("COMPANY_NAME", "VICAF LABORATORIO DE ENSAYOS"),
		CompanyAddress: getEnv("COMPANY_ADDRESS", "Lima, Perú"),
		CompanyEmail:   getEnv("COMPANY_EMAIL", "cotizaciones@vicaf.pe"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogDevelopment: getEnvBool("LOG_DEVELOPMENT", false),
		SeedData:       getEnvBool("SEED_DATA", true),
	}
	if cfg.OfferPrefix == "" {
		cfg.OfferPrefix = services.DefaultOfferPrefix
	}

	key, err := csrfKey(getEnv("CSRF_AUTH_KEY", ""))
	if err != nil {
		return Config{}, err
	}
	cfg.CSRFKey = key
	cfg.CSRFSecureCookie = getEnvBool("CSRF_SECURE_COOKIE", false)
	cfg.CSRFTrustedOrigins = getEnvList("CSRF_TRUSTED_ORIGINS")

	return cfg, nil
}

// csrfKey decodes a hex-encoded 32 byte key, or generates one when blank.
func csrfKey(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		key := securecookie.GenerateRandomKey(csrfKeyLength)
		if key == nil {
			return nil, fmt.Errorf("generate CSRF key: no randomness available")
		}
		return key, nil
	}
	key, err := hex.DecodeString(value)
	if err != nil || len(key) != csrfKeyLength {
		return nil, fmt.Errorf("CSRF_AUTH_KEY must be %d hex-encoded bytes", csrfKeyLength)
	}
	return key, nil
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvFloat accepts a decimal comma, like the editor's numeric inputs.
func getEnvFloat(key string, fallback float64) float64 {
	value := strings.ReplaceAll(strings.TrimSpace(getEnv(key, "")), ",", ".")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
