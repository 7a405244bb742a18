package services_test

import (
	"testing"
	"time"

	"labquote/services"
	"labquote/testhelpers"
)

func TestGenerateOfferNumber(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "20100070970", "Constructora Andina SAC")
	date := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

	got, err := services.GenerateOfferNumber(app, services.DefaultOfferPrefix, date)
	if err != nil {
		t.Fatalf("GenerateOfferNumber() error = %v", err)
	}
	if got != "VFC-OTE-2025-0001" {
		t.Fatalf("first offer number = %q, want VFC-OTE-2025-0001", got)
	}

	testhelpers.CreateTestQuote(t, app, client.Id, "VFC-OTE-2025-0007")

	got, err = services.GenerateOfferNumber(app, services.DefaultOfferPrefix, date)
	if err != nil {
		t.Fatalf("GenerateOfferNumber() error = %v", err)
	}
	if got != "VFC-OTE-2025-0008" {
		t.Errorf("next offer number = %q, want VFC-OTE-2025-0008", got)
	}
}
