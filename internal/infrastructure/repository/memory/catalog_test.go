package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func loadTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := LoadFile(filepath.Join("testdata", "catalog.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	return catalog
}

func TestLoadFileDecodesDecimalRates(t *testing.T) {
	catalog := loadTestCatalog(t)

	record, ok, err := catalog.FindStandardDuty(context.Background(), "0702000000")
	if err != nil || !ok {
		t.Fatalf("expected standard duty, ok=%v err=%v", ok, err)
	}
	if !record.Rate.Equal(decimal.RequireFromString("8.8")) {
		t.Fatalf("expected rate 8.8, got %s", record.Rate)
	}

	country, ok, _ := catalog.FindCountry(context.Background(), "ru")
	if !ok {
		t.Fatalf("expected country lookup to be case-insensitive")
	}
	if !country.IsSanctioned() {
		t.Fatalf("expected RU to carry a sanction surcharge")
	}
}

func TestScanStandardDutiesSkipsNonStandardOrigins(t *testing.T) {
	catalog := loadTestCatalog(t)

	records, err := catalog.ScanStandardDuties(context.Background(), "8471")
	if err != nil {
		t.Fatalf("ScanStandardDuties() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Code != "8471300000" || records[2].Code != "8471490000" {
		t.Fatalf("expected records ordered by code, got %+v", records)
	}

	shirts, _ := catalog.ScanStandardDuties(context.Background(), "6109")
	if len(shirts) != 1 || !shirts[0].Rate.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("expected only the ERGA OMNES shirt record, got %+v", shirts)
	}
}

func TestOriginDefaultsToErgaOmnes(t *testing.T) {
	catalog := loadTestCatalog(t)

	if _, ok, _ := catalog.FindStandardDuty(context.Background(), "3004900000"); !ok {
		t.Fatalf("expected record without origin to be treated as standard")
	}
}

func TestListAlertsOrderedByPriority(t *testing.T) {
	catalog := loadTestCatalog(t)

	alerts, _ := catalog.ListAlerts(context.Background(), "6109100010")
	if len(alerts) != 2 || alerts[0].Priority != 1 {
		t.Fatalf("expected priority 1 alert first, got %+v", alerts)
	}

	exclusions, _ := catalog.ListExclusions(context.Background(), "6109100010", "tr")
	if len(exclusions) != 1 || exclusions[0].MeasureCode != "485" {
		t.Fatalf("expected TR exclusion, got %+v", exclusions)
	}
	none, _ := catalog.ListExclusions(context.Background(), "6109100010", "CN")
	if len(none) != 0 {
		t.Fatalf("expected no CN exclusions, got %+v", none)
	}
}

func TestListCountriesSortedByName(t *testing.T) {
	catalog := loadTestCatalog(t)

	countries, _ := catalog.ListCountries(context.Background())
	if len(countries) != 3 || countries[0].Name != "China" || countries[2].Name != "Russia" {
		t.Fatalf("unexpected order: %+v", countries)
	}
}
