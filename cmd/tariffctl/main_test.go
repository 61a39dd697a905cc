package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
)

const sampleCatalog = "../../configs/catalog.sample.yaml"

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--catalog-file", sampleCatalog}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestResolvePrintsPreferentialResolution(t *testing.T) {
	out, err := runCLI(t, "", "resolve", "0702000000", "--cif", "1000", "--country", "ma")
	if err != nil {
		t.Fatalf("resolve error = %v", err)
	}

	var resolution domain.Resolution
	if err := json.Unmarshal([]byte(out), &resolution); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if resolution.Status != domain.StatusComplete || resolution.Result == nil {
		t.Fatalf("unexpected resolution: %+v", resolution)
	}
	if resolution.Result.Duty.Treatment != domain.TreatmentPreferential {
		t.Fatalf("expected preferential treatment, got %s", resolution.Result.Duty.Treatment)
	}
	if got := resolution.Result.Duty.Savings.String(); got != "88" {
		t.Fatalf("expected savings 88, got %s", got)
	}
}

func TestResolveRejectsNonNumericCIF(t *testing.T) {
	_, err := runCLI(t, "", "resolve", "0702000000", "--cif", "lots")
	if err == nil || !strings.Contains(err.Error(), "not a number") {
		t.Fatalf("expected cif validation error, got %v", err)
	}
}

func TestResolveHidesNoTariffBehindPublicMessage(t *testing.T) {
	_, err := runCLI(t, "", "resolve", "9999999999", "--cif", "100")
	if err == nil {
		t.Fatalf("expected error for unknown code")
	}
	if err.Error() != domain.PublicMessage(domain.ErrNoTariffFound) {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}

func TestCompareOrdersOriginsByTotal(t *testing.T) {
	out, err := runCLI(t, "", "compare", "0702000000", "--cif", "1000", "--countries", "CN,MA")
	if err != nil {
		t.Fatalf("compare error = %v", err)
	}

	var comparison domain.Comparison
	if err := json.Unmarshal([]byte(out), &comparison); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(comparison.Origins) == 0 || comparison.Origins[0].Country.Code != "MA" {
		t.Fatalf("expected MA to be cheapest, got %+v", comparison.Origins)
	}
}

func TestCountriesListsCatalogCountries(t *testing.T) {
	out, err := runCLI(t, "", "countries")
	if err != nil {
		t.Fatalf("countries error = %v", err)
	}

	var countries []domain.Country
	if err := json.Unmarshal([]byte(out), &countries); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(countries) != 6 || countries[0].Name != "China" {
		t.Fatalf("unexpected countries: %+v", countries)
	}
}

func TestBatchReadsStdinAndWritesJSON(t *testing.T) {
	stdin := `[{"code":"0702000000","cifValue":1000,"country":"MA"},{"code":"84A1","cifValue":"10"}]`
	out, err := runCLI(t, stdin, "batch", "-")
	if err != nil {
		t.Fatalf("batch error = %v", err)
	}

	var items []domain.BatchItem
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Resolution == nil || items[0].Error != nil {
		t.Fatalf("expected first item to resolve, got %+v", items[0])
	}
	if items[1].Error == nil || items[1].Error.Kind != "invalid_code" {
		t.Fatalf("expected invalid_code error on second item, got %+v", items[1])
	}
}

func TestBatchWritesSpreadsheet(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "requests.json")
	if err := os.WriteFile(input, []byte(`[{"code":"8471300000","cifValue":1000}]`), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	target := filepath.Join(dir, "out.xlsx")

	out, err := runCLI(t, "", "batch", input, "--xlsx", target)
	if err != nil {
		t.Fatalf("batch error = %v", err)
	}
	if !strings.Contains(out, "wrote 1 rows") {
		t.Fatalf("unexpected output %q", out)
	}

	f, err := excelize.OpenFile(target)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Batch")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "8471300000" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestSeedAndSchemaRequirePostgres(t *testing.T) {
	for _, args := range [][]string{{"schema"}, {"seed", sampleCatalog}} {
		_, err := runCLI(t, "", args...)
		if !errors.Is(err, errPostgresOnly) {
			t.Fatalf("%v: expected errPostgresOnly, got %v", args, err)
		}
	}
}

func TestNATSURLIsRejectedOutsideResolve(t *testing.T) {
	cases := [][]string{
		{"compare", "0702000000", "--cif", "1000", "--countries", "MA"},
		{"countries"},
		{"batch", "-"},
		{"schema"},
	}
	for _, args := range cases {
		_, err := runCLI(t, `[{"code":"0702000000","cifValue":"1"}]`, append(args, "--nats-url", "nats://127.0.0.1:4222")...)
		if !errors.Is(err, errQueueResolveOnly) {
			t.Fatalf("%s: expected errQueueResolveOnly, got %v", args[0], err)
		}
	}
}
