package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
)

// Catalog is an immutable, index-backed TariffCatalog. Safe for concurrent use.
type Catalog struct {
	tariffs      []domain.DutyRecord
	standard     map[string]domain.DutyRecord
	preferential map[string]domain.PreferentialRecord
	countries    map[string]domain.Country
	descriptions map[string]domain.DescriptionRecord
	vat          map[string]domain.VATRecord
	alerts       map[string][]domain.AlertRecord
	exclusions   map[string][]domain.ExclusionRecord
}

func LoadFile(path string) (*Catalog, error) {
	snapshot, err := ReadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return New(snapshot), nil
}

// ReadSnapshot decodes a YAML catalog snapshot.
func ReadSnapshot(path string) (domain.CatalogSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.CatalogSnapshot{}, fmt.Errorf("read catalog snapshot: %w", err)
	}
	var snapshot domain.CatalogSnapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return domain.CatalogSnapshot{}, fmt.Errorf("decode catalog snapshot: %w", err)
	}
	return snapshot, nil
}

func New(s domain.CatalogSnapshot) *Catalog {
	c := &Catalog{
		standard:     make(map[string]domain.DutyRecord),
		preferential: make(map[string]domain.PreferentialRecord),
		countries:    make(map[string]domain.Country),
		descriptions: make(map[string]domain.DescriptionRecord),
		vat:          make(map[string]domain.VATRecord),
		alerts:       make(map[string][]domain.AlertRecord),
		exclusions:   make(map[string][]domain.ExclusionRecord),
	}

	for _, t := range s.Tariffs {
		if t.Origin == "" {
			t.Origin = domain.OriginErgaOmnes
		}
		if t.Origin != domain.OriginErgaOmnes {
			continue
		}
		if _, dup := c.standard[t.Code]; !dup {
			c.standard[t.Code] = t
			c.tariffs = append(c.tariffs, t)
		}
	}
	sort.SliceStable(c.tariffs, func(i, j int) bool { return c.tariffs[i].Code < c.tariffs[j].Code })

	for _, p := range s.PreferentialTariffs {
		c.preferential[preferentialKey(p.Code, p.Country)] = p
	}
	for _, country := range s.Countries {
		c.countries[strings.ToUpper(country.Code)] = country
	}
	for _, d := range s.Descriptions {
		c.descriptions[d.Code] = d
	}
	for _, v := range s.VATRates {
		c.vat[v.Code] = v
	}
	for _, a := range s.MeasureAlerts {
		c.alerts[a.Code] = append(c.alerts[a.Code], a)
	}
	for code := range c.alerts {
		list := c.alerts[code]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Priority < list[j].Priority })
	}
	for _, e := range s.MeasureExclusions {
		c.exclusions[e.Code] = append(c.exclusions[e.Code], e)
	}
	return c
}

func (c *Catalog) FindStandardDuty(_ context.Context, code string) (domain.DutyRecord, bool, error) {
	record, ok := c.standard[code]
	return record, ok, nil
}

func (c *Catalog) ScanStandardDuties(_ context.Context, prefix string) ([]domain.DutyRecord, error) {
	start := sort.Search(len(c.tariffs), func(i int) bool { return c.tariffs[i].Code >= prefix })
	out := make([]domain.DutyRecord, 0)
	for i := start; i < len(c.tariffs) && strings.HasPrefix(c.tariffs[i].Code, prefix); i++ {
		out = append(out, c.tariffs[i])
	}
	return out, nil
}

func (c *Catalog) FindPreferential(_ context.Context, code, country string) (domain.PreferentialRecord, bool, error) {
	record, ok := c.preferential[preferentialKey(code, country)]
	return record, ok, nil
}

func (c *Catalog) FindCountry(_ context.Context, code string) (domain.Country, bool, error) {
	country, ok := c.countries[strings.ToUpper(code)]
	return country, ok, nil
}

func (c *Catalog) ListCountries(context.Context) ([]domain.Country, error) {
	out := make([]domain.Country, 0, len(c.countries))
	for _, country := range c.countries {
		out = append(out, country)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *Catalog) FindDescription(_ context.Context, code string) (domain.DescriptionRecord, bool, error) {
	record, ok := c.descriptions[code]
	return record, ok, nil
}

func (c *Catalog) FindVAT(_ context.Context, code string) (domain.VATRecord, bool, error) {
	record, ok := c.vat[code]
	return record, ok, nil
}

func (c *Catalog) ListAlerts(_ context.Context, code string) ([]domain.AlertRecord, error) {
	list := c.alerts[code]
	out := make([]domain.AlertRecord, len(list))
	copy(out, list)
	return out, nil
}

func (c *Catalog) ListExclusions(_ context.Context, code, country string) ([]domain.ExclusionRecord, error) {
	out := make([]domain.ExclusionRecord, 0)
	for _, e := range c.exclusions[code] {
		if strings.EqualFold(e.ExcludedCountry, country) {
			out = append(out, e)
		}
	}
	return out, nil
}

func preferentialKey(code, country string) string {
	return code + "|" + strings.ToUpper(country)
}
