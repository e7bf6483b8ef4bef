package entity

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/odyssey-erp/entityadmin/internal/csvrow"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	csvrow.TimestampLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// FromRecord decodes a response record. Booleans, JSON columns and timestamps
// that cannot be decoded leave the zero value.
func FromRecord(rec csvrow.Record) Entity {
	return Entity{
		ID:                 rec.Get(ColID),
		LegalBusinessName:  rec.Get(ColLegalBusinessName),
		DisplayName:        rec.Get(ColDisplayName),
		EntityType:         rec.Get(ColEntityType),
		AddressLine1:       rec.Get(ColAddressLine1),
		AddressLine2:       rec.Get(ColAddressLine2),
		City:               rec.Get(ColCity),
		PinCode:            rec.Get(ColPinCode),
		Country:            rec.Get(ColCountry),
		State:              rec.Get(ColState),
		Currencies:         parseCurrencies(rec.Get(ColCurrencies)),
		Modules:            parseModules(rec.Get(ColModules)),
		IsEnabled:          parseBool(rec.Get(ColIsEnabled)),
		IsDeleted:          parseBool(rec.Get(ColIsDeleted)),
		IsConfigured:       parseBool(rec.Get(ColIsConfigured)),
		ProgressPercentage: rec.Get(ColProgressPercentage),
		CreatedAt:          parseTimestamp(rec.Get(ColCreatedAt)),
		LastUpdatedAt:      parseTimestamp(rec.Get(ColLastUpdatedAt)),
	}
}

// FromTable decodes every record of a response table.
func FromTable(table csvrow.Table) []Entity {
	out := make([]Entity, 0, len(table.Records))
	for _, rec := range table.Records {
		out = append(out, FromRecord(rec))
	}
	return out
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "t":
		return true
	}
	return false
}

// jsonText undoes literal quoting some backends keep on JSON columns.
func jsonText(v string) string {
	v = strings.TrimSpace(v)
	if strings.Contains(v, "''") {
		v = strings.ReplaceAll(v, "''", "'")
	}
	return v
}

func parseCurrencies(v string) CurrencySelection {
	var sel CurrencySelection
	text := jsonText(v)
	if text == "" {
		return sel
	}
	if err := json.Unmarshal([]byte(text), &sel); err != nil {
		return CurrencySelection{}
	}
	return sel
}

func parseModules(v string) []string {
	text := jsonText(v)
	if text == "" {
		return nil
	}
	var modules []string
	if err := json.Unmarshal([]byte(text), &modules); err != nil {
		return nil
	}
	return modules
}

func parseTimestamp(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return ts
		}
	}
	return time.Time{}
}
