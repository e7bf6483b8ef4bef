package entity

import (
	"strings"
	"time"

	"github.com/odyssey-erp/entityadmin/internal/csvrow"
)

// Defaults applied to nil flags when a row is encoded.
const (
	DefaultIsEnabled    = true
	DefaultIsDeleted    = false
	DefaultIsConfigured = false
)

// Form is the editable shape of an entity. Flags are pointers so that an
// unset value falls back to its default. Timestamps are optional ISO strings.
type Form struct {
	ID                 string            `json:"id"`
	LegalBusinessName  string            `json:"legalBusinessName"`
	DisplayName        string            `json:"displayName"`
	EntityType         string            `json:"entityType"`
	AddressLine1       string            `json:"addressLine1"`
	AddressLine2       string            `json:"addressLine2"`
	City               string            `json:"city"`
	PinCode            string            `json:"pinCode"`
	Country            string            `json:"country"`
	State              string            `json:"state"`
	Currencies         CurrencySelection `json:"currencies"`
	Modules            []string          `json:"modules"`
	IsEnabled          *bool             `json:"isEnabled,omitempty"`
	IsDeleted          *bool             `json:"isDeleted,omitempty"`
	IsConfigured       *bool             `json:"isConfigured,omitempty"`
	ProgressPercentage string            `json:"progressPercentage"`
	CreatedAt          string            `json:"createdAt,omitempty"`
	LastUpdatedAt      string            `json:"lastUpdatedAt,omitempty"`
}

// softDeleted reports an update that only flags the row as deleted.
func (f Form) softDeleted() bool {
	return f.IsDeleted != nil && *f.IsDeleted
}

// BuildCSV encodes form as a save row for op. Update and delete rows require
// an id. An update with the delete flag set is narrowed to a soft delete.
func BuildCSV(form Form, op csvrow.Op, now func() time.Time) (csvrow.Payload, error) {
	if !op.Valid() {
		return csvrow.Payload{}, &ValidationError{Msg: "unknown operation " + string(op)}
	}
	id := strings.TrimSpace(form.ID)
	if op.RequiresID() && id == "" {
		return csvrow.Payload{}, ErrIDRequired
	}

	b := csvrow.NewBuilder(op, now)
	switch {
	case op == csvrow.OpDelete:
		b.Raw(ColID, csvrow.Quote(id))
		return b.Build(), nil
	case op == csvrow.OpUpdate && form.softDeleted():
		return softDeleteRow(b, id, form.LastUpdatedAt), nil
	case op == csvrow.OpNew:
		b.StringIf(ColID, id, id != "")
	default:
		b.Raw(ColID, csvrow.Quote(id))
	}

	b.String(ColLegalBusinessName, form.LegalBusinessName).
		String(ColDisplayName, form.DisplayName).
		String(ColEntityType, form.EntityType).
		String(ColAddressLine1, form.AddressLine1).
		String(ColAddressLine2, form.AddressLine2).
		String(ColCity, form.City).
		String(ColPinCode, form.PinCode).
		String(ColCountry, form.Country).
		String(ColState, form.State).
		JSON(ColCurrencies, currenciesValue(form.Currencies), form.Currencies.Empty()).
		JSON(ColModules, modulesValue(form.Modules), len(form.Modules) == 0).
		Bool(ColIsEnabled, form.IsEnabled, DefaultIsEnabled).
		Bool(ColIsDeleted, form.IsDeleted, DefaultIsDeleted).
		Bool(ColIsConfigured, form.IsConfigured, DefaultIsConfigured).
		String(ColProgressPercentage, form.ProgressPercentage)

	if op == csvrow.OpNew {
		b.Timestamp(ColCreatedAt, form.CreatedAt)
	}
	b.Timestamp(ColLastUpdatedAt, form.LastUpdatedAt)
	return b.Build(), nil
}

func softDeleteRow(b *csvrow.Builder, id, lastUpdatedAt string) csvrow.Payload {
	deleted := true
	return b.Raw(ColID, csvrow.Quote(id)).
		Timestamp(ColLastUpdatedAt, lastUpdatedAt).
		Bool(ColIsDeleted, &deleted, true).
		Build()
}

// currenciesValue keeps an empty list of other currencies encoded as [].
func currenciesValue(c CurrencySelection) CurrencySelection {
	if c.Others == nil {
		c.Others = []string{}
	}
	return c
}

// modulesValue keeps an empty selection encoded as [] rather than null.
func modulesValue(modules []string) []string {
	if modules == nil {
		return []string{}
	}
	return modules
}
