package entity

import "time"

const (
	// TableName is the remote table holding entity rows.
	TableName = "entity_setup"
	// UniqueColumn is the identity column used by the save endpoint.
	UniqueColumn = "id"
)

// Column names of the entity table.
const (
	ColID                 = "id"
	ColLegalBusinessName  = "legalBusinessName"
	ColDisplayName        = "displayName"
	ColEntityType         = "entityType"
	ColAddressLine1       = "addressLine1"
	ColAddressLine2       = "addressLine2"
	ColCity               = "city"
	ColPinCode            = "pinCode"
	ColCountry            = "country"
	ColState              = "state"
	ColCurrencies         = "currencies"
	ColModules            = "modules"
	ColIsEnabled          = "isEnabled"
	ColIsDeleted          = "isDeleted"
	ColIsConfigured       = "isConfigured"
	ColProgressPercentage = "progressPercentage"
	ColCreatedAt          = "createdAt"
	ColLastUpdatedAt      = "lastUpdatedAt"
)

// Columns lists every column selected when reading entities.
var Columns = []string{
	ColID,
	ColLegalBusinessName,
	ColDisplayName,
	ColEntityType,
	ColAddressLine1,
	ColAddressLine2,
	ColCity,
	ColPinCode,
	ColCountry,
	ColState,
	ColCurrencies,
	ColModules,
	ColIsEnabled,
	ColIsDeleted,
	ColIsConfigured,
	ColProgressPercentage,
	ColCreatedAt,
	ColLastUpdatedAt,
}

// CurrencySelection is the JSON-encoded currency choice of an entity.
type CurrencySelection struct {
	Default string   `json:"default"`
	Others  []string `json:"others"`
}

// Empty reports whether no currency was chosen.
func (c CurrencySelection) Empty() bool {
	return c.Default == "" && len(c.Others) == 0
}

// Entity is a legal entity as stored by the backend.
type Entity struct {
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
	IsEnabled          bool              `json:"isEnabled"`
	IsDeleted          bool              `json:"isDeleted"`
	IsConfigured       bool              `json:"isConfigured"`
	ProgressPercentage string            `json:"progressPercentage"`
	CreatedAt          time.Time         `json:"createdAt"`
	LastUpdatedAt      time.Time         `json:"lastUpdatedAt"`
}

// Form converts the entity into an editable form with every flag set.
func (e Entity) Form() Form {
	enabled, deleted, configured := e.IsEnabled, e.IsDeleted, e.IsConfigured
	modules := append([]string(nil), e.Modules...)
	return Form{
		ID:                 e.ID,
		LegalBusinessName:  e.LegalBusinessName,
		DisplayName:        e.DisplayName,
		EntityType:         e.EntityType,
		AddressLine1:       e.AddressLine1,
		AddressLine2:       e.AddressLine2,
		City:               e.City,
		PinCode:            e.PinCode,
		Country:            e.Country,
		State:              e.State,
		Currencies:         e.Currencies,
		Modules:            modules,
		IsEnabled:          &enabled,
		IsDeleted:          &deleted,
		IsConfigured:       &configured,
		ProgressPercentage: e.ProgressPercentage,
	}
}

// ListFilters represents standard list page filters.
type ListFilters struct {
	Page           int
	PageSize       int
	Search         string
	IncludeDeleted bool
}

// Normalize applies paging defaults.
func (f ListFilters) Normalize() ListFilters {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 500 {
		f.PageSize = 500
	}
	return f
}
