package entity

import (
	"strings"
	"time"

	"github.com/odyssey-erp/entityadmin/internal/csvrow"
)

// Command is one typed write against the entity table.
type Command interface {
	Op() csvrow.Op
	EntityID() string
	Action() string
	Encode(now func() time.Time) (csvrow.Payload, error)
}

// NewEntity inserts an entity. Blank optional fields are not sent.
type NewEntity struct {
	Form
}

func (c NewEntity) Op() csvrow.Op    { return csvrow.OpNew }
func (c NewEntity) EntityID() string { return strings.TrimSpace(c.ID) }
func (c NewEntity) Action() string   { return "entity.create" }

func (c NewEntity) Encode(now func() time.Time) (csvrow.Payload, error) {
	return BuildCSV(c.Form, csvrow.OpNew, now)
}

// UpdateEntity rewrites every editable column; blank strings clear columns.
type UpdateEntity struct {
	Form
}

func (c UpdateEntity) Op() csvrow.Op    { return csvrow.OpUpdate }
func (c UpdateEntity) EntityID() string { return strings.TrimSpace(c.ID) }
func (c UpdateEntity) Action() string   { return "entity.update" }

func (c UpdateEntity) Encode(now func() time.Time) (csvrow.Payload, error) {
	return BuildCSV(c.Form, csvrow.OpUpdate, now)
}

// DeleteEntity removes the row.
type DeleteEntity struct {
	ID string
}

func (c DeleteEntity) Op() csvrow.Op    { return csvrow.OpDelete }
func (c DeleteEntity) EntityID() string { return strings.TrimSpace(c.ID) }
func (c DeleteEntity) Action() string   { return "entity.delete" }

func (c DeleteEntity) Encode(now func() time.Time) (csvrow.Payload, error) {
	return BuildCSV(Form{ID: c.ID}, csvrow.OpDelete, now)
}

// SoftDelete flags the row as deleted, touching only id, lastUpdatedAt and
// isDeleted.
type SoftDelete struct {
	ID            string
	LastUpdatedAt string
}

func (c SoftDelete) Op() csvrow.Op    { return csvrow.OpUpdate }
func (c SoftDelete) EntityID() string { return strings.TrimSpace(c.ID) }
func (c SoftDelete) Action() string   { return "entity.soft_delete" }

func (c SoftDelete) Encode(now func() time.Time) (csvrow.Payload, error) {
	id := c.EntityID()
	if id == "" {
		return csvrow.Payload{}, ErrIDRequired
	}
	return softDeleteRow(csvrow.NewBuilder(csvrow.OpUpdate, now), id, c.LastUpdatedAt), nil
}

// PartialUpdate writes only the fields that were provided.
type PartialUpdate struct {
	ID                 string    `json:"id"`
	IsEnabled          *bool     `json:"isEnabled,omitempty"`
	IsConfigured       *bool     `json:"isConfigured,omitempty"`
	Modules            *[]string `json:"modules,omitempty"`
	ProgressPercentage *string   `json:"progressPercentage,omitempty"`
	LastUpdatedAt      string    `json:"lastUpdatedAt,omitempty"`
}

func (c PartialUpdate) Op() csvrow.Op    { return csvrow.OpUpdate }
func (c PartialUpdate) EntityID() string { return strings.TrimSpace(c.ID) }
func (c PartialUpdate) Action() string   { return "entity.partial_update" }

func (c PartialUpdate) Encode(now func() time.Time) (csvrow.Payload, error) {
	id := c.EntityID()
	if id == "" {
		return csvrow.Payload{}, ErrIDRequired
	}
	b := csvrow.NewBuilder(csvrow.OpUpdate, now).
		Raw(ColID, csvrow.Quote(id)).
		Timestamp(ColLastUpdatedAt, c.LastUpdatedAt)
	if c.IsEnabled != nil {
		b.Bool(ColIsEnabled, c.IsEnabled, DefaultIsEnabled)
	}
	if c.IsConfigured != nil {
		b.Bool(ColIsConfigured, c.IsConfigured, DefaultIsConfigured)
	}
	if c.Modules != nil {
		b.Raw(ColModules, csvrow.QuoteJSON(modulesValue(*c.Modules)))
	}
	if c.ProgressPercentage != nil {
		b.Raw(ColProgressPercentage, csvrow.Quote(*c.ProgressPercentage))
	}
	return b.Build(), nil
}

// Apply copies the provided fields onto e.
func (c PartialUpdate) Apply(e Entity) Entity {
	if c.IsEnabled != nil {
		e.IsEnabled = *c.IsEnabled
	}
	if c.IsConfigured != nil {
		e.IsConfigured = *c.IsConfigured
	}
	if c.Modules != nil {
		e.Modules = append([]string(nil), (*c.Modules)...)
	}
	if c.ProgressPercentage != nil {
		e.ProgressPercentage = *c.ProgressPercentage
	}
	return e
}
