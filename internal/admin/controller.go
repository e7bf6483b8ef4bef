// Package admin sequences entity use cases against the remote API and
// records their outcome in the application state.
package admin

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/entityadmin/internal/entity"
	"github.com/odyssey-erp/entityadmin/internal/sqlapi"
	"github.com/odyssey-erp/entityadmin/internal/state"
)

// User-facing failure messages, one per action.
const (
	MsgFetchEntitiesFailed  = "Failed to fetch entities"
	MsgFetchEntityFailed    = "Failed to fetch entity"
	MsgSaveFailed           = "Failed to save entity"
	MsgUpdateFailed         = "Failed to update entity"
	MsgDeleteFailed         = "Failed to delete entity"
	MsgStatusUpdateFailed   = "Failed to update entity status"
	MsgFetchHierarchyFailed = "Failed to fetch entity hierarchy"
)

// User-facing success messages.
const (
	MsgSaved         = "Entity saved successfully"
	MsgUpdated       = "Entity updated successfully"
	MsgDeleted       = "Entity deleted successfully"
	MsgStatusUpdated = "Entity status updated successfully"
)

// Routes recorded with state.Navigate.
const (
	RouteList = "/entities"
)

// EntityRoute is the detail route of id.
func EntityRoute(id string) string {
	return RouteList + "/" + id
}

// EntityService defines the entity use cases driven by the controller.
type EntityService interface {
	List(ctx context.Context, filters entity.ListFilters) ([]entity.Entity, int, error)
	Get(ctx context.Context, id string) (entity.Entity, error)
	Hierarchy(ctx context.Context) ([]sqlapi.Node, error)
	Create(ctx context.Context, cmd entity.NewEntity) error
	Update(ctx context.Context, cmd entity.UpdateEntity) error
	Delete(ctx context.Context, id string) error
	Patch(ctx context.Context, cmd entity.PartialUpdate) error
}

// Controller runs each action as: set loading, await the remote calls, set
// success or error, clear loading.
type Controller struct {
	service EntityService
	store   *state.Store
	logger  *slog.Logger

	mu      sync.Mutex
	filters entity.ListFilters
}

// NewController constructs a Controller.
func NewController(service EntityService, store *state.Store, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{service: service, store: store, logger: logger, filters: entity.ListFilters{}.Normalize()}
}

// Snapshot returns the current application state.
func (c *Controller) Snapshot() state.State {
	return c.store.Snapshot()
}

// LoadEntities fetches one page of entities and remembers the filters for
// later refetches.
func (c *Controller) LoadEntities(ctx context.Context, filters entity.ListFilters) ([]entity.Entity, int, error) {
	filters = filters.Normalize()
	c.mu.Lock()
	c.filters = filters
	c.mu.Unlock()

	var items []entity.Entity
	var total int
	err := c.run(ctx, "load entities", MsgFetchEntitiesFailed, "", func(ctx context.Context) error {
		var err error
		items, total, err = c.service.List(ctx, filters)
		if err != nil {
			return err
		}
		c.dispatch(ctx, state.SetEntities{Items: items, Total: total})
		return nil
	})
	return items, total, err
}

// LoadEntity fetches an entity together with the hierarchy it belongs to.
func (c *Controller) LoadEntity(ctx context.Context, id string) (entity.Entity, []sqlapi.Node, error) {
	var ent entity.Entity
	var nodes []sqlapi.Node
	err := c.run(ctx, "load entity", MsgFetchEntityFailed, "", func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			ent, err = c.service.Get(gctx, id)
			return err
		})
		g.Go(func() error {
			var err error
			nodes, err = c.service.Hierarchy(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}
		c.dispatch(ctx, state.SetSelected{Entity: &ent})
		c.dispatch(ctx, state.SetHierarchy{Nodes: nodes})
		return nil
	})
	return ent, nodes, err
}

// LoadHierarchy fetches the entity tree.
func (c *Controller) LoadHierarchy(ctx context.Context) ([]sqlapi.Node, error) {
	var nodes []sqlapi.Node
	err := c.run(ctx, "load hierarchy", MsgFetchHierarchyFailed, "", func(ctx context.Context) error {
		var err error
		nodes, err = c.service.Hierarchy(ctx)
		if err != nil {
			return err
		}
		c.dispatch(ctx, state.SetHierarchy{Nodes: nodes})
		return nil
	})
	return nodes, err
}

// SaveEntity creates an entity, refetches the list and navigates to it. The
// returned route is the one this call navigated to.
func (c *Controller) SaveEntity(ctx context.Context, form entity.Form) (string, error) {
	return c.navigateAfter(ctx, "save entity", MsgSaveFailed, MsgSaved, RouteList, func(ctx context.Context) error {
		if err := c.service.Create(ctx, entity.NewEntity{Form: form}); err != nil {
			return err
		}
		if err := c.refetch(ctx); err != nil {
			return err
		}
		return nil
	})
}

// UpdateEntity rewrites an entity, refetches the list and navigates to its
// detail route.
func (c *Controller) UpdateEntity(ctx context.Context, form entity.Form) (string, error) {
	route := EntityRoute(strings.TrimSpace(form.ID))
	return c.navigateAfter(ctx, "update entity", MsgUpdateFailed, MsgUpdated, route, func(ctx context.Context) error {
		if err := c.service.Update(ctx, entity.UpdateEntity{Form: form}); err != nil {
			return err
		}
		if err := c.refetch(ctx); err != nil {
			return err
		}
		return nil
	})
}

// DeleteEntity soft-deletes an entity and returns to the list.
func (c *Controller) DeleteEntity(ctx context.Context, id string) (string, error) {
	return c.navigateAfter(ctx, "delete entity", MsgDeleteFailed, MsgDeleted, RouteList, func(ctx context.Context) error {
		if err := c.service.Delete(ctx, id); err != nil {
			return err
		}
		if sel := c.Snapshot().Entities.Selected; sel != nil && sel.ID == id {
			c.dispatch(ctx, state.SetSelected{})
		}
		if err := c.refetch(ctx); err != nil {
			return err
		}
		return nil
	})
}

// navigateAfter runs fn as a thunk and, when it succeeds, navigates to route
// before loading is cleared.
func (c *Controller) navigateAfter(ctx context.Context, op, failure, success, route string, fn func(context.Context) error) (string, error) {
	err := c.run(ctx, op, failure, success, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}
		c.dispatch(ctx, state.Navigate{Route: route})
		return nil
	})
	if err != nil {
		return "", err
	}
	return route, nil
}

// PatchEntity writes the provided fields and applies them locally once the
// backend accepted them.
func (c *Controller) PatchEntity(ctx context.Context, patch entity.PartialUpdate) error {
	return c.run(ctx, "patch entity", MsgStatusUpdateFailed, MsgStatusUpdated, func(ctx context.Context) error {
		if err := c.service.Patch(ctx, patch); err != nil {
			return err
		}
		c.dispatch(ctx, state.PatchEntity{Patch: patch})
		return nil
	})
}

// ToggleEnabled flips the enabled flag of id. The local state changes before
// the remote call and is reverted when the call fails. It returns the value
// the flag holds afterwards.
func (c *Controller) ToggleEnabled(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		c.dispatch(ctx, state.SetError{Message: MsgStatusUpdateFailed})
		return false, entity.ErrIDRequired
	}
	current, ok := c.enabled(id)
	if !ok {
		ent, err := c.service.Get(ctx, id)
		if err != nil {
			c.logger.Error("toggle entity", slog.String("entity_id", id), slog.Any("error", err))
			c.dispatch(ctx, state.SetError{Message: MsgStatusUpdateFailed})
			return false, err
		}
		current = ent.IsEnabled
	}
	next := !current

	c.dispatch(ctx, state.PatchEntity{Patch: entity.PartialUpdate{ID: id, IsEnabled: &next}})
	err := c.run(ctx, "toggle entity", MsgStatusUpdateFailed, MsgStatusUpdated, func(ctx context.Context) error {
		return c.service.Patch(ctx, entity.PartialUpdate{ID: id, IsEnabled: &next})
	})
	if err != nil {
		c.dispatch(ctx, state.PatchEntity{Patch: entity.PartialUpdate{ID: id, IsEnabled: &current}})
		return current, err
	}
	return next, nil
}

func (c *Controller) enabled(id string) (bool, bool) {
	snap := c.Snapshot()
	if e, ok := snap.Find(id); ok {
		return e.IsEnabled, true
	}
	if sel := snap.Entities.Selected; sel != nil && sel.ID == id {
		return sel.IsEnabled, true
	}
	return false, false
}

func (c *Controller) refetch(ctx context.Context) error {
	c.mu.Lock()
	filters := c.filters
	c.mu.Unlock()
	items, total, err := c.service.List(ctx, filters)
	if err != nil {
		return err
	}
	c.dispatch(ctx, state.SetEntities{Items: items, Total: total})
	return nil
}

func (c *Controller) run(ctx context.Context, op, failure, success string, fn func(context.Context) error) error {
	c.dispatch(ctx, state.SetLoading{Loading: true})
	defer c.dispatch(ctx, state.SetLoading{Loading: false})

	if err := fn(ctx); err != nil {
		c.logger.Error(op, slog.Any("error", err))
		c.dispatch(ctx, state.SetError{Message: failure})
		return err
	}
	if success != "" {
		c.dispatch(ctx, state.SetSuccess{Message: success})
	}
	return nil
}

// dispatch applies a regardless of ctx cancellation.
func (c *Controller) dispatch(ctx context.Context, a state.Action) {
	if _, err := c.store.Dispatch(context.WithoutCancel(ctx), a); err != nil {
		c.logger.Warn("dispatch state action", slog.String("action", actionName(a)), slog.Any("error", err))
	}
}

func actionName(a state.Action) string {
	switch a.(type) {
	case state.SetLoading:
		return "set_loading"
	case state.SetError:
		return "set_error"
	case state.SetSuccess:
		return "set_success"
	case state.SetEntities:
		return "set_entities"
	case state.SetSelected:
		return "set_selected"
	case state.SetHierarchy:
		return "set_hierarchy"
	case state.PatchEntity:
		return "patch_entity"
	case state.Navigate:
		return "navigate"
	default:
		return "unknown"
	}
}
