// Package templates holds the fixed catalog of report templates and keeps the
// durable store in step with it.
package templates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"teamreports/models"
)

var ErrNotFound = errors.New("template not found")

// TemplateStore is the slice of the entity store the registry writes to.
type TemplateStore interface {
	EnsureTemplate(ctx context.Context, tpl *models.Template) (bool, error)
}

type Registry struct {
	catalog []models.Template
	byID    map[string]int
	byKey   map[string]int
	store   TemplateStore

	mu     sync.Mutex
	synced bool
}

// NewRegistry validates the catalog and indexes it by id and key.
func NewRegistry(store TemplateStore, catalog []models.Template) (*Registry, error) {
	r := &Registry{
		catalog: catalog,
		byID:    make(map[string]int, len(catalog)),
		byKey:   make(map[string]int, len(catalog)),
		store:   store,
	}
	for i := range catalog {
		tpl := &catalog[i]
		if err := Validate(tpl); err != nil {
			return nil, err
		}
		if _, dup := r.byID[tpl.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", tpl.ID)
		}
		r.byID[tpl.ID] = i
		if tpl.Key != "" {
			if _, dup := r.byKey[tpl.Key]; dup {
				return nil, fmt.Errorf("duplicate template key %q", tpl.Key)
			}
			r.byKey[tpl.Key] = i
		}
	}
	return r, nil
}

// Get looks a template up by id, then by key.
func (r *Registry) Get(idOrKey string) (*models.Template, error) {
	i, ok := r.byID[idOrKey]
	if !ok {
		i, ok = r.byKey[idOrKey]
	}
	if !ok {
		return nil, fmt.Errorf("%q: %w", idOrKey, ErrNotFound)
	}
	return clone(r.catalog[i]), nil
}

// List returns the whole catalog in its declared order.
func (r *Registry) List() []models.Template {
	out := make([]models.Template, len(r.catalog))
	for i, tpl := range r.catalog {
		out[i] = *clone(tpl)
	}
	return out
}

// EnsureSynced writes every catalog template that is missing from the store.
// The first successful run is remembered; later calls return immediately.
func (r *Registry) EnsureSynced(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.synced {
		return nil
	}

	inserted := 0
	for _, tpl := range r.catalog {
		row := clone(tpl)
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now().UTC()
		}
		created, err := r.store.EnsureTemplate(ctx, row)
		if err != nil {
			return fmt.Errorf("sync template %s: %w", tpl.ID, err)
		}
		if created {
			inserted++
		}
	}

	r.synced = true
	logrus.WithFields(logrus.Fields{
		"catalog":  len(r.catalog),
		"inserted": inserted,
	}).Info("Report templates synced")
	return nil
}

func (r *Registry) Synced() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.synced
}

// Validate checks a template's structural rules: an id, unique non-empty
// field ids, known field types and sane numeric bounds.
func Validate(tpl *models.Template) error {
	if tpl.ID == "" {
		return errors.New("template id is required")
	}
	seen := make(map[string]struct{}, len(tpl.Fields))
	for _, f := range tpl.Fields {
		if f.ID == "" {
			return fmt.Errorf("template %s: field without id", tpl.ID)
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("template %s: duplicate field id %q", tpl.ID, f.ID)
		}
		seen[f.ID] = struct{}{}

		switch f.Type {
		case models.FieldText, models.FieldTextarea, models.FieldNumber, models.FieldDate:
		case models.FieldSelect:
			if len(f.Options) == 0 {
				return fmt.Errorf("template %s: select field %q has no options", tpl.ID, f.ID)
			}
			for _, o := range f.Options {
				if strings.Contains(o, "'") {
					return fmt.Errorf("template %s: select field %q option %q contains a quote", tpl.ID, f.ID, o)
				}
			}
		default:
			return fmt.Errorf("template %s: field %q has unknown type %q", tpl.ID, f.ID, f.Type)
		}

		if v := f.Validation; v != nil && v.Min != nil && v.Max != nil && *v.Min > *v.Max {
			return fmt.Errorf("template %s: field %q has min above max", tpl.ID, f.ID)
		}
	}
	return nil
}

func clone(tpl models.Template) *models.Template {
	out := tpl
	out.Fields = make([]models.TemplateField, len(tpl.Fields))
	copy(out.Fields, tpl.Fields)
	return &out
}
