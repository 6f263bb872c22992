package zru

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/zrupay/zru-go/pkg/resource"
)

// Resource is the CRUD endpoint of one resource kind.
type Resource struct {
	kind    resource.Kind
	request *APIRequest
}

func newResource(kind resource.Kind, request *APIRequest) *Resource {
	return &Resource{kind: kind, request: request}
}

func (r *Resource) Kind() resource.Kind {
	return r.kind
}

// List returns the first page of the collection. params are passed as query
// string filters.
func (r *Resource) List(ctx context.Context, params url.Values) (*Paginator, error) {
	p := &Paginator{resource: r}
	if err := r.request.Get(ctx, r.kind.Path(), params, &p.page); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Resource) Retrieve(ctx context.Context, id string) (*resource.Object, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	obj := resource.NewObject(r.kind, nil)
	if err := r.request.Get(ctx, r.kind.ItemPath(id), nil, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func (r *Resource) Create(ctx context.Context, fields map[string]any) (*resource.Object, error) {
	obj := resource.NewObject(r.kind, nil)
	if err := r.request.Post(ctx, r.kind.Path(), fields, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func (r *Resource) Update(ctx context.Context, id string, fields map[string]any) (*resource.Object, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	obj := resource.NewObject(r.kind, nil)
	if err := r.request.Patch(ctx, r.kind.ItemPath(id), fields, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Save creates obj when it has no id yet and updates it otherwise. The
// object is refreshed with the API answer.
func (r *Resource) Save(ctx context.Context, obj *resource.Object) error {
	if obj.Kind() != r.kind {
		return fmt.Errorf("cannot save %s object with the %s resource", obj.Kind(), r.kind)
	}

	var saved *resource.Object
	var err error
	if obj.ID() == "" {
		saved, err = r.Create(ctx, obj.Fields())
	} else {
		saved, err = r.Update(ctx, obj.ID(), obj.Fields())
	}
	if err != nil {
		return err
	}

	for k, v := range saved.Fields() {
		obj.Set(k, v)
	}
	return nil
}

func (r *Resource) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	return r.request.Delete(ctx, r.kind.ItemPath(id))
}

// Action posts to an item sub-route, e.g. "capture" on a sale. body may be nil.
func (r *Resource) Action(ctx context.Context, id string, action string, body map[string]any) (*resource.Object, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	if body == nil {
		body = map[string]any{}
	}
	obj := resource.NewObject(r.kind, nil)
	if err := r.request.Post(ctx, r.kind.ItemPath(id)+action+"/", body, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

type page struct {
	Count    int               `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []json.RawMessage `json:"results"`
}

// Paginator is one page of a list call.
type Paginator struct {
	resource *Resource
	page     page
}

func (p *Paginator) Count() int {
	return p.page.Count
}

// Results decodes the objects of this page.
func (p *Paginator) Results() ([]*resource.Object, error) {
	objs := make([]*resource.Object, 0, len(p.page.Results))
	for _, raw := range p.page.Results {
		obj := resource.NewObject(p.resource.kind, nil)
		if err := json.Unmarshal(raw, obj); err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

func (p *Paginator) HasNext() bool {
	return p.page.Next != nil && *p.page.Next != ""
}

func (p *Paginator) HasPrevious() bool {
	return p.page.Previous != nil && *p.page.Previous != ""
}

// Next fetches the following page, or returns nil on the last one.
func (p *Paginator) Next(ctx context.Context) (*Paginator, error) {
	if !p.HasNext() {
		return nil, nil
	}
	return p.follow(ctx, *p.page.Next)
}

// Previous fetches the preceding page, or returns nil on the first one.
func (p *Paginator) Previous(ctx context.Context) (*Paginator, error) {
	if !p.HasPrevious() {
		return nil, nil
	}
	return p.follow(ctx, *p.page.Previous)
}

func (p *Paginator) follow(ctx context.Context, link string) (*Paginator, error) {
	next := &Paginator{resource: p.resource}
	if err := p.resource.request.Get(ctx, link, nil, &next.page); err != nil {
		return nil, err
	}
	return next, nil
}
