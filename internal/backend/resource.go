package backend

import (
	"context"
	"net/url"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/models"
)

// Resource is a typed view of one backend collection such as "orders" or
// "customers". It implements the list and mutate contracts.
type Resource[T any] struct {
	client *Client
	path   string
}

// NewResource binds a collection path to a client
func NewResource[T any](client *Client, path string) *Resource[T] {
	return &Resource[T]{client: client, path: path}
}

// List fetches one page of the collection
func (r *Resource[T]) List(ctx context.Context, params models.ListParams) (*models.Page[T], error) {
	var page models.Page[T]
	if err := r.client.Get(ctx, r.path, params.Values(), &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return &page, nil
}

// Get fetches one entity by ID
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	if err := r.client.Get(ctx, r.itemPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create posts a new entity and returns the stored version
func (r *Resource[T]) Create(ctx context.Context, body any) (*T, error) {
	var out T
	if err := r.client.Post(ctx, r.path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces an entity
func (r *Resource[T]) Update(ctx context.Context, id string, body any) (*T, error) {
	var out T
	if err := r.client.Put(ctx, r.itemPath(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Patch changes only the fields present in body
func (r *Resource[T]) Patch(ctx context.Context, id string, body any) (*T, error) {
	var out T
	if err := r.client.Patch(ctx, r.itemPath(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an entity
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.client.Delete(ctx, r.itemPath(id), nil)
}

func (r *Resource[T]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}
