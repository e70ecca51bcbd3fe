package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/naveenspark/hackforge/pkg/domain"
)

// Resource is the CRUD surface of one REST collection, e.g. /hackathons.
type Resource[T any] struct {
	c    *Client
	path string
}

// NewResource returns a Resource rooted at path.
func NewResource[T any](c *Client, path string) *Resource[T] {
	return &Resource[T]{c: c, path: path}
}

// Hackathons returns the /hackathons resource.
func (c *Client) Hackathons() *Resource[domain.Hackathon] {
	return NewResource[domain.Hackathon](c, "/hackathons")
}

// Projects returns the /projects resource.
func (c *Client) Projects() *Resource[domain.Project] {
	return NewResource[domain.Project](c, "/projects")
}

// Teams returns the /teams resource.
func (c *Client) Teams() *Resource[domain.Team] {
	return NewResource[domain.Team](c, "/teams")
}

// List fetches one page of the collection. query carries filters and paging.
func (r *Resource[T]) List(ctx context.Context, query url.Values) (*domain.Page[T], error) {
	path := r.path
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var page domain.Page[T]
	if err := r.c.get(ctx, path, &page); err != nil {
		return nil, fmt.Errorf("client.List %s: %w", r.path, err)
	}
	return &page, nil
}

// Get fetches a single item by id.
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	var item T
	if err := r.c.get(ctx, r.path+"/"+url.PathEscape(id), &item); err != nil {
		return nil, fmt.Errorf("client.Get %s: %w", r.path, err)
	}
	return &item, nil
}

// Create posts payload and returns the created item.
func (r *Resource[T]) Create(ctx context.Context, payload any) (*T, error) {
	var item T
	if err := r.c.post(ctx, r.path, payload, &item); err != nil {
		return nil, fmt.Errorf("client.Create %s: %w", r.path, err)
	}
	return &item, nil
}

// Update replaces the item with the given id and returns the server's copy.
func (r *Resource[T]) Update(ctx context.Context, id string, payload any) (*T, error) {
	var item T
	if err := r.c.Request(ctx, http.MethodPut, r.path+"/"+url.PathEscape(id), payload, &item); err != nil {
		return nil, fmt.Errorf("client.Update %s: %w", r.path, err)
	}
	return &item, nil
}

// Delete removes the item with the given id.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	if err := r.c.Request(ctx, http.MethodDelete, r.path+"/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("client.Delete %s: %w", r.path, err)
	}
	return nil
}
