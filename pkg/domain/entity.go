package domain

// Entity is any server resource addressed by a server-assigned id.
type Entity interface {
	EntityID() string
}

// Page is one page of a paginated collection.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}
