package client

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// Catalog is the public storefront data.
type Catalog struct {
	Products       map[string][]Product
	Categories     []Category
	PaymentMethods []PaymentMethod
	Settings       Settings
}

// Store caches what a storefront screen shows. Each Refresh call re-fetches one slice
// and replaces it wholesale; nothing is patched in place. A failed refresh keeps the
// previous value. Getters return copies.
type Store struct {
	client *Client

	mu            sync.RWMutex
	user          *User
	catalog       Catalog
	orders        []Order
	notifications Notifications
}

func NewStore(c *Client) *Store {
	return &Store{client: c}
}

func (s *Store) RefreshUser(ctx context.Context) error {
	user, err := s.client.Me(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return nil
}

func (s *Store) RefreshCatalog(ctx context.Context) error {
	var (
		next Catalog
		err  error
	)
	if next.Products, err = s.client.Products(ctx); err != nil {
		return err
	}
	if next.Categories, err = s.client.Categories(ctx); err != nil {
		return err
	}
	if next.PaymentMethods, err = s.client.PaymentMethods(ctx); err != nil {
		return err
	}
	if next.Settings, err = s.client.Settings(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.catalog = next
	s.mu.Unlock()
	return nil
}

func (s *Store) RefreshOrders(ctx context.Context) error {
	orders, err := s.client.MyOrders(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.orders = orders
	s.mu.Unlock()
	return nil
}

// RefreshNotifications re-fetches the notification list, marking everything seen first
// when markSeen is set.
func (s *Store) RefreshNotifications(ctx context.Context, markSeen bool) error {
	list, err := s.client.Notifications(ctx, markSeen)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.notifications = *list
	s.mu.Unlock()
	return nil
}

// Load refreshes everything. The catalog is public; the rest needs a session.
func (s *Store) Load(ctx context.Context) error {
	if err := s.RefreshCatalog(ctx); err != nil {
		return err
	}
	if s.client.Token() == "" {
		return nil
	}
	if err := s.RefreshUser(ctx); err != nil {
		return err
	}
	if err := s.RefreshOrders(ctx); err != nil {
		return err
	}
	return s.RefreshNotifications(ctx, false)
}

// Reset drops the session-bound state, as on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	s.user = nil
	s.orders = nil
	s.notifications = Notifications{}
	s.mu.Unlock()
}

func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) Catalog() Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make(map[string][]Product, len(s.catalog.Products))
	for name, list := range s.catalog.Products {
		products[name] = slices.Clone(list)
	}
	return Catalog{
		Products:       products,
		Categories:     slices.Clone(s.catalog.Categories),
		PaymentMethods: slices.Clone(s.catalog.PaymentMethods),
		Settings:       maps.Clone(s.catalog.Settings),
	}
}

func (s *Store) Orders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.orders)
}

func (s *Store) Notifications() Notifications {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Notifications{
		Notifications: slices.Clone(s.notifications.Notifications),
		UnreadCount:   s.notifications.UnreadCount,
	}
}
