package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/shop-api/internal/model"
	"github.com/iliyamo/shop-api/internal/queue"
	"github.com/iliyamo/shop-api/internal/repository"
)

// memDB is an in-memory stand-in for the MySQL schema.  The per-table
// views below implement the store interfaces on top of it.
type memDB struct {
	mu       sync.Mutex
	nextID   uint64
	users    map[uint64]*model.User
	tokens   map[string]tokenRow
	products map[uint64]*model.Product
	cart     map[[2]uint64]uint32 // (user, product) -> qty
	cartSeq  map[[2]uint64]uint64
	orders   map[uint64]*model.Order
}

type tokenRow struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[uint64]*model.User{},
		tokens:   map[string]tokenRow{},
		products: map[uint64]*model.Product{},
		cart:     map[[2]uint64]uint32{},
		cartSeq:  map[[2]uint64]uint64{},
		orders:   map[uint64]*model.Order{},
	}
}

func (db *memDB) id() uint64 { db.nextID++; return db.nextID }

type memUsers struct{ *memDB }

func (m memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Username == u.Username {
			return repository.ErrUsernameExists
		}
	}
	u.ID = m.id()
	c := *u
	m.users[u.ID] = &c
	return nil
}

func (m memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m memUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

type memTokens struct{ *memDB }

func (m memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[hash] = tokenRow{userID: userID, exp: exp}
	return nil
}

func (m memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[hash]
	if !ok || t.revoked || time.Now().After(t.exp) {
		return 0, repository.ErrNotFound
	}
	return t.userID, nil
}

func (m memTokens) RevokeByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[hash]
	if !ok || t.revoked {
		return repository.ErrNotFound
	}
	t.revoked = true
	m.tokens[hash] = t
	return nil
}

type memProducts struct{ *memDB }

func (m memProducts) List(context.Context) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Product{}
	for _, p := range m.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memProducts) Search(ctx context.Context, q repository.ProductSearchQuery) ([]model.Product, int64, error) {
	all, _ := m.List(ctx)
	text := strings.ToLower(q.Text)
	matched := []model.Product{}
	for _, p := range all {
		if q.InStock && p.Quantity == 0 {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), text) {
			continue
		}
		matched = append(matched, p)
	}
	start := min((q.Page-1)*q.PageSize, len(matched))
	end := min(start+q.PageSize, len(matched))
	return matched[start:end], int64(len(matched)), nil
}

func (m memProducts) GetByID(_ context.Context, id uint64) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m memProducts) Create(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	c := *p
	m.products[p.ID] = &c
	return nil
}

func (m memProducts) Update(_ context.Context, id uint64, patch model.ProductPatch) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	patch.Apply(p)
	c := *p
	return &c, nil
}

func (m memProducts) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.products, id)
	for k := range m.cart {
		if k[1] == id {
			delete(m.cart, k)
		}
	}
	for _, o := range m.orders {
		if o.ProductID != nil && *o.ProductID == id {
			o.ProductID = nil
		}
	}
	return nil
}

type memCarts struct{ *memDB }

func (m memCarts) Add(_ context.Context, userID, productID uint64, qty uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[productID]; !ok {
		return repository.ErrNotFound
	}
	k := [2]uint64{userID, productID}
	if uint64(m.cart[k])+uint64(qty) > math.MaxUint32 {
		return repository.ErrQuantityTooLarge
	}
	if _, ok := m.cart[k]; !ok {
		m.cartSeq[k] = m.id()
	}
	m.cart[k] += qty
	return nil
}

func (m memCarts) Lines(_ context.Context, userID uint64) ([]model.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.linesLocked(userID), nil
}

func (db *memDB) linesLocked(userID uint64) []model.CartLine {
	keys := make([][2]uint64, 0)
	for k := range db.cart {
		if k[0] == userID {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return db.cartSeq[keys[i]] < db.cartSeq[keys[j]] })
	lines := []model.CartLine{}
	for _, k := range keys {
		p := db.products[k[1]]
		qty := db.cart[k]
		lines = append(lines, model.CartLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			Description: p.Description,
			Price:       p.Price,
			Image:       p.Image,
			Quantity:    qty,
			Total:       model.LineTotal(p.Price, qty),
		})
	}
	return lines
}

func (m memCarts) Remove(_ context.Context, userID, productID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]uint64{userID, productID}
	if _, ok := m.cart[k]; !ok {
		return repository.ErrNotFound
	}
	delete(m.cart, k)
	return nil
}

func (m memCarts) SetQuantity(_ context.Context, userID, productID uint64, qty uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]uint64{userID, productID}
	if _, ok := m.cart[k]; !ok {
		return repository.ErrNotFound
	}
	m.cart[k] = qty
	return nil
}

type memOrders struct{ *memDB }

func (m memOrders) PlaceFromCart(_ context.Context, userID uint64, now time.Time) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := m.linesLocked(userID)
	if len(lines) == 0 {
		return nil, repository.ErrCartEmpty
	}
	var out []model.Order
	for _, l := range lines {
		pid := l.ProductID
		o := model.Order{
			ID:          m.id(),
			UserID:      userID,
			Username:    m.users[userID].Username,
			ProductID:   &pid,
			ProductName: l.ProductName,
			UnitPrice:   l.Price,
			Quantity:    l.Quantity,
			Status:      model.StatusPending,
			OrderedAt:   now,
		}
		c := o
		m.orders[o.ID] = &c
		out = append(out, o)
		delete(m.cart, [2]uint64{userID, l.ProductID})
	}
	return out, nil
}

func (m memOrders) Create(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[*o.ProductID]
	if !ok {
		return repository.ErrNotFound
	}
	o.ID = m.id()
	o.ProductName = p.Name
	o.UnitPrice = p.Price
	o.Username = m.users[o.UserID].Username
	c := *o
	m.orders[o.ID] = &c
	return nil
}

func (m memOrders) ListByUser(_ context.Context, userID uint64) ([]model.Order, error) {
	return m.filter(func(o *model.Order) bool { return o.UserID == userID }), nil
}

func (m memOrders) ListAll(context.Context) ([]model.Order, error) {
	return m.filter(func(*model.Order) bool { return true }), nil
}

func (m memOrders) filter(keep func(*model.Order) bool) []model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Order{}
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m memOrders) GetByID(_ context.Context, id uint64) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *o
	return &c, nil
}

func (m memOrders) UpdateStatus(_ context.Context, id uint64, from, to model.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if o.Status != from {
		return repository.ErrConflict
	}
	o.Status = to
	return nil
}

// mockPublisher records published events.
type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) OrderPlaced(ctx context.Context, ev queue.OrderPlacedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockPublisher) OrderStatusChanged(ctx context.Context, ev queue.OrderStatusChangedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

// countingCache counts invalidations.
type countingCache struct{ n int }

func (c *countingCache) Invalidate(context.Context) error { c.n++; return nil }

var (
	admin    = Principal{UserID: 1, Role: model.RoleAdmin}
	customer = Principal{UserID: 2, Role: model.RoleCustomer}
	anon     = Principal{}
)

// seedUsers registers the admin (id 1) and customer (id 2) principals.
func seedUsers(db *memDB) {
	db.users[1] = &model.User{ID: 1, Username: "root", Role: model.RoleAdmin}
	db.users[2] = &model.User{ID: 2, Username: "alice", Role: model.RoleCustomer}
	db.nextID = 2
}

func seedProduct(db *memDB, name, price string, qty uint32) uint64 {
	id := db.id()
	db.products[id] = &model.Product{ID: id, Name: name, Description: name + " description", Price: model.MustMoney(price), Quantity: qty}
	return id
}
