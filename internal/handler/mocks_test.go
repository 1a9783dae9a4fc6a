package handler

import (
    "context"

    "github.com/stretchr/testify/mock"

    "github.com/iliyamo/shop-api/internal/model"
    "github.com/iliyamo/shop-api/internal/service"
)

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Register(ctx context.Context, in service.RegisterInput) (*model.User, error) {
    args := m.Called(ctx, in)
    u, _ := args.Get(0).(*model.User)
    return u, args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, username, password string) (*model.User, service.TokenPair, error) {
    args := m.Called(ctx, username, password)
    u, _ := args.Get(0).(*model.User)
    return u, args.Get(1).(service.TokenPair), args.Error(2)
}

func (m *mockAuth) Refresh(ctx context.Context, raw string) (string, error) {
    args := m.Called(ctx, raw)
    return args.String(0), args.Error(1)
}

func (m *mockAuth) Logout(ctx context.Context, raw string) error {
    return m.Called(ctx, raw).Error(0)
}

func (m *mockAuth) WhoAmI(ctx context.Context, p service.Principal) (*model.User, error) {
    args := m.Called(ctx, p)
    u, _ := args.Get(0).(*model.User)
    return u, args.Error(1)
}

type mockCatalog struct{ mock.Mock }

func (m *mockCatalog) List(ctx context.Context) ([]model.Product, error) {
    args := m.Called(ctx)
    ps, _ := args.Get(0).([]model.Product)
    return ps, args.Error(1)
}

func (m *mockCatalog) Search(ctx context.Context, in service.SearchInput) (*service.SearchResult, error) {
    args := m.Called(ctx, in)
    res, _ := args.Get(0).(*service.SearchResult)
    return res, args.Error(1)
}

func (m *mockCatalog) Create(ctx context.Context, p service.Principal, in service.ProductInput) (*model.Product, error) {
    args := m.Called(ctx, p, in)
    prod, _ := args.Get(0).(*model.Product)
    return prod, args.Error(1)
}

func (m *mockCatalog) Update(ctx context.Context, p service.Principal, id uint64, in service.ProductInput) (*model.Product, error) {
    args := m.Called(ctx, p, id, in)
    prod, _ := args.Get(0).(*model.Product)
    return prod, args.Error(1)
}

func (m *mockCatalog) Delete(ctx context.Context, p service.Principal, id uint64) error {
    return m.Called(ctx, p, id).Error(0)
}

type mockCart struct{ mock.Mock }

func (m *mockCart) Add(ctx context.Context, p service.Principal, productID uint64, qty int64) error {
    return m.Called(ctx, p, productID, qty).Error(0)
}

func (m *mockCart) View(ctx context.Context, p service.Principal) ([]model.CartLine, error) {
    args := m.Called(ctx, p)
    lines, _ := args.Get(0).([]model.CartLine)
    return lines, args.Error(1)
}

func (m *mockCart) Remove(ctx context.Context, p service.Principal, productID uint64) error {
    return m.Called(ctx, p, productID).Error(0)
}

func (m *mockCart) SetQuantity(ctx context.Context, p service.Principal, productID uint64, qty int64) error {
    return m.Called(ctx, p, productID, qty).Error(0)
}

type mockOrders struct{ mock.Mock }

func (m *mockOrders) Place(ctx context.Context, p service.Principal) ([]model.Order, error) {
    args := m.Called(ctx, p)
    os, _ := args.Get(0).([]model.Order)
    return os, args.Error(1)
}

func (m *mockOrders) ListMine(ctx context.Context, p service.Principal) ([]model.Order, error) {
    args := m.Called(ctx, p)
    os, _ := args.Get(0).([]model.Order)
    return os, args.Error(1)
}

func (m *mockOrders) CreateDirect(ctx context.Context, p service.Principal, productID uint64, qty int64) (*model.Order, error) {
    args := m.Called(ctx, p, productID, qty)
    o, _ := args.Get(0).(*model.Order)
    return o, args.Error(1)
}

func (m *mockOrders) ListAll(ctx context.Context, p service.Principal) ([]model.Order, error) {
    args := m.Called(ctx, p)
    os, _ := args.Get(0).([]model.Order)
    return os, args.Error(1)
}

func (m *mockOrders) Get(ctx context.Context, p service.Principal, id uint64) (*model.Order, error) {
    args := m.Called(ctx, p, id)
    o, _ := args.Get(0).(*model.Order)
    return o, args.Error(1)
}

func (m *mockOrders) UpdateStatus(ctx context.Context, p service.Principal, id uint64, status string) (*model.Order, error) {
    args := m.Called(ctx, p, id, status)
    o, _ := args.Get(0).(*model.Order)
    return o, args.Error(1)
}
