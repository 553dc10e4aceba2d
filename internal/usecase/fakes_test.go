package usecase_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"florist/internal/domain/model"
	repo "florist/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// in-memory store（TxReposをまとめて満たす）
// =====================

type memStore struct {
	mu sync.Mutex

	products    map[int64]model.Product
	cartItems   map[int64]model.CartItem
	coupons     map[int64]model.CartCoupon
	orders      map[int64]model.Order
	orderItems  map[int64][]model.OrderItem
	adjustments []model.InventoryAdjustment
	auditLogs   []model.AuditLog
	sessions    map[string]model.CheckoutSession

	nextID int64

	// 注文作成を失敗させる
	failOrderCreate error
}

func newMemStore() *memStore {
	return &memStore{
		products:   map[int64]model.Product{},
		cartItems:  map[int64]model.CartItem{},
		coupons:    map[int64]model.CartCoupon{},
		orders:     map[int64]model.Order{},
		orderItems: map[int64][]model.OrderItem{},
		sessions:   map[string]model.CheckoutSession{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id()
	}
	s.products[p.ID] = p
	return p
}

func (s *memStore) stock(productID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].Stock
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) cartLen(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.cartItems {
		if it.UserID == userID {
			n++
		}
	}
	return n
}

// TxRepos
func (s *memStore) Orders() repo.OrderRepository { return (*memOrders)(s) }
func (s *memStore) OrderItems() repo.OrderItemRepository { return (*memOrderItems)(s) }
func (s *memStore) CartItems() repo.CartItemRepository { return (*memCartItems)(s) }
func (s *memStore) CartCoupons() repo.CartCouponRepository { return (*memCoupons)(s) }
func (s *memStore) Inventory() repo.InventoryRepository { return (*memInventory)(s) }
func (s *memStore) Products() repo.ProductRepository { return (*memProducts)(s) }
func (s *memStore) AuditLogs() repo.AuditLogRepository { return (*memAudit)(s) }
func (s *memStore) Sessions() repo.CheckoutSessionRepository {
	return (*memSessions)(s)
}

// ロールバックは無し（テストでは失敗時の状態を見ない）
type memTx struct{ s *memStore }

func (t memTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(t.s)
}

// ---- products ----

type memProducts memStore

func (m *memProducts) List(ctx context.Context, q repo.ProductQuery) ([]model.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Product
	for _, p := range m.products {
		if !p.IsActive && !q.IncludeInactive {
			continue
		}
		if q.InStockOnly && p.Stock <= 0 {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (m *memProducts) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]model.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	return (*memStore)(m).addProduct(p), nil
}

func (m *memProducts) Update(ctx context.Context, p model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.products[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock = cur.Stock
	m.products[p.ID] = p
	return nil
}

func (m *memProducts) SoftDelete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

// ---- cart ----

type memCartItems memStore

func (m *memCartItems) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.CartItem{}
	for _, it := range m.cartItems {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memCartItems) UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, it := range m.cartItems {
		if it.UserID == userID && it.ProductID == productID {
			it.Quantity += addQty
			m.cartItems[id] = it
			return nil
		}
	}
	id := (*memStore)(m).id()
	m.cartItems[id] = model.CartItem{ID: id, UserID: userID, ProductID: productID, Quantity: addQty}
	return nil
}

func (m *memCartItems) UpdateQuantity(ctx context.Context, userID int64, cartItemID int64, qty int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.cartItems[cartItemID]
	if !ok || it.UserID != userID {
		return repo.ErrNotFound
	}
	it.Quantity = qty
	m.cartItems[cartItemID] = it
	return nil
}

func (m *memCartItems) DeleteByID(ctx context.Context, userID int64, cartItemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.cartItems[cartItemID]; ok && it.UserID == userID {
		delete(m.cartItems, cartItemID)
	}
	return nil
}

func (m *memCartItems) FindByID(ctx context.Context, userID int64, cartItemID int64) (model.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.cartItems[cartItemID]
	if !ok || it.UserID != userID {
		return model.CartItem{}, repo.ErrNotFound
	}
	return it, nil
}

func (m *memCartItems) DeleteAllByUserID(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, it := range m.cartItems {
		if it.UserID == userID {
			delete(m.cartItems, id)
		}
	}
	return nil
}

type memCoupons memStore

func (m *memCoupons) Find(ctx context.Context, userID int64) (model.CartCoupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[userID]
	if !ok {
		return model.CartCoupon{}, repo.ErrNotFound
	}
	return c, nil
}

func (m *memCoupons) Upsert(ctx context.Context, c model.CartCoupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coupons[c.UserID] = c
	return nil
}

func (m *memCoupons) Delete(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.coupons, userID)
	return nil
}

// ---- orders ----

type memOrders memStore

func (m *memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOrderCreate != nil {
		return 0, m.failOrderCreate
	}
	order.ID = (*memStore)(m).id()
	m.orders[order.ID] = order
	return order.ID, nil
}

func (m *memOrders) TransitionStatus(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) error {
	if err := model.ValidateTransition(from, to); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	if o.Status != from {
		return repo.ErrConflict
	}
	o.Status = to
	m.orders[orderID] = o
	return nil
}

func (m *memOrders) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			return o, true, nil
		}
	}
	return model.Order{}, false, nil
}

func (m *memOrders) List(ctx context.Context, q repo.OrderQuery) ([]model.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Order
	for _, o := range m.orders {
		if q.UserID != nil && o.UserID != *q.UserID {
			continue
		}
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		if q.PaymentMethod != "" && o.Payment.Method != q.PaymentMethod {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(o.Shipping.Name+" "+o.Shipping.Email), strings.ToLower(q.Search)) {
			continue
		}
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, q.Page, q.Limit), int64(len(all)), nil
}

func ptr[T any](v T) *T { return &v }

func paginate(all []model.Order, page, limit int) []model.Order {
	start := (page - 1) * limit
	if start >= len(all) {
		return []model.Order{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

type memOrderItems memStore

func (m *memOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range items {
		items[i].ID = (*memStore)(m).id()
		items[i].OrderID = orderID
	}
	m.orderItems[orderID] = append(m.orderItems[orderID], items...)
	return nil
}

func (m *memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.OrderItem(nil), m.orderItems[orderID]...), nil
}

func (m *memOrderItems) ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64][]model.OrderItem, len(orderIDs))
	for _, id := range orderIDs {
		out[id] = append([]model.OrderItem(nil), m.orderItems[id]...)
	}
	return out, nil
}

// ---- inventory / audit ----

type memInventory memStore

func (m *memInventory) SetStock(ctx context.Context, productID int64, newStock int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return 0, repo.ErrNotFound
	}
	prev := p.Stock
	p.Stock = newStock
	m.products[productID] = p
	return prev, nil
}

func (m *memInventory) Take(ctx context.Context, productID int64, qty int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return 0, repo.ErrNotFound
	}
	taken := min(p.Stock, qty)
	p.Stock -= taken
	m.products[productID] = p
	return taken, nil
}

func (m *memInventory) Restock(ctx context.Context, productID int64, qty int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock += qty
	m.products[productID] = p
	return nil
}

func (m *memInventory) RecordAdjustment(ctx context.Context, a model.InventoryAdjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adjustments = append(m.adjustments, a)
	return nil
}

func (m *memInventory) TakenByOrder(ctx context.Context, orderID int64) (map[int64]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int64]int64{}
	for _, a := range m.adjustments {
		if a.Kind == model.AdjustmentOrder && a.OrderID != nil && *a.OrderID == orderID {
			out[a.ProductID] -= a.Delta
		}
	}
	return out, nil
}

type memAudit memStore

func (m *memAudit) Create(ctx context.Context, log model.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func (m *memAudit) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AuditLog(nil), m.auditLogs...), int64(len(m.auditLogs)), nil
}

// ---- checkout sessions ----

type memSessions memStore

func (m *memSessions) Create(ctx context.Context, s model.CheckoutSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memSessions) FindByID(ctx context.Context, id string) (model.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return model.CheckoutSession{}, repo.ErrNotFound
	}
	return s, nil
}

func (m *memSessions) CompareAndSetStatus(ctx context.Context, id string, from, to model.CheckoutStatus, fields repo.CheckoutResultFields) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false, repo.ErrNotFound
	}
	if s.Status != from {
		return false, nil
	}
	s.Status = to
	if fields.TransactionID != "" {
		s.TransactionID = fields.TransactionID
	}
	m.sessions[id] = s
	return true, nil
}

func (m *memSessions) AttachOrder(ctx context.Context, id string, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return repo.ErrNotFound
	}
	s.OrderID = &orderID
	m.sessions[id] = s
	return nil
}

func (m *memSessions) RecordFailure(ctx context.Context, id string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return repo.ErrNotFound
	}
	s.FailureReason = reason
	m.sessions[id] = s
	return nil
}

// =====================
// cart cache
// =====================

type memCartCache struct {
	mu      sync.Mutex
	entries map[int64][]model.CartItem
	sets    int
	err     error
}

func newMemCartCache() *memCartCache {
	return &memCartCache{entries: map[int64][]model.CartItem{}}
}

func (c *memCartCache) Get(ctx context.Context, userID int64) ([]model.CartItem, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	items, ok := c.entries[userID]
	return items, ok, nil
}

func (c *memCartCache) Set(ctx context.Context, userID int64, items []model.CartItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[userID] = append([]model.CartItem(nil), items...)
	return nil
}

func (c *memCartCache) Delete(ctx context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}

func (c *memCartCache) has(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[userID]
	return ok
}

// =====================
// testify mocks
// =====================

type StorageMock struct{ mock.Mock }

func (m *StorageMock) Upload(ctx context.Context, folder string, filename string, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, folder, filename, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *StorageMock) Delete(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	args := m.Called(ctx, f)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Get(1).(int64), args.Error(2)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 42
	}
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) RecordLogin(ctx context.Context, userID int64, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

func (m *UserRepoMock) BumpTokenVersion(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type ReviewRepoMock struct{ mock.Mock }

func (m *ReviewRepoMock) Create(ctx context.Context, r model.Review) (model.Review, error) {
	args := m.Called(ctx, r)
	out, _ := args.Get(0).(model.Review)
	return out, args.Error(1)
}

func (m *ReviewRepoMock) FindByID(ctx context.Context, id int64) (model.Review, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(model.Review)
	return out, args.Error(1)
}

func (m *ReviewRepoMock) ListApproved(ctx context.Context, limit int) ([]model.Review, error) {
	args := m.Called(ctx, limit)
	out, _ := args.Get(0).([]model.Review)
	return out, args.Error(1)
}

func (m *ReviewRepoMock) ListAll(ctx context.Context) ([]model.Review, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]model.Review)
	return out, args.Error(1)
}

func (m *ReviewRepoMock) Approve(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ReviewRepoMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var errBoom = errors.New("boom")
