package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/store"

	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory store used by the service tests. The mutex is
// held for the whole of RunInTx so concurrent checkouts serialize the same
// way row locks make them serialize in Postgres.
type fakeStore struct {
	mu sync.Mutex

	nextID     int64
	users      map[int64]*models.User
	products   map[int64]*models.Product
	carts      map[int64]*models.Cart
	cartItems  map[int64]*models.CartItem
	wishlist   map[int64]*models.WishlistEntry
	orders     map[int64]*models.Order
	orderItems map[int64][]models.OrderItem
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      make(map[int64]*models.User),
		products:   make(map[int64]*models.Product),
		carts:      make(map[int64]*models.Cart),
		cartItems:  make(map[int64]*models.CartItem),
		wishlist:   make(map[int64]*models.WishlistEntry),
		orders:     make(map[int64]*models.Order),
		orderItems: make(map[int64][]models.OrderItem),
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addProduct(name, price string, stock int) *models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &models.Product{
		ID:       s.id(),
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
	s.products[p.ID] = p
	return p
}

func (s *fakeStore) addVerifiedUser(email string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := &models.User{
		ID:         s.id(),
		Email:      email,
		IsVerified: true,
	}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) stockOf(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].Stock
}

// AuthStore

func (s *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = s.id()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("user")
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, id)
	return nil
}

func (s *fakeStore) MarkUserVerified(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		u.IsVerified = true
	}
	return nil
}

// CatalogStore / product reads

func (s *fakeStore) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok || !p.IsActive {
		return nil, models.NewNotFoundError("product")
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) GetActiveProducts(ctx context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Product
	for _, p := range s.products {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

// CartStore

func (s *fakeStore) GetOrCreateCartByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.carts {
		if c.UserID.Valid && c.UserID.Int64 == userID {
			cp := *c
			return &cp, nil
		}
	}
	c := &models.Cart{ID: s.id()}
	c.UserID.Int64 = userID
	c.UserID.Valid = true
	s.carts[c.ID] = c
	cp := *c
	return &cp, nil
}

func (s *fakeStore) GetOrCreateCartBySessionKey(ctx context.Context, sessionKey string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.carts {
		if c.SessionKey.Valid && c.SessionKey.String == sessionKey {
			cp := *c
			return &cp, nil
		}
	}
	c := &models.Cart{ID: s.id()}
	c.SessionKey.String = sessionKey
	c.SessionKey.Valid = true
	s.carts[c.ID] = c
	cp := *c
	return &cp, nil
}

func (s *fakeStore) GetCartByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.carts {
		if c.UserID.Valid && c.UserID.Int64 == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.CartItem
	for _, item := range s.cartItems {
		if item.CartID == cartID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) GetCartItemByProduct(ctx context.Context, cartID, productID int64) (*models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.cartItems {
		if item.CartID == cartID && item.ProductID == productID {
			cp := *item
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetCartItemInCart(ctx context.Context, cartID, itemID int64) (*models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.cartItems[itemID]
	if !ok || item.CartID != cartID {
		return nil, models.NewNotFoundError("cart item")
	}
	cp := *item
	return &cp, nil
}

func (s *fakeStore) UpsertCartItem(ctx context.Context, cartID, productID int64, quantity int) (*models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.cartItems {
		if item.CartID == cartID && item.ProductID == productID {
			item.Quantity += quantity
			cp := *item
			return &cp, nil
		}
	}
	item := &models.CartItem{
		ID:        s.id(),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	}
	s.cartItems[item.ID] = item
	cp := *item
	return &cp, nil
}

func (s *fakeStore) SetCartItemQuantity(ctx context.Context, itemID int64, quantity int) (*models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.cartItems[itemID]
	if !ok {
		return nil, models.NewNotFoundError("cart item")
	}
	item.Quantity = quantity
	cp := *item
	return &cp, nil
}

func (s *fakeStore) DeleteCartItem(ctx context.Context, cartID, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.cartItems[itemID]
	if !ok || item.CartID != cartID {
		return models.NewNotFoundError("cart item")
	}
	delete(s.cartItems, itemID)
	return nil
}

// WishlistStore

func (s *fakeStore) GetWishlistEntry(ctx context.Context, userID, productID int64) (*models.WishlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.wishlist {
		if e.UserID == userID && e.ProductID == productID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateWishlistEntry(ctx context.Context, userID, productID int64) (*models.WishlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &models.WishlistEntry{
		ID:        s.id(),
		UserID:    userID,
		ProductID: productID,
		AddedAt:   time.Now(),
	}
	s.wishlist[e.ID] = e
	cp := *e
	return &cp, nil
}

func (s *fakeStore) DeleteWishlistEntry(ctx context.Context, userID, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.wishlist {
		if e.UserID == userID && e.ProductID == productID {
			delete(s.wishlist, id)
			return nil
		}
	}
	return models.NewNotFoundError("wishlist entry")
}

func (s *fakeStore) GetWishlistByUserID(ctx context.Context, userID int64) ([]models.WishlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.WishlistEntry
	for _, e := range s.wishlist {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Order reads

func (s *fakeStore) GetOrderByID(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, models.NewNotFoundError("order")
	}
	cp := *o
	return &cp, nil
}

func (s *fakeStore) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *fakeStore) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.OrderItem(nil), s.orderItems[orderID]...), nil
}

// RunInTx runs fn against the fake and rolls back every mutation if fn fails
func (s *fakeStore) RunInTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshot()
	if err := fn(&fakeTx{s: s}); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type fakeSnapshot struct {
	products   map[int64]models.Product
	cartItems  map[int64]models.CartItem
	orders     map[int64]models.Order
	orderItems map[int64][]models.OrderItem
	nextID     int64
}

func (s *fakeStore) snapshot() fakeSnapshot {
	snap := fakeSnapshot{
		products:   make(map[int64]models.Product, len(s.products)),
		cartItems:  make(map[int64]models.CartItem, len(s.cartItems)),
		orders:     make(map[int64]models.Order, len(s.orders)),
		orderItems: make(map[int64][]models.OrderItem, len(s.orderItems)),
		nextID:     s.nextID,
	}
	for id, p := range s.products {
		snap.products[id] = *p
	}
	for id, item := range s.cartItems {
		snap.cartItems[id] = *item
	}
	for id, o := range s.orders {
		snap.orders[id] = *o
	}
	for id, items := range s.orderItems {
		snap.orderItems[id] = append([]models.OrderItem(nil), items...)
	}
	return snap
}

func (s *fakeStore) restore(snap fakeSnapshot) {
	s.nextID = snap.nextID
	s.products = make(map[int64]*models.Product, len(snap.products))
	for id, p := range snap.products {
		cp := p
		s.products[id] = &cp
	}
	s.cartItems = make(map[int64]*models.CartItem, len(snap.cartItems))
	for id, item := range snap.cartItems {
		cp := item
		s.cartItems[id] = &cp
	}
	s.orders = make(map[int64]*models.Order, len(snap.orders))
	for id, o := range snap.orders {
		cp := o
		s.orders[id] = &cp
	}
	s.orderItems = make(map[int64][]models.OrderItem, len(snap.orderItems))
	for id, items := range snap.orderItems {
		s.orderItems[id] = append([]models.OrderItem(nil), items...)
	}
}

// fakeTx mutates the store directly; RunInTx already holds the mutex.
type fakeTx struct {
	s *fakeStore
}

func (t *fakeTx) ProductForUpdate(ctx context.Context, productID int64) (*models.Product, error) {
	p, ok := t.s.products[productID]
	if !ok {
		return nil, models.NewNotFoundError("product")
	}
	cp := *p
	return &cp, nil
}

func (t *fakeTx) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	t.s.products[productID].Stock -= quantity
	return nil
}

func (t *fakeTx) CreateOrder(ctx context.Context, order *models.Order) error {
	order.ID = t.s.id()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	t.s.orders[order.ID] = &cp
	return nil
}

func (t *fakeTx) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	for _, item := range items {
		item.ID = t.s.id()
		t.s.orderItems[item.OrderID] = append(t.s.orderItems[item.OrderID], item)
	}
	return nil
}

func (t *fakeTx) UpdateOrderTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	if o, ok := t.s.orders[orderID]; ok {
		o.TotalPrice = total
	}
	return nil
}

func (t *fakeTx) ClearCart(ctx context.Context, cartID int64) error {
	for id, item := range t.s.cartItems {
		if item.CartID == cartID {
			delete(t.s.cartItems, id)
		}
	}
	return nil
}

// fakeCodeStore is an in-memory expiring code store
type fakeCodeStore struct {
	mu    sync.Mutex
	codes map[string]fakeCode
}

type fakeCode struct {
	code    string
	expires time.Time
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{codes: make(map[string]fakeCode)}
}

func (f *fakeCodeStore) SetVerificationCode(ctx context.Context, email, code string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[email] = fakeCode{code: code, expires: time.Now().Add(ttl)}
	return nil
}

func (f *fakeCodeStore) GetVerificationCode(ctx context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.codes[email]
	if !ok || time.Now().After(c.expires) {
		return "", models.ErrVerificationCodeNotFound
	}
	return c.code, nil
}

func (f *fakeCodeStore) DeleteVerificationCode(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.codes, email)
	return nil
}

// fakePublisher records published events
type fakePublisher struct {
	mu              sync.Mutex
	orderCreated    []*models.OrderCreatedEvent
	userRegistered  []*models.UserRegisteredEvent
	failNextPublish error
}

func (f *fakePublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNextPublish != nil {
		err := f.failNextPublish
		f.failNextPublish = nil
		return err
	}
	f.orderCreated = append(f.orderCreated, event)
	return nil
}

func (f *fakePublisher) PublishUserRegistered(ctx context.Context, event *models.UserRegisteredEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNextPublish != nil {
		err := f.failNextPublish
		f.failNextPublish = nil
		return err
	}
	f.userRegistered = append(f.userRegistered, event)
	return nil
}
