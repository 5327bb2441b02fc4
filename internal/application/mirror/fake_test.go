package mirror

import (
	"context"
	"sync"

	"github.com/xiebiao/compactstock/internal/domain/stock"
)

type levelKey struct {
	product, variant int64
}

type variantRow struct {
	id        int64
	attribute int64
}

// fakeShop 内存版商城数据库，事务提交前的写入对外不可见
type fakeShop struct {
	mu sync.Mutex

	history    map[int64][]stock.StatusID
	lines      map[int64][]stock.LineItem
	categories map[int64]bool // 属于目标分类的商品
	variants   map[int64][]variantRow
	levels     map[levelKey]int

	queries   int
	commits   int
	rollbacks int

	historyErr  error
	linesErr    error
	catalogErr  error
	siblingErr  map[int64]error // 按购买的组合ID注入错误
	readErr     map[int64]error // 按对侧组合ID注入错误
	adjustErr   map[int64]error // 按对侧组合ID注入错误
	adjustPanic bool
}

func newFakeShop() *fakeShop {
	return &fakeShop{
		history:    map[int64][]stock.StatusID{},
		lines:      map[int64][]stock.LineItem{},
		categories: map[int64]bool{},
		variants:   map[int64][]variantRow{},
		levels:     map[levelKey]int{},
		siblingErr: map[int64]error{},
		readErr:    map[int64]error{},
		adjustErr:  map[int64]error{},
	}
}

// addBoxedProduct 目标分类商品，两个组合分别带"带盒/不带盒"属性
func (s *fakeShop) addBoxedProduct(product, withBox, withoutBox int64, qtyWith, qtyWithout int) {
	s.categories[product] = true
	s.variants[product] = []variantRow{
		{id: withBox, attribute: stock.AttributeWithBox},
		{id: withoutBox, attribute: stock.AttributeWithoutBox},
	}
	s.levels[levelKey{product, withBox}] = qtyWith
	s.levels[levelKey{product, withoutBox}] = qtyWithout
}

func (s *fakeShop) level(product, variant int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[levelKey{product, variant}]
}

func (s *fakeShop) CountByStatuses(ctx context.Context, orderID int64, statuses []stock.StatusID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	if s.historyErr != nil {
		return 0, s.historyErr
	}
	var n int64
	for _, st := range s.history[orderID] {
		for _, want := range statuses {
			if st == want {
				n++
			}
		}
	}
	return n, nil
}

func (s *fakeShop) ListLineItems(ctx context.Context, orderID int64) ([]stock.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	if s.linesErr != nil {
		return nil, s.linesErr
	}
	return append([]stock.LineItem(nil), s.lines[orderID]...), nil
}

func (s *fakeShop) FilterInCategory(ctx context.Context, productIDs []int64, categoryID int64) (map[int64]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	if s.catalogErr != nil {
		return nil, s.catalogErr
	}
	out := map[int64]bool{}
	if categoryID != stock.TargetCategoryID {
		return out, nil
	}
	for _, id := range productIDs {
		if s.categories[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (s *fakeShop) Transaction(ctx context.Context, fn func(ctx context.Context, tx stock.Tx) error) (err error) {
	s.mu.Lock()
	working := make(map[levelKey]int, len(s.levels))
	for k, v := range s.levels {
		working[k] = v
	}
	s.mu.Unlock()

	tx := &fakeTx{shop: s, levels: working}

	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.rollbacks++
			s.mu.Unlock()
			panic(r)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		s.mu.Lock()
		s.rollbacks++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.levels = working
	s.commits++
	s.mu.Unlock()
	return nil
}

// fakeTx 事务内视图
type fakeTx struct {
	shop   *fakeShop
	levels map[levelKey]int
}

func (t *fakeTx) Variants() stock.VariantRepository { return t }
func (t *fakeTx) Levels() stock.LevelRepository     { return t }

func (t *fakeTx) FindSibling(ctx context.Context, productID, variantID int64, attributeIDs []int64) (int64, bool, error) {
	t.shop.mu.Lock()
	defer t.shop.mu.Unlock()
	t.shop.queries++
	if err := t.shop.siblingErr[variantID]; err != nil {
		return 0, false, err
	}
	for _, v := range t.shop.variants[productID] {
		if v.id == variantID {
			continue
		}
		for _, a := range attributeIDs {
			if v.attribute == a {
				return v.id, true, nil
			}
		}
	}
	return 0, false, nil
}

func (t *fakeTx) CurrentQuantity(ctx context.Context, productID, variantID int64) (int, bool, error) {
	t.shop.mu.Lock()
	defer t.shop.mu.Unlock()
	t.shop.queries++
	if err := t.shop.readErr[variantID]; err != nil {
		return 0, false, err
	}
	q, ok := t.levels[levelKey{productID, variantID}]
	return q, ok, nil
}

func (t *fakeTx) Adjust(ctx context.Context, productID, variantID int64, delta int) (int64, error) {
	t.shop.mu.Lock()
	defer t.shop.mu.Unlock()
	t.shop.queries++
	if t.shop.adjustPanic {
		panic("driver: bad connection")
	}
	if err := t.shop.adjustErr[variantID]; err != nil {
		return 0, err
	}
	k := levelKey{productID, variantID}
	if _, ok := t.levels[k]; !ok {
		return 0, nil
	}
	t.levels[k] += delta
	return 1, nil
}
