package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/disscount/disscount/internal/cijene"
	"github.com/disscount/disscount/internal/metrics"
	"github.com/disscount/disscount/internal/models"
	"github.com/disscount/disscount/internal/pricing"
	"github.com/disscount/disscount/internal/textsearch"
)

var (
	ErrListNotFound = errors.New("shopping list not found")
	ErrItemNotFound = errors.New("shopping list item not found")
	ErrInvalidItem  = errors.New("invalid shopping list item")
)

// ShoppingListService stores shopping lists and prices them against the
// current upstream data.
type ShoppingListService struct {
	db          *gorm.DB
	products    *ProductService
	concurrency int
}

// NewShoppingListService creates a new shopping list service
func NewShoppingListService(db *gorm.DB, products *ProductService, concurrency int) *ShoppingListService {
	if concurrency <= 0 {
		concurrency = defaultHistoryConcurrency
	}
	return &ShoppingListService{db: db, products: products, concurrency: concurrency}
}

var listFields = []textsearch.Field[models.ShoppingList]{
	textsearch.StringField(func(l models.ShoppingList) string { return l.Name }),
}

// List returns all lists with their items, newest first, optionally
// narrowed by a name filter.
func (s *ShoppingListService) List(filter string) ([]models.ShoppingList, error) {
	var lists []models.ShoppingList
	if err := s.db.Preload("Items").Order("updated_at DESC, id DESC").Find(&lists).Error; err != nil {
		return nil, err
	}
	metrics.ShoppingListsTotal.Set(float64(len(lists)))
	return textsearch.FilterByFields(lists, filter, listFields...), nil
}

// Count returns the number of stored lists and resets the list gauge to it.
func (s *ShoppingListService) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&models.ShoppingList{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count shopping lists: %w", err)
	}
	metrics.ShoppingListsTotal.Set(float64(n))
	return n, nil
}

// Get returns one list with its items.
func (s *ShoppingListService) Get(id uint) (*models.ShoppingList, error) {
	var list models.ShoppingList
	err := s.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("added_at ASC, id ASC")
	}).First(&list, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrListNotFound
	}
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// Create stores a new empty list.
func (s *ShoppingListService) Create(name string) (*models.ShoppingList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	list := models.ShoppingList{Name: name, Items: []models.ShoppingListItem{}}
	if err := s.db.Create(&list).Error; err != nil {
		return nil, err
	}
	metrics.ShoppingListsTotal.Inc()
	return &list, nil
}

// Update renames a list.
func (s *ShoppingListService) Update(id uint, req models.UpdateShoppingListRequest) (*models.ShoppingList, error) {
	list, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidItem)
		}
		list.Name = name
		if err := s.db.Model(list).Update("name", name).Error; err != nil {
			return nil, err
		}
	}
	return list, nil
}

// Delete removes a list and, by cascade, its items and value snapshots.
func (s *ShoppingListService) Delete(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shopping_list_id = ?", id).Delete(&models.ShoppingListValueSnapshot{}).Error; err != nil {
			return err
		}
		if err := tx.Where("shopping_list_id = ?", id).Delete(&models.ShoppingListItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.ShoppingList{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrListNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	metrics.ShoppingListsTotal.Dec()
	return nil
}

// AddItem adds a product to a list. Adding an EAN that is already on the list
// merges the quantities instead of creating a second row.
func (s *ShoppingListService) AddItem(listID uint, req models.AddShoppingListItemRequest) (*models.ShoppingListItemResponse, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 || quantity > models.MaxItemQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d", ErrInvalidItem, models.MaxItemQuantity)
	}
	if _, err := s.Get(listID); err != nil {
		return nil, err
	}

	var resp models.ShoppingListItemResponse
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.ShoppingListItem
		err := tx.Where("shopping_list_id = ? AND ean = ?", listID, req.EAN).First(&existing).Error
		if err == nil {
			existing.Quantity += quantity
			if existing.Quantity > models.MaxItemQuantity {
				existing.Quantity = models.MaxItemQuantity
			}
			if req.Name != "" {
				existing.Name = req.Name
			}
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			resp = models.ShoppingListItemResponse{
				Item:    existing,
				Merged:  true,
				Message: fmt.Sprintf("Quantity updated to %d", existing.Quantity),
			}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		item := models.ShoppingListItem{
			ShoppingListID: listID,
			EAN:            req.EAN,
			Name:           req.Name,
			Quantity:       quantity,
			Checked:        req.Checked,
			AddedAt:        time.Now(),
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		resp = models.ShoppingListItemResponse{Item: item}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.touchList(listID)
	return &resp, nil
}

// UpdateItem changes an item's name, quantity or checked state.
func (s *ShoppingListService) UpdateItem(listID, itemID uint, req models.UpdateShoppingListItemRequest) (*models.ShoppingListItem, error) {
	item, err := s.getItem(listID, itemID)
	if err != nil {
		return nil, err
	}

	if req.Quantity != nil {
		if *req.Quantity < 1 || *req.Quantity > models.MaxItemQuantity {
			return nil, fmt.Errorf("%w: quantity must be between 1 and %d", ErrInvalidItem, models.MaxItemQuantity)
		}
		item.Quantity = *req.Quantity
	}
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Checked != nil {
		item.Checked = *req.Checked
	}
	if err := s.db.Save(item).Error; err != nil {
		return nil, err
	}
	s.touchList(listID)
	return item, nil
}

// DeleteItem removes an item from a list.
func (s *ShoppingListService) DeleteItem(listID, itemID uint) error {
	item, err := s.getItem(listID, itemID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(item).Error; err != nil {
		return err
	}
	s.touchList(listID)
	return nil
}

func (s *ShoppingListService) getItem(listID, itemID uint) (*models.ShoppingListItem, error) {
	var item models.ShoppingListItem
	err := s.db.Where("id = ? AND shopping_list_id = ?", itemID, listID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *ShoppingListService) touchList(listID uint) {
	s.db.Model(&models.ShoppingList{}).Where("id = ?", listID).Update("updated_at", time.Now())
}

// ItemSummary is one list item with its current prices.
type ItemSummary struct {
	models.ShoppingListItem
	Available bool          `json:"available"`
	Prices    *pricing.View `json:"prices,omitempty"`
	// ChainPrices maps chain code to the average price of one unit.
	ChainPrices map[string]float64 `json:"chain_prices,omitempty"`
}

// ChainSummary is the cost of a list at one chain.
type ChainSummary struct {
	Chain     string  `json:"chain"`
	Total     float64 `json:"total"`
	Available int     `json:"available"`
	Missing   int     `json:"missing"`
}

// ListSummary prices a whole list.
type ListSummary struct {
	ListID        uint           `json:"list_id"`
	Name          string         `json:"name"`
	Date          string         `json:"date,omitempty"`
	Items         []ItemSummary  `json:"items"`
	Chains        []ChainSummary `json:"chains"`
	CheapestChain *string        `json:"cheapest_chain"`
	TotalItems    int            `json:"total_items"`
	PricedItems   int            `json:"priced_items"`
}

// Summary prices every item of a list per chain. Items missing from the
// upstream data are reported as unavailable.
func (s *ShoppingListService) Summary(ctx context.Context, listID uint, params cijene.ProductParams) (*ListSummary, error) {
	list, err := s.Get(listID)
	if err != nil {
		return nil, err
	}

	products, err := s.fetchProducts(ctx, list.EANs(), params)
	if err != nil {
		return nil, err
	}
	return summarize(list, products, params.Date), nil
}

// fetchProducts looks up every EAN in parallel. Products that are not found
// are absent from the result.
func (s *ShoppingListService) fetchProducts(ctx context.Context, eans []string, params cijene.ProductParams) (map[string]*models.Product, error) {
	found := make([]*models.Product, len(eans))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, ean := range eans {
		i, ean := i, ean
		g.Go(func() error {
			p, err := s.products.Product(ctx, ean, params)
			if errors.Is(err, cijene.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to price %s: %w", ean, err)
			}
			found[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byEAN := make(map[string]*models.Product, len(eans))
	for i, ean := range eans {
		if found[i] != nil {
			byEAN[ean] = found[i]
		}
	}
	return byEAN, nil
}

func summarize(list *models.ShoppingList, products map[string]*models.Product, date string) *ListSummary {
	summary := &ListSummary{
		ListID:     list.ID,
		Name:       list.Name,
		Date:       date,
		Items:      make([]ItemSummary, 0, len(list.Items)),
		Chains:     []ChainSummary{},
		TotalItems: len(list.Items),
	}

	chains := make(map[string]*ChainSummary)
	var chainOrder []string
	for _, item := range list.Items {
		is := ItemSummary{ShoppingListItem: item}
		if p, ok := products[item.EAN]; ok {
			view := pricing.Compute(p)
			is.Prices = &view
			is.ChainPrices = make(map[string]float64)
			for _, c := range p.Chains {
				avg, ok := models.ParsePrice(c.AvgPrice).Value()
				if !ok {
					continue
				}
				is.ChainPrices[c.Chain] = avg
				if _, seen := chains[c.Chain]; !seen {
					chains[c.Chain] = &ChainSummary{Chain: c.Chain}
					chainOrder = append(chainOrder, c.Chain)
				}
			}
			is.Available = len(is.ChainPrices) > 0
		}
		if is.Available {
			summary.PricedItems++
		}
		summary.Items = append(summary.Items, is)
	}

	for _, is := range summary.Items {
		for _, code := range chainOrder {
			cs := chains[code]
			price, ok := is.ChainPrices[code]
			if !ok {
				cs.Missing++
				continue
			}
			cs.Available++
			cs.Total += price * float64(is.Quantity)
		}
	}
	for _, code := range chainOrder {
		cs := chains[code]
		cs.Total = pricing.Round2(cs.Total)
		summary.Chains = append(summary.Chains, *cs)
	}

	SortChainSummaries(summary.Chains)
	SortItemSummaries(summary.Items)
	if len(summary.Chains) > 0 {
		cheapest := summary.Chains[0].Chain
		summary.CheapestChain = &cheapest
	}
	return summary
}

// SortChainSummaries orders chains by how many items they carry, then by
// total, so a chain missing items never ranks as cheapest.
func SortChainSummaries(chains []ChainSummary) {
	sort.SliceStable(chains, func(i, j int) bool {
		if chains[i].Available != chains[j].Available {
			return chains[i].Available > chains[j].Available
		}
		return chains[i].Total < chains[j].Total
	})
}

// SortItemSummaries puts available items first, then sorts by name.
func SortItemSummaries(items []ItemSummary) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Available != items[j].Available {
			return items[i].Available
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
}

// ListPriceChange compares the first and last stored totals of a list.
type ListPriceChange struct {
	ListID uint                              `json:"list_id"`
	Period pricing.Period                    `json:"period"`
	First  *models.ShoppingListValueSnapshot `json:"first"`
	Last   *models.ShoppingListValueSnapshot `json:"last"`
	Change *pricing.Change                   `json:"change"`
}

// PriceChange reports how the stored value of a list moved over the period.
// Change is nil with fewer than two snapshots.
func (s *ShoppingListService) PriceChange(listID uint, period pricing.Period, now time.Time) (*ListPriceChange, error) {
	if _, err := s.Get(listID); err != nil {
		return nil, err
	}

	query := s.db.Where("shopping_list_id = ?", listID).Order("snapshot_date ASC")
	if dates := pricing.HistoryDates(now, period.Days()); len(dates) > 0 {
		query = query.Where("snapshot_date >= ?", dates[0])
	}
	var snapshots []models.ShoppingListValueSnapshot
	if err := query.Find(&snapshots).Error; err != nil {
		return nil, err
	}

	resp := &ListPriceChange{ListID: listID, Period: period}
	if len(snapshots) == 0 {
		return resp, nil
	}
	first, last := snapshots[0], snapshots[len(snapshots)-1]
	resp.First, resp.Last = &first, &last
	if len(snapshots) > 1 {
		change := pricing.PriceChange(last.Total, first.Total)
		resp.Change = &change
	}
	return resp, nil
}
