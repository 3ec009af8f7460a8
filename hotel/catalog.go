package hotel

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/akhilcoder7733/hotelgram/apperr"
	"github.com/akhilcoder7733/hotelgram/task"
)

//go:embed data/hotels.json
var dataset []byte

// Catalog holds the hotel records. It is empty until Load completes and
// read-only afterwards.
type Catalog struct {
	db     *gorm.DB
	clock  task.Clock
	delay  time.Duration
	source []byte
	logger *logrus.Logger
	guard  *task.Guard

	mu     sync.RWMutex
	hotels []Hotel
	byID   map[string]int
	loaded bool
}

type Option func(*Catalog)

// WithSource replaces the embedded dataset.
func WithSource(data []byte) Option {
	return func(c *Catalog) { c.source = data }
}

func NewCatalog(db *gorm.DB, clock task.Clock, delay time.Duration, logger *logrus.Logger, opts ...Option) *Catalog {
	c := &Catalog{
		db:     db,
		clock:  clock,
		delay:  delay,
		source: dataset,
		logger: logger,
		guard:  task.NewGuard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load decodes the dataset after the simulated latency and mirrors it into
// the database. Concurrent calls while a load is pending return immediately.
func (c *Catalog) Load(ctx context.Context) error {
	release, ok := c.guard.TryAcquire("load")
	if !ok {
		return nil
	}
	defer release()

	if c.Loaded() {
		return nil
	}

	hotels, err := task.After(ctx, c.clock, c.delay, func() ([]Hotel, error) {
		return decode(c.source)
	})
	if err != nil {
		return err
	}

	if c.db != nil {
		if result := c.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&hotels); result.Error != nil {
			return fmt.Errorf("mirror catalog: %w", result.Error)
		}
	}

	byID := make(map[string]int, len(hotels))
	for i, h := range hotels {
		byID[h.ID] = i
	}

	c.mu.Lock()
	c.hotels = hotels
	c.byID = byID
	c.loaded = true
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{"path": "hotel/catalog", "hotels": len(hotels)}).Info("catalog loaded")
	return nil
}

func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// All returns a copy of the catalog in dataset order.
func (c *Catalog) All() ([]Hotel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.loaded {
		return nil, apperr.ErrCatalogLoading()
	}
	return append([]Hotel(nil), c.hotels...), nil
}

func (c *Catalog) ByID(id string) (Hotel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.loaded {
		return Hotel{}, apperr.ErrCatalogLoading()
	}
	i, ok := c.byID[id]
	if !ok {
		return Hotel{}, &apperr.NotFoundError{Kind: "hotel", ID: id}
	}
	return c.hotels[i], nil
}

func (c *Catalog) Search(f Filter) ([]Hotel, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	hotels, err := c.All()
	if err != nil {
		return nil, err
	}
	return Apply(hotels, f), nil
}

// Stocked returns the wildcard followed by every category that has at least
// one hotel in the mirrored table, in display order.
func (c *Catalog) Stocked(ctx context.Context) ([]Category, error) {
	if !c.Loaded() {
		return nil, apperr.ErrCatalogLoading()
	}

	var present []Category
	if c.db == nil {
		hotels, _ := c.All()
		for _, h := range hotels {
			present = append(present, h.Category)
		}
	} else if result := c.db.WithContext(ctx).Model(&Hotel{}).Distinct("category").Pluck("category", &present); result.Error != nil {
		return nil, result.Error
	}

	has := make(map[Category]bool, len(present))
	for _, p := range present {
		has[p] = true
	}

	out := []Category{All}
	for _, cat := range Categories()[1:] {
		if has[cat] {
			out = append(out, cat)
		}
	}
	return out, nil
}

func decode(data []byte) ([]Hotel, error) {
	var hotels []Hotel
	if err := json.Unmarshal(data, &hotels); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(hotels))
	for _, h := range hotels {
		switch {
		case h.ID == "":
			return nil, fmt.Errorf("catalog record %q has no id", h.Name)
		case seen[h.ID]:
			return nil, fmt.Errorf("duplicate catalog id %q", h.ID)
		case !h.Category.Valid():
			return nil, fmt.Errorf("catalog record %q: unknown category %q", h.ID, h.Category)
		case h.PricePerNight <= 0:
			return nil, fmt.Errorf("catalog record %q: price must be positive", h.ID)
		case h.Rating < 0 || h.Rating > 5 || math.Mod(h.Rating*2, 1) != 0:
			return nil, fmt.Errorf("catalog record %q: rating %v is not a half point between 0 and 5", h.ID, h.Rating)
		}
		seen[h.ID] = true
	}
	return hotels, nil
}
