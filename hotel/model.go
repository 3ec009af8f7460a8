package hotel

import "time"

type Category string

const (
	All      Category = "All"
	Luxury   Category = "Luxury"
	Resort   Category = "Resort"
	Business Category = "Business"
	Budget   Category = "Budget"
)

// Categories lists the filter chips in display order, wildcard first.
func Categories() []Category {
	return []Category{All, Luxury, Resort, Business, Budget}
}

func (c Category) Valid() bool {
	switch c {
	case Luxury, Resort, Business, Budget:
		return true
	}
	return false
}

// Hotel is one catalog record. Records are immutable once loaded.
type Hotel struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name"`
	City          string    `json:"city"`
	Category      Category  `json:"category" gorm:"index"`
	PricePerNight float64   `json:"pricePerNight"`
	Rating        float64   `json:"rating"`
	Images        []string  `json:"images" gorm:"serializer:json"`
	Amenities     []string  `json:"amenities" gorm:"serializer:json"`
	Availability  bool      `json:"availability"`
	Description   string    `json:"description"`
	Featured      bool      `json:"featured"`
	Reviews       int       `json:"reviews"`
	UpdatedAt     time.Time `json:"-"`
}
