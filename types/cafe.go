package types

// Cafe represents one listing in the café catalog.
// It contains display metadata, categorization tags, the menu, and an
// optional photo reference and map position.
type Cafe struct {
	// ID is the catalog identifier of the café, stored as a string.
	// Identifiers are kept contiguous: deleting a café reassigns the
	// remaining identifiers to "1".."N", so an ID is not stable across
	// deletions.
	ID string `json:"id"`

	// Name is the display name of the café.
	Name string `json:"name"`

	// Location is a free-text district label. Location filters and the
	// recommendation bonus compare it with exact, case-sensitive
	// equality.
	Location string `json:"location"`

	// Categories are free-form labels attached to the café, compared
	// case-insensitively for filtering and recommendations. Order is
	// preserved and duplicates are allowed.
	Categories []string `json:"categories"`

	// Menu is the ordered list of menu items offered by the café.
	Menu []MenuItem `json:"menu"`

	// Photo is the object key of the café's photo in upload storage,
	// or empty when no photo has been uploaded.
	Photo string `json:"photo,omitempty"`

	// Latitude and Longitude are optional map coordinates. Each is
	// independently nullable; in practice they are set together.
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// MenuItem is a single entry on a café's menu.
type MenuItem struct {
	// Name is the menu item's display name.
	Name string `json:"name"`

	// Price is the item price as a non-negative integer in the local
	// currency's smallest practical unit.
	Price int `json:"price"`
}
