package domain

// StoreDirectoryEntry describes one retail location from the authority's
// store directory. Entries are optional context for facts: a SalesFact may
// reference a store code with no directory entry and ingestion never fails
// because of it.
type StoreDirectoryEntry struct {
	StoreCode string  `json:"storeCode"`
	StoreName string  `json:"storeName"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	Province  string  `json:"province"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
}

// FactWithStore is a fact joined to its directory entry for read feeds.
// Store fields are empty when the directory has no entry for the code.
type FactWithStore struct {
	SalesFact
	StoreName string   `json:"storeName,omitempty"`
	City      string   `json:"city,omitempty"`
	Province  string   `json:"province,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
}
