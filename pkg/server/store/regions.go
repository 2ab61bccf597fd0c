package store

// Region is one row of the region reference table.
type Region struct {
	Name        string
	Description string
}

// RegionsStore abstracts the region reference table.
type RegionsStore interface {
	// List returns all known regions.
	List() ([]Region, error)

	// Exists reports whether a region name is in the reference table.
	Exists(name string) (bool, error)

	// Seed inserts regions, ignoring names already present.
	Seed(regions []Region) error
}
