package manifest

// Listing is a manifest together with the inputs it was built from.
type Listing struct {
	Root    string   `json:"root" yaml:"root"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Entries []string `json:"entries" yaml:"entries"`
}

// NewListing builds the manifest of root.
func NewListing(root string, exclude []string) (*Listing, error) {
	entries, err := Build(root, exclude)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []string{}
	}
	return &Listing{Root: root, Exclude: exclude, Entries: entries}, nil
}
