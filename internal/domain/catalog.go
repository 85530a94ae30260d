package domain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UsageType is the output identity for one provider usage-type label: the
// series name used in output file names and the unit suffix used in the
// output header.
type UsageType struct {
	Name string `yaml:"name"`
	Unit string `yaml:"unit"`
}

// Catalog maps provider usage-type labels to output identities. The set is
// closed: a label outside the catalog aborts the run that produced it.
type Catalog map[string]UsageType

// DefaultCatalog returns the built-in label mapping for PSE exports.
func DefaultCatalog() Catalog {
	return Catalog{
		"Electric usage":    {Name: "electricity", Unit: "kwh"},
		"Natural gas usage": {Name: "gas", Unit: "ccf"},
	}
}

// Lookup resolves a provider label, failing with ErrUnknownUsageType for
// labels outside the catalog.
func (c Catalog) Lookup(label string) (UsageType, error) {
	ut, ok := c[label]
	if !ok {
		return UsageType{}, fmt.Errorf("%w: %q", ErrUnknownUsageType, label)
	}
	return ut, nil
}

// LoadCatalog builds the catalog used for a run. An empty path returns
// DefaultCatalog unchanged; otherwise path names a YAML file of
// label → {name, unit} entries that are merged over the defaults, so a
// deployment can add labels without restating the built-ins.
func LoadCatalog(path string) (Catalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	var overrides map[string]UsageType
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parsing catalog file %s: %w", path, err)
	}

	for label, ut := range overrides {
		if ut.Name == "" || ut.Unit == "" {
			return nil, fmt.Errorf("catalog entry %q: name and unit are required", label)
		}
		cat[label] = ut
	}
	return cat, nil
}
