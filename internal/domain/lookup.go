package domain

// Region is a reference lookup row describing a geographic region.
type Region struct {
	RegionID    int64   `json:"region_id"`
	CountryCode string  `json:"country_code"`
	CountryName string  `json:"country_name"`
	ProvCode    *string `json:"prov_code,omitempty"`
	ProvName    *string `json:"prov_name,omitempty"`
	County      *string `json:"county,omitempty"`
}

// WarehouseType is a reference lookup row describing how loaded records are
// warehoused.
type WarehouseType struct {
	WtID        int64  `json:"wt_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PlottingMethod is a reference lookup row naming one geocoding/plotting
// method that a pipeline step can reference.
type PlottingMethod struct {
	MethodID    int64  `json:"method_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
