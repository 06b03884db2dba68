package models

// Station represents a train station
type Station struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
	Code string `json:"code"`
}

// Label is the station name with its code, as printed on tickets
func (s Station) Label() string {
	if s.Code == "" {
		return s.Name
	}
	return s.Name + " (" + s.Code + ")"
}
