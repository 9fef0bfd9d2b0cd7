package usage

// Counter is the daily call count for one category of external call.
type Counter struct {
	Category string `json:"category"`
	Date     string `json:"date"`
	Count    int    `json:"count"`
	// Limit of 0 means the category is unlimited.
	Limit int `json:"limit"`
}

// Remaining reports how many calls are left today, or -1 when unlimited.
func (c Counter) Remaining() int {
	if c.Limit <= 0 {
		return -1
	}
	if c.Count >= c.Limit {
		return 0
	}
	return c.Limit - c.Count
}
