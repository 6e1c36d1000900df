package sales

import "time"

// LineItem is the canonical input model for one sales transaction being rated.
type LineItem struct {
	ID              string      `json:"id"`
	ProductName     string      `json:"product_name"`
	Category        string      `json:"category"`
	Territory       string      `json:"territory"`
	Quantity        interface{} `json:"quantity"`     // coerced defensively by the engine
	GrossAmount     interface{} `json:"gross_amount"` // ditto
	TransactionDate time.Time   `json:"transaction_date"`
}

// Season returns the meteorological season for the item's transaction date,
// used as a binding for seasonal rate lookups.
func (li LineItem) Season() string {
	switch li.TransactionDate.Month() {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "fall"
	}
}
