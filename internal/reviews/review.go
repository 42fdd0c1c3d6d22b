package reviews

// Sentinel is the placeholder value of a field that could not be resolved.
const Sentinel = "N/A"

// Review is one review as it appeared on a page.
type Review struct {
	Reviewer string `json:"reviewer"`
	Rating   string `json:"rating"`
	Date     string `json:"date"`
	Text     string `json:"text"`
}

// Valid reports whether every field was resolved.
func (r Review) Valid() bool {
	return r.Reviewer != Sentinel &&
		r.Rating != Sentinel &&
		r.Date != Sentinel &&
		r.Text != Sentinel
}

// Header is the column order used by tabular outputs.
var Header = []string{"reviewer", "rating", "date", "text"}

// Row returns the fields of the review in Header order.
func (r Review) Row() []string {
	return []string{r.Reviewer, r.Rating, r.Date, r.Text}
}
