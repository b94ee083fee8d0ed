package models

import (
	"fmt"
	"strings"
)

// UniversitySeparator joins the ordered university list into a single CSV cell.
const UniversitySeparator = "; "

// RawItem is the untyped shape of one listing card as observed by the page
// driver. All fields are optional; the driver fills in whatever the markup
// exposes and leaves the rest empty. Nothing outside the driver adapter
// produces RawItems.
type RawItem struct {
	Name            string
	Occupation      string
	Location        string
	UniversityNames []string
	LinkedInURL     string
	WebsiteURL      string
}

// Record is one harvested profile, normalized for the sink.
type Record struct {
	Name            string
	Occupation      string
	Location        string
	UniversityNames []string
	LinkedInURL     string
	WebsiteURL      string
}

// FromRaw normalizes a raw item into a record. Field values pass through
// trimmed; the university list keeps its order.
func FromRaw(raw RawItem) Record {
	universities := make([]string, 0, len(raw.UniversityNames))
	for _, u := range raw.UniversityNames {
		u = strings.TrimSpace(u)
		if u != "" {
			universities = append(universities, u)
		}
	}
	return Record{
		Name:            strings.TrimSpace(raw.Name),
		Occupation:      strings.TrimSpace(raw.Occupation),
		Location:        strings.TrimSpace(raw.Location),
		UniversityNames: universities,
		LinkedInURL:     strings.TrimSpace(raw.LinkedInURL),
		WebsiteURL:      strings.TrimSpace(raw.WebsiteURL),
	}
}

// PlaceholderRecord is produced when extraction of a single item fails. The
// synthetic name carries the item's listing index; every other field is empty.
func PlaceholderRecord(index int) Record {
	return Record{Name: fmt.Sprintf("Error_Profile_%d", index)}
}

// IsPlaceholder reports whether the record was produced by a failed extraction.
func (r Record) IsPlaceholder() bool {
	return strings.HasPrefix(r.Name, "Error_Profile_")
}

// CSVHeader returns the sink's column names, in row order.
func CSVHeader() []string {
	return []string{"name", "occupation", "location", "university_names", "linkedin_url", "website_url"}
}

// CSVRow renders the record as one sink row matching CSVHeader.
func (r Record) CSVRow() []string {
	return []string{
		r.Name,
		r.Occupation,
		r.Location,
		strings.Join(r.UniversityNames, UniversitySeparator),
		r.LinkedInURL,
		r.WebsiteURL,
	}
}

// TaggedRecord pairs a record with its listing index and computed fingerprint.
type TaggedRecord struct {
	Index       int
	Fingerprint string
	Record      Record
}
