// Package browser drives a real Chromium session over the DevTools protocol
// and translates configured CSS selectors into the harvester's page
// operations. Card markup is parsed off-page with goquery so the extraction
// rules are testable without a browser.
package browser
