// Package citation projects the raw overlap strings returned by the analysis
// service into structured records for display.
//
// The wire format is "[F<integer>/C<decimal>] <url>", or the literal sentinel
// "No overlaps.". Parsing is total: malformed entries degrade to an
// unmatched record that keeps the original string as its URL.
package citation
