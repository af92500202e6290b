// Package main provides the entry point for the origincheck CLI.
//
// origincheck submits documents to an originality and AI-probability
// analysis service, narrates progress while the service works, and
// downloads the generated PDF report.
//
// Usage:
//
//	origincheck login --email you@example.com --password ...
//	origincheck analyse --file essay.pdf --download
//	origincheck history
//
// See --help for all available options.
package main

// main is the entry point for origincheck.
func main() {
	Execute()
}
