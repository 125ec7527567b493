//go:build !ORT

package provider

import "github.com/knights-analytics/hugot"

// newHugotSession uses the pure Go backend. modelPath is unused here; the
// ORT build uses it to locate a bundled runtime library.
func newHugotSession(_ string) (*hugot.Session, error) {
	return hugot.NewGoSession()
}
