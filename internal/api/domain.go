package api

import (
	"github.com/terrasense/regolith/internal/analyses"
)

// Domain holds the domain systems that comprise the API.
type Domain struct {
	Analyses analyses.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	analysesSystem := analyses.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Analyses: analysesSystem,
	}
}
