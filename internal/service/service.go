// Package service implements the application's business logic on top of the
// store, keeping handlers thin.
package service

import (
	"github.com/shelfmark/shelfmark-server/internal/validation"
)

// validate is a shared validator instance for request validation.
// Uses JSON tag names so error messages match the wire format.
var validate = validation.New()
