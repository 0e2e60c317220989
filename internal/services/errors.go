// Package services defines the business logic for product lookup, search,
// and ingredient analysis. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

var (
	// ErrProductNotFound indicates that the barcode is neither cached nor
	// known to the remote food database.
	ErrProductNotFound = errors.New("product not found")

	// ErrEmptyQuery is returned when a search request contains a blank
	// query string.
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrNoIngredients indicates the product exists but carries no
	// ingredient text, so there is nothing to analyze.
	ErrNoIngredients = errors.New("no ingredients found for product")

	// ErrEmptyIngredients is returned when an analysis request contains no
	// ingredient text.
	ErrEmptyIngredients = errors.New("ingredients text is empty")

	// ErrEmptyImage is returned when an OCR request carries an empty file.
	ErrEmptyImage = errors.New("image file is empty")
)
