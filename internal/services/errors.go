// Package services defines the business logic for authentication, the game
// catalog, favorites, and AI recommendations. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Authentication errors.
var (
	// ErrEmailTaken is returned when registering with an email that already
	// belongs to an account.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrInvalidCredentials is returned on login when the email is unknown
	// or the password does not match. The two cases are deliberately not
	// distinguished.
	ErrInvalidCredentials = errors.New("email or password is incorrect")

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Catalog errors.
var (
	// ErrGameNotFound indicates the requested game does not exist.
	ErrGameNotFound = errors.New("game not found")
)

// Favorites errors.
var (
	// ErrFavoriteNotFound indicates the user has no favorite for that game.
	ErrFavoriteNotFound = errors.New("favorite not found")

	// ErrDuplicateFavorite is returned when a game is already in the
	// user's favorite list.
	ErrDuplicateFavorite = errors.New("game already exists in the favorite list")
)

// Recommendation errors.
var (
	// ErrAINotConfigured means the generation credential is missing. This
	// is a fatal configuration error and is never retried.
	ErrAINotConfigured = errors.New("generation API key is not configured")

	// ErrAIResponseParse means the model output was not valid JSON after
	// fence stripping. Fatal at this layer; retries are a client concern.
	ErrAIResponseParse = errors.New("failed to parse AI response")

	// ErrAIResponseFormat means the model output parsed but was not a
	// non-empty array of game IDs.
	ErrAIResponseFormat = errors.New("invalid recommendation format from AI")

	// ErrRequestNotFound indicates the requested history row does not exist.
	ErrRequestNotFound = errors.New("AI request not found")

	// ErrNotRequestOwner is returned when a user tries to delete a history
	// row that belongs to someone else.
	ErrNotRequestOwner = errors.New("you do not have access to delete this")
)
