package model

import "context"

// Store keeps searches and bookings between turns. Keys are opaque strings
// generated on Add. Get, Update and Delete of an unknown key return an error
// matching errx.ErrNotFound.
type Store interface {
	AddSearch(ctx context.Context, search *SearchData) (string, error)
	UpdateSearch(ctx context.Context, key string, search *SearchData) error
	GetSearch(ctx context.Context, key string) (*SearchData, error)
	DeleteSearch(ctx context.Context, key string) error

	AddBooking(ctx context.Context, booking *BookingData) (string, error)
	UpdateBooking(ctx context.Context, key string, booking *BookingData) error
	GetBooking(ctx context.Context, key string) (*BookingData, error)
	DeleteBooking(ctx context.Context, key string) error
}
