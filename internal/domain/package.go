package domain

import "time"

type PackageCategory string

const (
	PackageCategorySafari   PackageCategory = "SAFARI"
	PackageCategoryMountain PackageCategory = "MOUNTAIN"
	PackageCategoryBeach    PackageCategory = "BEACH"
	PackageCategoryDayTrip  PackageCategory = "DAY_TRIP"
)

// Package is a tour product. PriceCents is per guest.
type Package struct {
	ID           int64
	Name         string
	Category     PackageCategory
	Description  string
	DurationDays int
	PriceCents   int64
	Currency     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
