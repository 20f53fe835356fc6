package usecase

import (
	"testing"

	"stayhaven/internal/entity"
	"stayhaven/internal/repo/persistent"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newListingFixture(t *testing.T) (ListingUseCase, *memListingRepo) {
	t.Helper()
	repo := newMemListingRepo()
	return NewListingUseCase(repo, nil, testLogger()), repo
}

func TestCreateListingDefaults(t *testing.T) {
	uc, _ := newListingFixture(t)

	listing, err := uc.CreateListing("host-1", CreateListingInput{
		Title:       "Yaba studio",
		City:        "Lagos",
		NightlyRate: decimal.NewFromInt(120),
		Currency:    "NGN",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusActive, listing.Status)
	assert.Equal(t, 1, listing.MaxGuests)
}

func TestCreateListingValidation(t *testing.T) {
	uc, _ := newListingFixture(t)

	_, err := uc.CreateListing("host-1", CreateListingInput{City: "Lagos", NightlyRate: decimal.NewFromInt(10)})
	assert.Error(t, err)

	_, err = uc.CreateListing("host-1", CreateListingInput{Title: "x", City: "Lagos", NightlyRate: decimal.Zero})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestUpdateListingOwnership(t *testing.T) {
	uc, _ := newListingFixture(t)
	listing, err := uc.CreateListing("host-1", CreateListingInput{
		Title: "Flat", City: "Abuja", NightlyRate: decimal.NewFromInt(90), Currency: "NGN",
	})
	require.NoError(t, err)

	_, err = uc.UpdateListing("host-2", listing.ID, CreateListingInput{Title: "Stolen"})
	assert.Error(t, err)

	updated, err := uc.UpdateListing("host-1", listing.ID, CreateListingInput{Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
}

func TestSearchListingsDefaultsToActive(t *testing.T) {
	uc, _ := newListingFixture(t)
	active, err := uc.CreateListing("host-1", CreateListingInput{
		Title: "Active", City: "Lagos", NightlyRate: decimal.NewFromInt(100), Currency: "NGN",
	})
	require.NoError(t, err)
	inactive, err := uc.CreateListing("host-1", CreateListingInput{
		Title: "Gone", City: "Lagos", NightlyRate: decimal.NewFromInt(100), Currency: "NGN",
	})
	require.NoError(t, err)
	require.NoError(t, uc.DeactivateListing("host-1", inactive.ID))

	results, err := uc.SearchListings(persistent.ListingSearch{City: "Lagos"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, active.ID, results[0].ID)
}

func TestAddReviewBounds(t *testing.T) {
	uc, _ := newListingFixture(t)
	listing, err := uc.CreateListing("host-1", CreateListingInput{
		Title: "Flat", City: "Lagos", NightlyRate: decimal.NewFromInt(50), Currency: "NGN",
	})
	require.NoError(t, err)

	_, err = uc.AddReview("guest-1", listing.ID, 0, "meh")
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = uc.AddReview("guest-1", listing.ID, 6, "great")
	assert.ErrorIs(t, err, ErrInvalidRating)

	review, err := uc.AddReview("guest-1", listing.ID, 5, "great stay")
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)

	reviews, err := uc.GetReviews(listing.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestFavoritesRoundTrip(t *testing.T) {
	uc, _ := newListingFixture(t)
	listing, err := uc.CreateListing("host-1", CreateListingInput{
		Title: "Flat", City: "Lagos", NightlyRate: decimal.NewFromInt(50), Currency: "NGN",
	})
	require.NoError(t, err)

	require.NoError(t, uc.AddFavorite("guest-1", listing.ID))
	favorites, err := uc.GetFavorites("guest-1")
	require.NoError(t, err)
	require.Len(t, favorites, 1)

	require.NoError(t, uc.RemoveFavorite("guest-1", listing.ID))
	favorites, err = uc.GetFavorites("guest-1")
	require.NoError(t, err)
	assert.Empty(t, favorites)
}
