package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListingType(t *testing.T) {
	for _, lt := range ListingTypes {
		got, err := ParseListingType(string(lt))
		require.NoError(t, err)
		assert.Equal(t, lt, got)
	}

	got, err := ParseListingType(" donation ")
	require.NoError(t, err)
	assert.Equal(t, ListingDonation, got)

	_, err = ParseListingType("SALE")
	assert.Error(t, err)
	_, err = ParseListingType("Doação")
	assert.Error(t, err)
}

func TestParseCampus(t *testing.T) {
	for _, c := range Campuses {
		got, err := ParseCampus(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCampus("Ceilândia")
	assert.Error(t, err)
	_, err = ParseCampus("")
	assert.Error(t, err)
}

func TestDisplayNames(t *testing.T) {
	assert.Equal(t, "Empréstimo", ListingLoan.DisplayName())
	assert.Equal(t, "Pedido", ListingRequest.DisplayName())
	assert.Equal(t, "Ceilândia", CampusCeilandia.DisplayName())
	assert.Equal(t, "Darcy Ribeiro", CampusDarcyRibeiro.DisplayName())
	assert.Equal(t, "OTHER", ListingType("OTHER").DisplayName())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("CONFIRMED")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)

	_, err = ParseStatus("confirmed")
	assert.Error(t, err)
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "u1/a1", StorageKey("u1", "a1"))
}
