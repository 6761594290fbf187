package service

import (
	"testing"

	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	"github.com/shoaibhasann/zahra/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAddressServiceTest(t *testing.T) (AddressService, *model.User) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	addressService := NewAddressService(repository.NewAddressRepository(testDB))

	email := "resident@example.com"
	user := &model.User{Email: &email, Name: "Resident", Role: model.RoleUser}
	require.NoError(t, testDB.Create(user).Error)

	return addressService, user
}

func validAddressInput() AddressInput {
	return AddressInput{
		Label:   "home",
		Name:    "Resident",
		Phone:   "+919876543210",
		Line1:   "45 Johari Bazaar",
		City:    "Jaipur",
		State:   "Rajasthan",
		Pincode: "302003",
	}
}

func TestAddressService_Create(t *testing.T) {
	addressService, user := setupAddressServiceTest(t)

	address, err := addressService.Create(user.ID, validAddressInput())
	require.NoError(t, err)
	assert.Equal(t, user.ID, address.UserID)
	assert.Equal(t, "302003", address.Pincode)
}

func TestAddressService_Create_Validation(t *testing.T) {
	addressService, user := setupAddressServiceTest(t)

	input := validAddressInput()
	input.Line1 = ""
	_, err := addressService.Create(user.ID, input)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	input = validAddressInput()
	input.Pincode = "1234"
	_, err = addressService.Create(user.ID, input)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestAddressService_DefaultIsExclusive(t *testing.T) {
	addressService, user := setupAddressServiceTest(t)

	first := validAddressInput()
	first.IsDefault = true
	created, err := addressService.Create(user.ID, first)
	require.NoError(t, err)
	assert.True(t, created.IsDefault)

	second := validAddressInput()
	second.Label = "office"
	second.IsDefault = true
	_, err = addressService.Create(user.ID, second)
	require.NoError(t, err)

	addresses, err := addressService.List(user.ID)
	require.NoError(t, err)
	require.Len(t, addresses, 2)

	defaults := 0
	for _, a := range addresses {
		if a.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestAddressService_UpdateAndDelete_Ownership(t *testing.T) {
	addressService, user := setupAddressServiceTest(t)

	address, err := addressService.Create(user.ID, validAddressInput())
	require.NoError(t, err)

	_, err = addressService.Update(address.ID, user.ID+1, validAddressInput())
	assert.ErrorIs(t, err, ErrAddressAccessDenied)

	input := validAddressInput()
	input.City = "Udaipur"
	updated, err := addressService.Update(address.ID, user.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Udaipur", updated.City)

	err = addressService.Delete(address.ID, user.ID+1)
	assert.ErrorIs(t, err, ErrAddressAccessDenied)

	require.NoError(t, addressService.Delete(address.ID, user.ID))

	addresses, err := addressService.List(user.ID)
	require.NoError(t, err)
	assert.Empty(t, addresses)
}
