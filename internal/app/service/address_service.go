package service

import (
	"errors"

	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidAddress      = errors.New("invalid address input")
	ErrAddressAccessDenied = errors.New("address belongs to another user")
)

// AddressInput is a create/update payload for a delivery address.
type AddressInput struct {
	Label     string
	Name      string
	Phone     string
	Line1     string
	Line2     string
	City      string
	State     string
	Pincode   string
	IsDefault bool
}

// AddressService manages a user's delivery addresses. At most one address is
// the default at any time.
type AddressService interface {
	Create(userID uint, input AddressInput) (*model.Address, error)
	List(userID uint) ([]model.Address, error)
	Update(addressID, userID uint, input AddressInput) (*model.Address, error)
	Delete(addressID, userID uint) error
}

type addressService struct {
	addressRepo repository.AddressRepository
}

func NewAddressService(addressRepo repository.AddressRepository) AddressService {
	return &addressService{addressRepo: addressRepo}
}

func (s *addressService) Create(userID uint, input AddressInput) (*model.Address, error) {
	if err := validateAddress(input); err != nil {
		return nil, err
	}

	if input.IsDefault {
		if err := s.addressRepo.ClearDefault(userID); err != nil {
			return nil, err
		}
	}

	address := &model.Address{
		UserID:    userID,
		Label:     input.Label,
		Name:      input.Name,
		Phone:     input.Phone,
		Line1:     input.Line1,
		Line2:     input.Line2,
		City:      input.City,
		State:     input.State,
		Pincode:   input.Pincode,
		IsDefault: input.IsDefault,
	}
	if err := s.addressRepo.Create(address); err != nil {
		return nil, err
	}
	return address, nil
}

func (s *addressService) List(userID uint) ([]model.Address, error) {
	return s.addressRepo.FindByUserID(userID)
}

func (s *addressService) Update(addressID, userID uint, input AddressInput) (*model.Address, error) {
	if err := validateAddress(input); err != nil {
		return nil, err
	}

	address, err := s.findOwned(addressID, userID)
	if err != nil {
		return nil, err
	}

	if input.IsDefault && !address.IsDefault {
		if err := s.addressRepo.ClearDefault(userID); err != nil {
			return nil, err
		}
	}

	address.Label = input.Label
	address.Name = input.Name
	address.Phone = input.Phone
	address.Line1 = input.Line1
	address.Line2 = input.Line2
	address.City = input.City
	address.State = input.State
	address.Pincode = input.Pincode
	address.IsDefault = input.IsDefault

	if err := s.addressRepo.Update(address); err != nil {
		return nil, err
	}
	return address, nil
}

func (s *addressService) Delete(addressID, userID uint) error {
	address, err := s.findOwned(addressID, userID)
	if err != nil {
		return err
	}
	return s.addressRepo.Delete(address)
}

func (s *addressService) findOwned(addressID, userID uint) (*model.Address, error) {
	address, err := s.addressRepo.FindByID(addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	if address.UserID != userID {
		return nil, ErrAddressAccessDenied
	}
	return address, nil
}

func validateAddress(input AddressInput) error {
	if input.Name == "" || input.Phone == "" || input.Line1 == "" ||
		input.City == "" || input.State == "" || len(input.Pincode) != 6 {
		return ErrInvalidAddress
	}
	return nil
}
