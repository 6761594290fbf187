package service

import (
	"testing"

	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	"github.com/shoaibhasann/zahra/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupReviewServiceTest(t *testing.T) (ReviewService, *model.User, *model.Product, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	reviewService := NewReviewService(
		repository.NewReviewRepository(testDB),
		repository.NewProductRepository(testDB),
	)

	email := "reviewer@example.com"
	user := &model.User{Email: &email, Name: "Reviewer", Role: model.RoleUser}
	require.NoError(t, testDB.Create(user).Error)

	product := &model.Product{
		Title:    "Lac Bangle",
		Slug:     "lac-bangle",
		Category: model.CategoryBangles,
		Price:    20000,
		IsActive: true,
	}
	require.NoError(t, testDB.Create(product).Error)

	return reviewService, user, product, testDB
}

func TestReviewService_Create(t *testing.T) {
	reviewService, user, product, testDB := setupReviewServiceTest(t)

	review, err := reviewService.Create(user.ID, product.ID, ReviewInput{Rating: 4, Comment: "Lovely finish"})
	require.NoError(t, err)
	assert.Equal(t, 4, review.Rating)

	// The product's rating stats follow the review.
	var stored model.Product
	require.NoError(t, testDB.First(&stored, product.ID).Error)
	assert.Equal(t, 4.0, stored.Ratings)
	assert.Equal(t, 1, stored.NumberOfReviews)
}

func TestReviewService_Create_OnePerUser(t *testing.T) {
	reviewService, user, product, _ := setupReviewServiceTest(t)

	_, err := reviewService.Create(user.ID, product.ID, ReviewInput{Rating: 4})
	require.NoError(t, err)

	_, err = reviewService.Create(user.ID, product.ID, ReviewInput{Rating: 5})
	assert.ErrorIs(t, err, ErrReviewExists)
}

func TestReviewService_Create_Validation(t *testing.T) {
	reviewService, user, product, _ := setupReviewServiceTest(t)

	_, err := reviewService.Create(user.ID, product.ID, ReviewInput{Rating: 0})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = reviewService.Create(user.ID, product.ID, ReviewInput{Rating: 6})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = reviewService.Create(user.ID, 9999, ReviewInput{Rating: 3})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestReviewService_UpdateAndDelete(t *testing.T) {
	reviewService, user, product, testDB := setupReviewServiceTest(t)

	review, err := reviewService.Create(user.ID, product.ID, ReviewInput{Rating: 2, Comment: "Cracked on arrival"})
	require.NoError(t, err)

	// Only the author may update.
	_, err = reviewService.Update(review.ID, user.ID+1, ReviewInput{Rating: 5})
	assert.ErrorIs(t, err, ErrReviewAccessDenied)

	updated, err := reviewService.Update(review.ID, user.ID, ReviewInput{Rating: 5, Comment: "Replacement was perfect"})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)

	var stored model.Product
	require.NoError(t, testDB.First(&stored, product.ID).Error)
	assert.Equal(t, 5.0, stored.Ratings)

	err = reviewService.Delete(review.ID, user.ID+1, false)
	assert.ErrorIs(t, err, ErrReviewAccessDenied)

	require.NoError(t, reviewService.Delete(review.ID, user.ID, false))

	require.NoError(t, testDB.First(&stored, product.ID).Error)
	assert.Equal(t, 0, stored.NumberOfReviews)
}
