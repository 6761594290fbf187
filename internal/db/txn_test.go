package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRunInTxWithRetry_Succeeds(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { CleanupTestDB(testDB) })

	calls := 0
	err = RunInTxWithRetry(testDB, func(tx *gorm.DB) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunInTxWithRetry_RetriesTransientErrors(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { CleanupTestDB(testDB) })

	calls := 0
	err = RunInTxWithRetry(testDB, func(tx *gorm.DB) error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRunInTxWithRetry_Exhausts(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { CleanupTestDB(testDB) })

	calls := 0
	err = RunInTxWithRetry(testDB, func(tx *gorm.DB) error {
		calls++
		return errors.New("could not serialize access due to concurrent update")
	})
	assert.ErrorIs(t, err, ErrTxRetryExhausted)
	assert.Equal(t, 3, calls)
}

func TestRunInTxWithRetry_NonTransientAbortsImmediately(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { CleanupTestDB(testDB) })

	sentinel := errors.New("validation failed")
	calls := 0
	err = RunInTxWithRetry(testDB, func(tx *gorm.DB) error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestRunInTxWithClassifier_CustomClassifier(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { CleanupTestDB(testDB) })

	flaky := errors.New("backend hiccup")
	calls := 0
	err = RunInTxWithClassifier(testDB, func(e error) bool {
		return errors.Is(e, flaky)
	}, func(tx *gorm.DB) error {
		calls++
		if calls == 1 {
			return flaky
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
