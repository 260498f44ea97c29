package repository_test

import (
	"errors"
	"testing"

	"commerce-core/internal/apperror"
	"commerce-core/internal/model"
	"commerce-core/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLite ignores row locks, so the MySQL statements are checked here.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return db, mock
}

func TestLockUser_UsesSelectForUpdate(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT \\* FROM `users` WHERE id = \\? .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "balance", "coin_balance"}).
			AddRow(7, "Budi", "budi@example.com", 300000, 10))

	user, err := repository.NewWalletLedger().LockUser(t.Context(), db, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(300000), user.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockMany_LocksProductsInIDOrder(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT \\* FROM `products` WHERE id IN \\(\\?,\\?\\) ORDER BY id FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "stock", "price"}).
			AddRow(3, "Kaos", 4, 50000).
			AddRow(9, "Topi", 1, 25000))

	products, err := repository.NewProductRepository().LockMany(t.Context(), db, []uint{9, 3})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, uint(3), products[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebit_IsConditionalOnBalance(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("UPDATE `users` SET `balance`=balance - \\?.*WHERE .*id = \\? AND balance >= \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT `id`,`balance`,`coin_balance` FROM `users` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "coin_balance"}).AddRow(7, 50000, 0))

	_, err := repository.NewWalletLedger().Debit(t.Context(), db, 7, model.CurrencyFiat, 212000, "checkout", "ORD-1")

	var balanceErr *apperror.InsufficientBalanceError
	require.True(t, errors.As(err, &balanceErr))
	assert.Equal(t, int64(212000), balanceErr.Required)
	assert.Equal(t, int64(50000), balanceErr.Current)
	assert.NoError(t, mock.ExpectationsWereMet())
}
