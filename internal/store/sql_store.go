package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"netauth/internal/domain"
)

// accountRow is the accounts table.
type accountRow struct {
	ID            uint64  `gorm:"primaryKey;autoIncrement"`
	Username      string  `gorm:"size:64;not null;uniqueIndex"`
	Email         *string `gorm:"size:64;uniqueIndex"`
	PasswordHash  []byte  `gorm:"size:128;not null"`
	PasswordSalt  []byte  `gorm:"size:128;not null"`
	HashAlgorithm string  `gorm:"size:64;not null"`
	CreatedAt     time.Time
}

func (accountRow) TableName() string { return "accounts" }

func toRow(a domain.Account) accountRow {
	r := accountRow{
		ID:            a.ID,
		Username:      a.Username.String(),
		PasswordHash:  a.PasswordHash,
		PasswordSalt:  a.PasswordSalt,
		HashAlgorithm: a.HashAlgorithm,
		CreatedAt:     a.CreatedAt,
	}
	if a.Email != "" {
		email := a.Email
		r.Email = &email
	}
	return r
}

func (r accountRow) account() domain.Account {
	a := domain.Account{
		ID:            r.ID,
		Username:      domain.Username(r.Username),
		PasswordHash:  r.PasswordHash,
		PasswordSalt:  r.PasswordSalt,
		HashAlgorithm: r.HashAlgorithm,
		CreatedAt:     r.CreatedAt,
	}
	if r.Email != nil {
		a.Email = *r.Email
	}
	return a
}

// AccountSQLStore keeps accounts in a SQLite database through gorm.
type AccountSQLStore struct {
	db *gorm.DB
}

// OpenAccountSQLStore opens (creating if needed) the database at path and
// migrates the accounts table. Use ":memory:" for a private in-memory
// database.
func OpenAccountSQLStore(path string) (*AccountSQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open account database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite serialises writers; one connection also keeps ":memory:" shared.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&accountRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate account database: %w", err)
	}
	return &AccountSQLStore{db: db}, nil
}

// Close releases the database handle.
func (s *AccountSQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FindAccount returns the first account matching q.
func (s *AccountSQLStore) FindAccount(ctx context.Context, q domain.AccountQuery) (domain.Account, bool, error) {
	if q.Username == "" && q.Email == "" {
		return domain.Account{}, false, nil
	}
	tx := s.db.WithContext(ctx).Model(&accountRow{})
	switch {
	case q.Username != "" && q.Email != "":
		tx = tx.Where("username = ? OR email = ?", q.Username.String(), q.Email)
	case q.Username != "":
		tx = tx.Where("username = ?", q.Username.String())
	default:
		tx = tx.Where("email = ?", q.Email)
	}

	var row accountRow
	err := tx.Order("id").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Account{}, false, nil
	}
	if err != nil {
		return domain.Account{}, false, err
	}
	return row.account(), true, nil
}

// InsertAccount stores a and assigns its ID.
func (s *AccountSQLStore) InsertAccount(ctx context.Context, a *domain.Account) error {
	if err := checkLimits(*a); err != nil {
		return err
	}
	row := toRow(*a)
	row.ID = 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		q := tx.Model(&accountRow{}).Where("username = ?", row.Username)
		if row.Email != nil {
			q = q.Or("email = ?", *row.Email)
		}
		if err := q.Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return domain.ErrAccountExists
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %v", domain.ErrAccountExists, err)
		}
		return err
	}
	a.ID = row.ID
	return nil
}

// UpdateAccount replaces the stored account with the same ID.
func (s *AccountSQLStore) UpdateAccount(ctx context.Context, a domain.Account) error {
	if err := checkLimits(a); err != nil {
		return err
	}
	row := toRow(a)
	res := s.db.WithContext(ctx).Model(&accountRow{}).Where("id = ?", a.ID).Updates(map[string]any{
		"username":       row.Username,
		"email":          row.Email,
		"password_hash":  row.PasswordHash,
		"password_salt":  row.PasswordSalt,
		"hash_algorithm": row.HashAlgorithm,
	})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %v", domain.ErrAccountExists, res.Error)
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Compile-time assertion that AccountSQLStore implements domain.AccountStore.
var _ domain.AccountStore = (*AccountSQLStore)(nil)
