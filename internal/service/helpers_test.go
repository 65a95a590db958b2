package service

import (
	"testing"

	"shop_system/internal/domain"
	"shop_system/internal/policy"
	"shop_system/internal/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memSession is an in-memory session.Store
type memSession struct {
	values  map[string]any
	cleared bool
	saves   int
}

func newMemSession() *memSession {
	return &memSession{values: map[string]any{}}
}

func (m *memSession) GetInt(key string) (int, bool) {
	v, ok := m.values[key].(int)
	return v, ok
}

func (m *memSession) GetString(key string) (string, bool) {
	v, ok := m.values[key].(string)
	return v, ok
}

func (m *memSession) SetInt(key string, v int)       { m.values[key] = v }
func (m *memSession) SetString(key string, v string) { m.values[key] = v }

func (m *memSession) Clear() {
	m.values = map[string]any{}
	m.cleared = true
}

func (m *memSession) Save() error {
	m.saves++
	return nil
}

// seedUser inserts a user with an argon2 password equal to its login.
func seedUser(t *testing.T, db *gorm.DB, login string, admin bool) policy.Caller {
	t.Helper()
	salt, err := utils.GenerateSalt()
	require.NoError(t, err)
	hash := utils.HashPasswordArgon2(login, salt)
	u := domain.User{
		Login:        &login,
		PasswordHash: &hash,
		Salt:         &salt,
		FirstName:    login,
		LastName:     "Tester",
		Email:        login + "@shop.test",
		IsAdmin:      admin,
	}
	require.NoError(t, db.Create(&u).Error)
	return policy.Caller{ID: u.ID, IsAdmin: admin}
}

func seedProduct(t *testing.T, db *gorm.DB, name, category string) domain.Product {
	t.Helper()
	var cat domain.Category
	require.NoError(t, db.Where(domain.Category{Name: category}).FirstOrCreate(&cat).Error)
	p := domain.Product{Name: name, CategoryID: cat.ID}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func requireValidation(t *testing.T, err error, fields ...string) *domain.ValidationError {
	t.Helper()
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	for _, f := range fields {
		require.Contains(t, ve.Fields, f)
	}
	return ve
}
