package service

import (
	"context"
	"strings"
	"testing"

	"shop_system/internal/db/dbtest"
	"shop_system/internal/domain"
	"shop_system/internal/metrics"
	"shop_system/internal/policy"
	"shop_system/internal/session"
	"shop_system/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerInput(login, email string) RegisterInput {
	return RegisterInput{
		Login:           login,
		Password:        "p1",
		ConfirmPassword: "p1",
		FirstName:       "A",
		LastName:        "B",
		Email:           email,
	}
}

func TestRegisterThenLogin(t *testing.T) {
	conn := dbtest.New(t)
	svc := NewAuthService(conn, metrics.New())
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, policy.Caller{}, registerInput("alice", "a@x")))

	var stored domain.User
	require.NoError(t, conn.Where("login = ?", "alice").First(&stored).Error)
	assert.False(t, stored.IsAdmin)
	assert.True(t, strings.HasPrefix(*stored.PasswordHash, "argon2id$"))
	assert.NotEqual(t, "p1", *stored.PasswordHash)

	sess := newMemSession()
	user, err := svc.Login(ctx, policy.Caller{}, sess, LoginInput{Login: "alice", Password: "p1"})
	require.NoError(t, err)
	assert.Equal(t, stored.ID, user.ID)

	id, ok := sess.GetInt(session.KeyUserID)
	require.True(t, ok)
	assert.Equal(t, int(stored.ID), id)
	admin, _ := sess.GetString(session.KeyIsAdmin)
	assert.Equal(t, "false", admin)
	assert.Equal(t, 1, sess.saves)
}

func TestRegisterRejectsTakenLoginAndEmail(t *testing.T) {
	conn := dbtest.New(t)
	svc := NewAuthService(conn, nil)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, policy.Caller{}, registerInput("alice", "a@x")))

	err := svc.Register(ctx, policy.Caller{}, registerInput("alice", "other@x"))
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Login", ce.Field)
	assert.Equal(t, domain.ReasonLoginTaken, ce.Reason)

	err = svc.Register(ctx, policy.Caller{}, registerInput("bob", "a@x"))
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Email", ce.Field)

	assert.EqualValues(t, 1, count(t, conn, &domain.User{}))
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(dbtest.New(t), nil)
	in := registerInput("alice", "not-an-email")
	in.ConfirmPassword = "p2"
	in.FirstName = ""

	err := svc.Register(context.Background(), policy.Caller{}, in)
	ve := requireValidation(t, err, "ConfirmPassword", "Email", "FirstName")
	assert.Equal(t, "Passwords do not match.", ve.Fields["ConfirmPassword"])
}

func TestRegisterWhileLoggedIn(t *testing.T) {
	conn := dbtest.New(t)
	caller := seedUser(t, conn, "carol", false)
	err := NewAuthService(conn, nil).Register(context.Background(), caller, registerInput("dave", "d@x"))
	assert.ErrorIs(t, err, domain.ErrAlreadyAuthenticated)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	conn := dbtest.New(t)
	seedUser(t, conn, "alice", false)
	svc := NewAuthService(conn, nil)
	ctx := context.Background()

	sess := newMemSession()
	_, errWrong := svc.Login(ctx, policy.Caller{}, sess, LoginInput{Login: "alice", Password: "nope"})
	_, errUnknown := svc.Login(ctx, policy.Caller{}, sess, LoginInput{Login: "ghost", Password: "nope"})

	_, errLong := svc.Login(ctx, policy.Caller{}, sess, LoginInput{Login: strings.Repeat("g", 51), Password: "nope"})

	assert.ErrorIs(t, errWrong, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, errLong, domain.ErrInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())
	assert.Equal(t, errWrong.Error(), errLong.Error())
	assert.Empty(t, sess.values)
}

func TestLoginSkipsAccountsWithoutPassword(t *testing.T) {
	conn := dbtest.New(t)
	login := "nopass"
	require.NoError(t, conn.Create(&domain.User{Login: &login, FirstName: "N", LastName: "P", Email: "n@p"}).Error)

	_, err := NewAuthService(conn, nil).Login(context.Background(), policy.Caller{}, newMemSession(), LoginInput{Login: "nopass", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	conn := dbtest.New(t)
	login, salt := "legacy", "c2FsdHNhbHRzYWx0c2FsdA=="
	hash := utils.HashPassword("old-secret", salt)
	require.NoError(t, conn.Create(&domain.User{
		Login: &login, PasswordHash: &hash, Salt: &salt,
		FirstName: "L", LastName: "G", Email: "l@g",
	}).Error)
	svc := NewAuthService(conn, nil)
	ctx := context.Background()

	_, err := svc.Login(ctx, policy.Caller{}, newMemSession(), LoginInput{Login: login, Password: "old-secret"})
	require.NoError(t, err)

	var stored domain.User
	require.NoError(t, conn.Where("login = ?", login).First(&stored).Error)
	assert.True(t, strings.HasPrefix(*stored.PasswordHash, "argon2id$"))
	assert.NotEqual(t, salt, *stored.Salt)

	_, err = svc.Login(ctx, policy.Caller{}, newMemSession(), LoginInput{Login: login, Password: "old-secret"})
	assert.NoError(t, err)
}

func TestLoginAdminFlag(t *testing.T) {
	conn := dbtest.New(t)
	seedUser(t, conn, "root", true)
	sess := newMemSession()
	_, err := NewAuthService(conn, nil).Login(context.Background(), policy.Caller{}, sess, LoginInput{Login: "root", Password: "root"})
	require.NoError(t, err)
	admin, _ := sess.GetString(session.KeyIsAdmin)
	assert.Equal(t, "true", admin)
}

func TestLogout(t *testing.T) {
	conn := dbtest.New(t)
	caller := seedUser(t, conn, "alice", false)
	svc := NewAuthService(conn, nil)

	sess := newMemSession()
	sess.SetInt(session.KeyUserID, int(caller.ID))
	require.NoError(t, svc.Logout(caller, sess))
	assert.True(t, sess.cleared)
	assert.Empty(t, sess.values)

	assert.ErrorIs(t, svc.Logout(policy.Caller{}, newMemSession()), domain.ErrUnauthenticated)
}
