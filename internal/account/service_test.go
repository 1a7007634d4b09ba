package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"deediq/internal/apperror"
	"deediq/internal/auth"
	"deediq/internal/database"
	"deediq/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Options{URL: "sqlite://:memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db))
	t.Cleanup(func() { database.Close(db) })
	return db
}

func strPtr(s string) *string { return &s }

func callerFor(u *models.User) auth.Caller {
	return auth.Caller{UserID: u.ID, Username: u.Username}
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"short username", "ab", "a@b.com", "secret1"},
		{"bad email", "abc", "not-an-email", "secret1"},
		{"email without tld", "abc", "a@b", "secret1"},
		{"short password", "abc", "a@b.com", "short"},
		{"missing fields", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, tt.username, tt.email, tt.password)
			assert.True(t, errors.Is(err, apperror.ErrValidation), "got %v", err)
		})
	}
}

func TestCreateUserHashesPassword(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	user, err := svc.CreateUser(context.Background(), "abc", "a@b.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.True(t, user.IsActive)
	assert.Nil(t, user.LastLogin)

	var stored models.User
	require.NoError(t, db.Where("id = ?", user.ID).Take(&stored).Error)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))

	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, BcryptCost, cost)
}

func TestCreateUserDuplicate(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "abc", "a@b.com", "secret1")
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "other", "a@b.com", "secret1")
	assert.True(t, errors.Is(err, apperror.ErrConflict))
	assert.Equal(t, "Username or email already exists", err.Error())

	_, err = svc.CreateUser(ctx, "abc", "other@b.com", "secret1")
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "abc", "a@b.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "a@b.com", "wrong-password")
	assert.True(t, errors.Is(err, apperror.ErrAuth))
	assert.Equal(t, "Invalid email or password", err.Error())

	_, err = svc.Authenticate(ctx, "nobody@b.com", "secret1")
	assert.True(t, errors.Is(err, apperror.ErrAuth))

	first, err := svc.Authenticate(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, first.LastLogin)

	time.Sleep(10 * time.Millisecond)
	second, err := svc.Authenticate(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	assert.True(t, second.LastLogin.After(*first.LastLogin))

	var stored models.User
	require.NoError(t, db.Where("email = ?", "a@b.com").Take(&stored).Error)
	require.NotNil(t, stored.LastLogin)
	assert.True(t, stored.LastLogin.After(*first.LastLogin))
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "abc", "a@b.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).UpdateColumn("is_active", false).Error)

	_, err = svc.Authenticate(ctx, "a@b.com", "secret1")
	assert.True(t, errors.Is(err, apperror.ErrAuth))
	assert.Equal(t, "Account is disabled", err.Error())
}

func TestUpdateProfilePartial(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "abc", "a@b.com", "secret1")
	require.NoError(t, err)
	other, err := svc.CreateUser(ctx, "taken", "t@b.com", "secret1")
	require.NoError(t, err)
	caller := callerFor(user)

	require.NoError(t, svc.UpdateProfile(ctx, caller, ProfileUpdate{Name: strPtr("Ada"), Bio: strPtr("Investor")}))
	require.NoError(t, svc.UpdateProfile(ctx, caller, ProfileUpdate{Bio: strPtr("Landlord")}))

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, "Landlord", got.Bio)
	assert.Equal(t, "abc", got.Username)

	err = svc.UpdateProfile(ctx, caller, ProfileUpdate{Username: strPtr(other.Username)})
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	// Keeping one's own username is not a conflict.
	require.NoError(t, svc.UpdateProfile(ctx, caller, ProfileUpdate{Username: strPtr("abc")}))
	require.NoError(t, svc.UpdateProfile(ctx, caller, ProfileUpdate{Username: strPtr("renamed")}))

	got, err = svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Username)
	assert.Equal(t, "Ada", got.Name)

	err = svc.UpdateProfile(ctx, auth.Anonymous, ProfileUpdate{Name: strPtr("x")})
	assert.True(t, errors.Is(err, apperror.ErrAuth))
}

func TestChangePassword(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "abc", "a@b.com", "secret1")
	require.NoError(t, err)
	caller := callerFor(user)

	err = svc.ChangePassword(ctx, caller, "wrong1", "newsecret")
	assert.True(t, errors.Is(err, apperror.ErrAuth))

	err = svc.ChangePassword(ctx, caller, "secret1", "short")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	require.NoError(t, svc.ChangePassword(ctx, caller, "secret1", "newsecret"))

	_, err = svc.Authenticate(ctx, "a@b.com", "secret1")
	assert.True(t, errors.Is(err, apperror.ErrAuth))
	_, err = svc.Authenticate(ctx, "a@b.com", "newsecret")
	assert.NoError(t, err)
}

func TestPublicProfile(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "abc", "a@b.com", "secret1")
	require.NoError(t, err)

	thread := models.Thread{CategoryID: "c1", UserID: user.ID, Title: "Hello world"}
	require.NoError(t, db.Create(&thread).Error)
	for _, content := range []string{"first post", "second post"} {
		require.NoError(t, db.Create(&models.Post{ThreadID: thread.ID, UserID: user.ID, Content: content}).Error)
	}

	profile, err := svc.PublicProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc", profile.Username)
	assert.Equal(t, int64(1), profile.ThreadCount)
	assert.Equal(t, int64(2), profile.PostCount)

	_, err = svc.PublicProfile(ctx, "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestSavedProperties(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	owner, err := svc.CreateUser(ctx, "owner", "o@b.com", "secret1")
	require.NoError(t, err)
	stranger, err := svc.CreateUser(ctx, "stranger", "s@b.com", "secret1")
	require.NoError(t, err)

	_, err = svc.SaveProperty(ctx, callerFor(owner), models.SavedProperty{PurchasePrice: 100000})
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = svc.SaveProperty(ctx, auth.Anonymous, models.SavedProperty{Address: "1 Main St"})
	assert.True(t, errors.Is(err, apperror.ErrAuth))

	snapshot := models.SavedProperty{
		Address:            "123 Elm St, Memphis, TN",
		PurchasePrice:      200000,
		DownPaymentPercent: 20,
		InterestRate:       6.5,
		LoanTerm:           30,
		MonthlyRent:        1800,
		MonthlyPayment:     959.28,
		MonthlyNOI:         1400,
		CapRate:            8.4,
		CashOnCashReturn:   13.22,
		TotalCashNeeded:    40000,
		IRR:                21.5,
	}
	firstID, err := svc.SaveProperty(ctx, callerFor(owner), snapshot)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	snapshot.Address = "456 Oak Ave, Nashville, TN"
	secondID, err := svc.SaveProperty(ctx, callerFor(owner), snapshot)
	require.NoError(t, err)

	properties, err := svc.ListProperties(ctx, callerFor(owner))
	require.NoError(t, err)
	require.Len(t, properties, 2)
	assert.Equal(t, secondID, properties[0].ID)
	assert.Equal(t, firstID, properties[1].ID)
	assert.Equal(t, owner.ID, properties[1].UserID)
	assert.Equal(t, 959.28, properties[1].MonthlyPayment)
	assert.Equal(t, 21.5, properties[1].IRR)
	assert.Equal(t, 30, properties[1].LoanTerm)

	none, err := svc.ListProperties(ctx, callerFor(stranger))
	require.NoError(t, err)
	assert.Empty(t, none)

	err = svc.DeleteProperty(ctx, callerFor(stranger), firstID)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
	assert.Equal(t, "Not authorized", err.Error())

	err = svc.DeleteProperty(ctx, callerFor(owner), "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	require.NoError(t, svc.DeleteProperty(ctx, callerFor(owner), firstID))
	properties, err = svc.ListProperties(ctx, callerFor(owner))
	require.NoError(t, err)
	require.Len(t, properties, 1)
	assert.Equal(t, secondID, properties[0].ID)
}
