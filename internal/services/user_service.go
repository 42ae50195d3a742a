package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "github.com/dvsilva/tech-challenge-2/internal/errors"
	"github.com/dvsilva/tech-challenge-2/internal/logger"
	"github.com/dvsilva/tech-challenge-2/internal/models"
	"github.com/dvsilva/tech-challenge-2/internal/repository"
)

const minPasswordLength = 6

// First card issued at registration.
var (
	welcomeCardType      = "GOLD"
	welcomeCardFunctions = "Debit"
	welcomeCardDueDate   = time.Date(2027, time.January, 7, 0, 0, 0, 0, time.UTC)
)

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// Register creates the user, its debit account and a first card in one
// database transaction.
func (s *userService) Register(name, username, email, password string) (*Registration, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, apperrors.Validation("name, email and password are required")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if username == "" {
		username = name
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	reg := &Registration{}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		reg.User = &models.User{
			Name:     name,
			Username: username,
			Email:    email,
			Password: string(hashedPassword),
			Settings: models.DefaultUserSettings(),
		}
		if err := tx.Create(reg.User).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrPersistence, err)
		}

		number, err := newAccountNumber(tx)
		if err != nil {
			return err
		}
		reg.Account = &models.Account{
			UserID:        reg.User.ID,
			AccountNumber: number,
			Type:          models.AccountTypeDebit,
		}
		if err := tx.Create(reg.Account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrPersistence, err)
		}

		cardNumber, err := randomDigits(16)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		cvc, err := randomDigits(3)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		reg.Card = &models.Card{
			AccountID: reg.Account.ID,
			Type:      welcomeCardType,
			Number:    cardNumber,
			DueDate:   welcomeCardDueDate,
			Functions: welcomeCardFunctions,
			CVC:       cvc,
			Name:      name,
		}
		if err := tx.Create(reg.Card).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("User registered", "user_id", reg.User.ID, "account_id", reg.Account.ID)
	return reg, nil
}

// newAccountNumber picks an unused "AC-" + 6 digit number.
func newAccountNumber(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		digits, err := randomDigits(6)
		if err != nil {
			return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		number := "AC-" + digits

		var count int64
		if err := tx.Model(&models.Account{}).Where("account_number = ?", number).Count(&count).Error; err != nil {
			return "", apperrors.Wrap(apperrors.ErrPersistence, err)
		}
		if count == 0 {
			return number, nil
		}
	}
	return "", apperrors.WithMessage(apperrors.ErrInternalServer, "could not allocate an account number")
}

func randomDigits(n int) (string, error) {
	var b strings.Builder
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

// GetUserByEmail retrieves a user by email
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// AttemptLogin returns the user when the credentials match. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.VerifyPassword(user, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// UpdateUser applies the non-nil profile fields.
func (s *userService) UpdateUser(userID string, in UpdateUserInput) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.Validation("name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Username != nil {
		updates["username"] = strings.TrimSpace(*in.Username)
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != user.Email {
			var count int64
			if err := s.db.Model(&models.User{}).Where("email = ? AND id <> ?", email, userID).Count(&count).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
			}
			if count > 0 {
				return nil, apperrors.ErrDuplicateEmail
			}
			updates["email"] = email
		}
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return s.GetUserByID(userID)
}

// ChangePassword replaces the password after verifying the current one.
func (s *userService) ChangePassword(userID, currentPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if !s.VerifyPassword(user, currentPassword) {
		return apperrors.ErrWrongPassword
	}
	if len(newPassword) < minPasswordLength {
		return apperrors.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(user).Update("password", string(hashed)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return nil
}

// GetSettings returns the user's preferences.
func (s *userService) GetSettings(userID string) (*models.UserSettings, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	return &user.Settings, nil
}

// UpdateSettings applies the non-nil settings.
func (s *userService) UpdateSettings(userID string, in UpdateSettingsInput) (*models.UserSettings, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Notifications != nil {
		updates["settings_notifications"] = *in.Notifications
	}
	if in.Language != nil {
		updates["settings_language"] = *in.Language
	}
	if in.Currency != nil {
		updates["settings_currency"] = strings.ToUpper(*in.Currency)
	}
	if in.TwoFactorAuth != nil {
		updates["settings_two_factor_auth"] = *in.TwoFactorAuth
	}
	if in.EmailAlerts != nil {
		updates["settings_email_alerts"] = *in.EmailAlerts
	}
	if in.SMSAlerts != nil {
		updates["settings_sms_alerts"] = *in.SMSAlerts
	}
	if in.Theme != nil {
		updates["settings_theme"] = *in.Theme
	}
	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
		}
	}
	return s.GetSettings(userID)
}

// DeleteUser removes the user and everything its account owns.
func (s *userService) DeleteUser(userID string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var accountIDs []string
		if err := tx.Model(&models.Account{}).Where("user_id = ?", user.ID).Pluck("id", &accountIDs).Error; err != nil {
			return err
		}
		investments := repository.NewInvestmentRepository(tx)
		ledger := repository.NewLedgerRepository(tx)
		for _, accountID := range accountIDs {
			if err := tx.Where("account_id = ?", accountID).Delete(&models.Card{}).Error; err != nil {
				return err
			}
			if err := investments.DeleteByAccountID(accountID); err != nil {
				return err
			}
			if err := ledger.DeleteByAccountID(accountID); err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Account{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	logger.Get().Infow("User deleted", "user_id", userID)
	return nil
}
