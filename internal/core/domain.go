package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Date is a calendar day without a time component, serialized as
	// YYYY-MM-DD to match the server's date fields.
	Date struct {
		time.Time
	}

	// User is the server's snapshot of an account taken at login time.
	// It is not refreshed until the next login.
	User struct {
		ID        int64     `json:"id"`
		Username  string    `json:"username"`
		Fullname  string    `json:"fullname"`
		Email     string    `json:"email"`
		IsActive  bool      `json:"is_active"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	// Bank is a money account. EndBalance is derived server-side from
	// StartBalance and the account's transactions; the client never writes it.
	Bank struct {
		ID           int64     `json:"id"`
		Name         string    `json:"name"`
		UserID       int64     `json:"user_id"`
		Color        string    `json:"color"`
		StartBalance int64     `json:"start_balance"`
		EndBalance   int64     `json:"end_balance"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	Category struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		IsIncome  bool      `json:"is_income"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	Transaction struct {
		ID          int64     `json:"id"`
		Date        Date      `json:"date"`
		Amount      int64     `json:"amount"`
		Description string    `json:"description"`
		CategoryID  int64     `json:"category_id"`
		BankID      int64     `json:"bank_id"`
		UserID      int64     `json:"user_id"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}
)

// Create inputs. Field sets mirror the server's create schemas.
type (
	UserCreate struct {
		Fullname string `json:"fullname"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		IsActive bool   `json:"is_active"`
	}

	BankCreate struct {
		Name         string `json:"name"`
		Color        string `json:"color"`
		StartBalance int64  `json:"start_balance"`
	}

	CategoryCreate struct {
		Name     string `json:"name"`
		IsIncome bool   `json:"is_income"`
	}

	TransactionCreate struct {
		Date        Date   `json:"date"`
		Amount      int64  `json:"amount"`
		Description string `json:"description"`
		CategoryID  int64  `json:"category_id"`
		BankID      int64  `json:"bank_id"`
	}
)

// Update inputs carry pointers so that absent fields are omitted from the
// PATCH body entirely; the server only changes the fields that are present.
type (
	BankUpdate struct {
		Name         *string `json:"name,omitempty"`
		Color        *string `json:"color,omitempty"`
		StartBalance *int64  `json:"start_balance,omitempty"`
	}

	CategoryUpdate struct {
		Name     *string `json:"name,omitempty"`
		IsIncome *bool   `json:"is_income,omitempty"`
	}

	TransactionUpdate struct {
		Date        *Date   `json:"date,omitempty"`
		Amount      *int64  `json:"amount,omitempty"`
		Description *string `json:"description,omitempty"`
		CategoryID  *int64  `json:"category_id,omitempty"`
		BankID      *int64  `json:"bank_id,omitempty"`
	}
)

var (
	ErrEmptyName        = errors.New("empty name")
	ErrNameTooLong      = errors.New("name too long (max 100 characters)")
	ErrEmptyColor       = errors.New("empty color")
	ErrColorTooLong     = errors.New("color too long (max 50 characters)")
	ErrNegativeBalance  = errors.New("start balance cannot be negative")
	ErrEmptyUsername    = errors.New("empty username")
	ErrEmptyPassword    = errors.New("empty password")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrMissingCategory  = errors.New("category is required")
	ErrMissingBank      = errors.New("bank is required")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func validateName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return ErrEmptyName
	}
	if len(name) > 100 {
		return ErrNameTooLong
	}
	return nil
}

func (in UserCreate) Validate() error {
	if strings.TrimSpace(in.Username) == "" {
		return ErrEmptyUsername
	}
	if strings.TrimSpace(in.Password) == "" {
		return ErrEmptyPassword
	}
	if err := validateName(in.Fullname); err != nil {
		return err
	}
	if !strings.Contains(in.Email, "@") || len(in.Email) > 50 {
		return ErrInvalidEmail
	}
	return nil
}

func (in BankCreate) Validate() error {
	if err := validateName(in.Name); err != nil {
		return err
	}
	if strings.TrimSpace(in.Color) == "" {
		return ErrEmptyColor
	}
	if len(in.Color) > 50 {
		return ErrColorTooLong
	}
	if in.StartBalance < 0 {
		return ErrNegativeBalance
	}
	return nil
}

func (in BankUpdate) Validate() error {
	if in.Name != nil {
		if err := validateName(*in.Name); err != nil {
			return err
		}
	}
	if in.Color != nil {
		if strings.TrimSpace(*in.Color) == "" {
			return ErrEmptyColor
		}
		if len(*in.Color) > 50 {
			return ErrColorTooLong
		}
	}
	if in.StartBalance != nil && *in.StartBalance < 0 {
		return ErrNegativeBalance
	}
	return nil
}

func (in CategoryCreate) Validate() error {
	return validateName(in.Name)
}

func (in CategoryUpdate) Validate() error {
	if in.Name != nil {
		return validateName(*in.Name)
	}
	return nil
}

func (in TransactionCreate) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if in.Amount == 0 {
		return ErrInvalidAmount
	}
	if len(strings.TrimSpace(in.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(in.Description) > 255 {
		return errors.New("description too long (max 255 characters)")
	}
	if in.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if in.BankID <= 0 {
		return ErrMissingBank
	}
	return nil
}

func (in TransactionUpdate) Validate() error {
	if in.Date != nil {
		if err := in.Date.Validate(); err != nil {
			return err
		}
	}
	if in.Amount != nil && *in.Amount == 0 {
		return ErrInvalidAmount
	}
	if in.Description != nil {
		if len(strings.TrimSpace(*in.Description)) == 0 {
			return ErrEmptyDescription
		}
		if len(*in.Description) > 255 {
			return errors.New("description too long (max 255 characters)")
		}
	}
	if in.CategoryID != nil && *in.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if in.BankID != nil && *in.BankID <= 0 {
		return ErrMissingBank
	}
	return nil
}
