package service

import (
	"bytes"
	"crypto/subtle"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"order-lookup/internal/ingest"
	"order-lookup/internal/models"
	"order-lookup/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrAdminDisabled is returned when no admin password is configured
	ErrAdminDisabled = errors.New("admin console is disabled")
	// ErrUnauthorized is returned for a wrong admin password
	ErrUnauthorized = errors.New("invalid admin password")
	// ErrInvalidEntry is returned when an entry form is incomplete
	ErrInvalidEntry = errors.New("invalid entry")
	// ErrEntryNotFound is returned when deleting an unknown entry
	ErrEntryNotFound = errors.New("entry not found")
	// ErrUnknownLockField is returned for fields that cannot be locked
	ErrUnknownLockField = errors.New("field cannot be locked")
)

// AdminEntrySource marks orders keyed in through the admin console
const AdminEntrySource = "後台快速輸入"

const (
	defaultPaymentMethod = "匯款"
	idAlphabet           = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	idSuffixLength       = 3
)

var exportHeader = []string{"ID", "團名", "社群名稱", "商品", "單價", "數量", "總金額", "匯款金額", "餘款", "匯款日期", "付款方式"}

// LockField is a form field that can survive between entries
type LockField string

// Lockable fields
const (
	LockGroupName      LockField = "group_name"
	LockCustomer       LockField = "customer_nickname"
	LockRemittanceDate LockField = "remittance_date"
)

// EntryForm is one rapid-entry submission
type EntryForm struct {
	GroupName        string          `json:"group_name"`
	CustomerNickname string          `json:"customer_nickname"`
	ItemName         string          `json:"item_name"`
	Price            decimal.Decimal `json:"price"`
	Quantity         int             `json:"quantity"`
	DepositAmount    decimal.Decimal `json:"deposit_amount"`
	RemittanceDate   string          `json:"remittance_date"`
	PaymentMethod    string          `json:"payment_method"`
}

// AdminEntry is an order created from the console
type AdminEntry struct {
	models.Order
	UnitPrice      decimal.Decimal `json:"unit_price"`
	RemittanceDate string          `json:"remittance_date"`
}

// AdminService is the in-memory rapid entry console
type AdminService struct {
	password string

	mu      sync.Mutex
	entries []AdminEntry
	locks   map[LockField]bool
	now     func() time.Time
	logger  *zap.Logger
}

// NewAdminService creates a new admin console. An empty password disables it.
func NewAdminService(password string) *AdminService {
	return &AdminService{
		password: password,
		locks: map[LockField]bool{
			LockGroupName:      true,
			LockCustomer:       false,
			LockRemittanceDate: true,
		},
		now:    time.Now,
		logger: util.GetLogger(),
	}
}

// CheckPassword verifies the admin password
func (s *AdminService) CheckPassword(password string) error {
	if s.password == "" {
		return ErrAdminDisabled
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Draft returns an empty form with today's date and the default payment method
func (s *AdminService) Draft() EntryForm {
	return EntryForm{
		Quantity:       1,
		RemittanceDate: s.now().Format("2006-01-02"),
		PaymentMethod:  defaultPaymentMethod,
	}
}

// Submit records an entry and returns it with the next draft.
// Locked fields carry over; item, price and deposit are cleared and quantity resets to 1.
func (s *AdminService) Submit(form EntryForm) (*AdminEntry, EntryForm, error) {
	form.GroupName = strings.TrimSpace(form.GroupName)
	form.CustomerNickname = strings.TrimSpace(form.CustomerNickname)
	form.ItemName = strings.TrimSpace(form.ItemName)

	if err := validateEntry(form); err != nil {
		return nil, form, err
	}
	if form.PaymentMethod == "" {
		form.PaymentMethod = defaultPaymentMethod
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.buildEntry(form)
	s.entries = append([]AdminEntry{entry}, s.entries...)

	util.AdminEntriesTotal.Inc()
	s.logger.Info("Admin entry created",
		zap.String("id", entry.ID),
		zap.String("item", entry.FirstItemName()),
	)

	return &entry, s.nextDraft(form), nil
}

func validateEntry(form EntryForm) error {
	switch {
	case form.CustomerNickname == "":
		return fmt.Errorf("%w: customer nickname is required", ErrInvalidEntry)
	case form.ItemName == "":
		return fmt.Errorf("%w: item name is required", ErrInvalidEntry)
	case form.Quantity < 1:
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidEntry)
	case !ingest.MoneyInRange(form.Price), !ingest.MoneyInRange(form.DepositAmount):
		return fmt.Errorf("%w: amount out of range", ErrInvalidEntry)
	case form.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrInvalidEntry)
	case form.DepositAmount.IsNegative():
		return fmt.Errorf("%w: deposit must not be negative", ErrInvalidEntry)
	}
	return nil
}

func (s *AdminService) buildEntry(form EntryForm) AdminEntry {
	total := form.Price.Mul(decimal.NewFromInt(int64(form.Quantity)))
	balance := total.Sub(form.DepositAmount)

	status := models.PaymentStatusPending
	if form.DepositAmount.IsPositive() && form.RemittanceDate != "" {
		status = models.PaymentStatusPaid
	}

	date := form.RemittanceDate
	if date == "" {
		date = s.now().Format("2006-01-02")
	}

	return AdminEntry{
		Order: models.Order{
			ID:               s.newID(),
			Source:           AdminEntrySource,
			CustomerNickname: form.CustomerNickname,
			GroupName:        form.GroupName,
			Items:            []models.OrderItem{{Name: form.ItemName, LineTotal: form.Price, Quantity: form.Quantity}},
			TotalQuantity:    form.Quantity,
			ProductTotal:     total,
			DepositAmount:    form.DepositAmount,
			BalanceDue:       balance,
			PaymentStatus:    status,
			LogisticsStatus:  models.CargoStatusOptions[0],
			PaymentMethod:    form.PaymentMethod,
		},
		UnitPrice:      form.Price,
		RemittanceDate: date,
	}
}

func (s *AdminService) nextDraft(form EntryForm) EntryForm {
	next := EntryForm{
		Quantity:      1,
		PaymentMethod: form.PaymentMethod,
	}
	if s.locks[LockGroupName] {
		next.GroupName = form.GroupName
	}
	if s.locks[LockCustomer] {
		next.CustomerNickname = form.CustomerNickname
	}
	if s.locks[LockRemittanceDate] {
		next.RemittanceDate = form.RemittanceDate
	}
	return next
}

// newID returns ORD-YYMMDD-XXX, unique among current entries
func (s *AdminService) newID() string {
	prefix := "ORD-" + s.now().Format("060102") + "-"
	for {
		u := uuid.New()
		var suffix [idSuffixLength]byte
		for i := range suffix {
			suffix[i] = idAlphabet[int(u[i])%len(idAlphabet)]
		}
		id := prefix + string(suffix[:])
		if !s.hasEntry(id) {
			return id
		}
	}
}

func (s *AdminService) hasEntry(id string) bool {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return true
		}
	}
	return false
}

// Entries returns the entries, newest first
func (s *AdminService) Entries() []AdminEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]AdminEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Delete removes an entry
func (s *AdminService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return ErrEntryNotFound
}

// SetLock pins or unpins a field
func (s *AdminService) SetLock(field LockField, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.locks[field]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLockField, field)
	}
	s.locks[field] = locked
	return nil
}

// Locks returns the current lock state
func (s *AdminService) Locks() map[LockField]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[LockField]bool, len(s.locks))
	for k, v := range s.locks {
		out[k] = v
	}
	return out
}

// ExportTSV renders the entries as tab-separated rows for pasting into the sheet
func (s *AdminService) ExportTSV() (string, error) {
	entries := s.Entries()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = '\t'

	if err := w.Write(exportHeader); err != nil {
		return "", err
	}
	for i := range entries {
		e := &entries[i]
		price := e.UnitPrice
		if price.IsZero() {
			price = e.ProductTotal
		}
		record := []string{
			e.ID,
			e.GroupName,
			e.CustomerNickname,
			e.FirstItemName(),
			price.String(),
			strconv.Itoa(e.TotalQuantity),
			e.ProductTotal.String(),
			e.DepositAmount.String(),
			e.BalanceDue.String(),
			e.RemittanceDate,
			e.PaymentMethod,
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
