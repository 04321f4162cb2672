package service

import (
	"regexp"
	"strings"
	"testing"

	"order-lookup/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdmin() *AdminService {
	svc := NewAdminService("secret")
	svc.now = newFakeClock().Now
	return svc
}

func entryForm() EntryForm {
	return EntryForm{
		GroupName:        "咒術",
		CustomerNickname: "Kaguya",
		ItemName:         "五條悟",
		Price:            decimal.NewFromInt(350),
		Quantity:         2,
		DepositAmount:    decimal.NewFromInt(300),
		RemittanceDate:   "2024-10-03",
		PaymentMethod:    "轉帳",
	}
}

func TestAdmin_CheckPassword(t *testing.T) {
	svc := newTestAdmin()
	assert.NoError(t, svc.CheckPassword("secret"))
	assert.ErrorIs(t, svc.CheckPassword("nope"), ErrUnauthorized)

	assert.ErrorIs(t, NewAdminService("").CheckPassword(""), ErrAdminDisabled)
}

func TestAdmin_SubmitBuildsOrder(t *testing.T) {
	svc := newTestAdmin()

	entry, _, err := svc.Submit(entryForm())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^ORD-241003-[0-9A-Z]{3}$`), entry.ID)
	assert.True(t, entry.ProductTotal.Equal(decimal.NewFromInt(700)))
	assert.True(t, entry.BalanceDue.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, models.PaymentStatusPaid, entry.PaymentStatus)
	assert.Equal(t, "已登記", entry.LogisticsStatus)
	assert.Equal(t, AdminEntrySource, entry.Source)
	assert.Equal(t, 2, entry.TotalQuantity)
}

func TestAdmin_SubmitPendingWithoutDepositOrDate(t *testing.T) {
	svc := newTestAdmin()

	form := entryForm()
	form.DepositAmount = decimal.Zero
	entry, _, err := svc.Submit(form)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, entry.PaymentStatus)

	form = entryForm()
	form.RemittanceDate = ""
	entry, _, err = svc.Submit(form)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, entry.PaymentStatus)
	assert.Equal(t, "2024-10-03", entry.RemittanceDate)
}

func TestAdmin_SmartClear(t *testing.T) {
	svc := newTestAdmin()

	_, next, err := svc.Submit(entryForm())
	require.NoError(t, err)

	assert.Equal(t, "咒術", next.GroupName)
	assert.Equal(t, "2024-10-03", next.RemittanceDate)
	assert.Empty(t, next.CustomerNickname)
	assert.Empty(t, next.ItemName)
	assert.True(t, next.Price.IsZero())
	assert.True(t, next.DepositAmount.IsZero())
	assert.Equal(t, 1, next.Quantity)
	assert.Equal(t, "轉帳", next.PaymentMethod)

	require.NoError(t, svc.SetLock(LockCustomer, true))
	require.NoError(t, svc.SetLock(LockGroupName, false))

	_, next, err = svc.Submit(entryForm())
	require.NoError(t, err)
	assert.Equal(t, "Kaguya", next.CustomerNickname)
	assert.Empty(t, next.GroupName)
}

func TestAdmin_SetLockUnknownField(t *testing.T) {
	svc := newTestAdmin()
	assert.ErrorIs(t, svc.SetLock(LockField("price"), true), ErrUnknownLockField)
	assert.Len(t, svc.Locks(), 3)
}

func TestAdmin_SubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *EntryForm)
	}{
		{name: "missing nickname", mutate: func(f *EntryForm) { f.CustomerNickname = "  " }},
		{name: "missing item", mutate: func(f *EntryForm) { f.ItemName = "" }},
		{name: "zero quantity", mutate: func(f *EntryForm) { f.Quantity = 0 }},
		{name: "negative price", mutate: func(f *EntryForm) { f.Price = decimal.NewFromInt(-1) }},
		{name: "negative deposit", mutate: func(f *EntryForm) { f.DepositAmount = decimal.NewFromInt(-1) }},
		{name: "huge price exponent", mutate: func(f *EntryForm) { f.Price = decimal.New(1, 20000000) }},
		{name: "huge deposit exponent", mutate: func(f *EntryForm) { f.DepositAmount = decimal.New(1, -20000000) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAdmin()
			form := entryForm()
			tt.mutate(&form)

			_, _, err := svc.Submit(form)
			assert.ErrorIs(t, err, ErrInvalidEntry)
			assert.Empty(t, svc.Entries())
		})
	}
}

func TestAdmin_EntriesNewestFirstAndDelete(t *testing.T) {
	svc := newTestAdmin()

	first, _, err := svc.Submit(entryForm())
	require.NoError(t, err)
	form := entryForm()
	form.ItemName = "夏油傑"
	second, _, err := svc.Submit(form)
	require.NoError(t, err)

	entries := svc.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, first.ID, entries[1].ID)
	assert.NotEqual(t, first.ID, second.ID)

	require.NoError(t, svc.Delete(first.ID))
	assert.Len(t, svc.Entries(), 1)
	assert.ErrorIs(t, svc.Delete(first.ID), ErrEntryNotFound)
}

func TestAdmin_ExportTSV(t *testing.T) {
	svc := newTestAdmin()
	entry, _, err := svc.Submit(entryForm())
	require.NoError(t, err)

	out, err := svc.ExportTSV()
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID\t團名\t社群名稱\t商品\t單價\t數量\t總金額\t匯款金額\t餘款\t匯款日期\t付款方式", lines[0])
	assert.Equal(t, entry.ID+"\t咒術\tKaguya\t五條悟\t350\t2\t700\t300\t400\t2024-10-03\t轉帳", lines[1])
}

func TestAdmin_Draft(t *testing.T) {
	d := newTestAdmin().Draft()
	assert.Equal(t, 1, d.Quantity)
	assert.Equal(t, "2024-10-03", d.RemittanceDate)
	assert.Equal(t, "匯款", d.PaymentMethod)
}
