package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accountdomain "github.com/lekhabooks/lekha/internal/account/domain"
	accountrepo "github.com/lekhabooks/lekha/internal/account/repository"
	billdomain "github.com/lekhabooks/lekha/internal/billwise/domain"
	billrepo "github.com/lekhabooks/lekha/internal/billwise/repository"
	billservice "github.com/lekhabooks/lekha/internal/billwise/service"
	"github.com/lekhabooks/lekha/internal/config"
	"github.com/lekhabooks/lekha/internal/observability/metrics"
	"github.com/lekhabooks/lekha/internal/sequence"
	taxdomain "github.com/lekhabooks/lekha/internal/tax/domain"
	taxrepo "github.com/lekhabooks/lekha/internal/tax/repository"
	"github.com/lekhabooks/lekha/internal/voucher/domain"
	"github.com/lekhabooks/lekha/internal/voucher/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	// a single pooled connection keeps every session on the same in-memory
	// database and serializes sqlite writes
	sqlDB.SetMaxOpenConns(1)

	// sqlite has no row locks; strip the clause so the shared SQL still runs.
	// Raw(...).Scan(...) goes through the row processor, so both hooks are
	// needed.
	stripForUpdate := func(d *gorm.DB) {
		sql := d.Statement.SQL.String()
		if strings.Contains(sql, "FOR UPDATE") {
			d.Statement.SQL.Reset()
			d.Statement.SQL.WriteString(strings.ReplaceAll(sql, "FOR UPDATE", ""))
		}
	}
	err = conn.Callback().Query().Before("gorm:query").Register("sqlite_strip_for_update", stripForUpdate)
	require.NoError(t, err)
	err = conn.Callback().Row().Before("gorm:row").Register("sqlite_strip_for_update_row", stripForUpdate)
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&accountdomain.AccountGroup{},
		&accountdomain.Ledger{},
		&taxdomain.TaxRate{},
		&domain.Voucher{},
		&domain.VoucherItem{},
		&domain.VoucherLedgerEntry{},
		&domain.TDSDetail{},
		&billdomain.BillWiseDetail{},
		&billdomain.BillAllocation{},
	))
	return conn
}

func newTestService(t *testing.T, cfg config.Config) (*Service, *snowflake.Node) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := NewService(Params{
		Log:      zap.NewNop(),
		Cfg:      cfg,
		GenID:    node,
		Repo:     repository.Provide(),
		Accounts: accountrepo.Provide(),
		Rates:    taxrepo.Provide(),
		Bills:    billrepo.Provide(),
		Seq:      sequence.New(zap.NewNop()),
		Metrics:  metrics.NewNop(),
	}).(*Service)
	return svc, node
}

func defaultConfig() config.Config {
	return config.Config{
		CreditPeriodDays:    30,
		CancellationPolicy:  config.CancelDisallow,
		SequenceMaxAttempts: 5,
	}
}

// fixture holds a seeded tenant with a party ledger and the system ledgers
// the posting engine resolves by code.
type fixture struct {
	tenantID snowflake.ID
	partyID  snowflake.ID
	cashID   snowflake.ID
	bankID   snowflake.ID
	byCode   map[accountdomain.LedgerCode]snowflake.ID
}

func seedAccounts(t *testing.T, conn *gorm.DB, node *snowflake.Node, billWise bool) fixture {
	t.Helper()
	tenantID := node.Generate()

	group := accountdomain.AccountGroup{
		ID: node.Generate(), TenantID: tenantID, Name: "Primary", Nature: accountdomain.NatureAsset,
	}
	require.NoError(t, conn.Create(&group).Error)

	f := fixture{tenantID: tenantID, byCode: map[accountdomain.LedgerCode]snowflake.ID{}}

	for _, code := range []accountdomain.LedgerCode{
		accountdomain.LedgerCodeCash,
		accountdomain.LedgerCodeBank,
		accountdomain.LedgerCodeSales,
		accountdomain.LedgerCodePurchases,
		accountdomain.LedgerCodeCGSTOutput,
		accountdomain.LedgerCodeSGSTOutput,
		accountdomain.LedgerCodeIGSTOutput,
		accountdomain.LedgerCodeCessOutput,
		accountdomain.LedgerCodeCGSTInput,
		accountdomain.LedgerCodeSGSTInput,
		accountdomain.LedgerCodeIGSTInput,
		accountdomain.LedgerCodeCessInput,
		accountdomain.LedgerCodeTDSPayable,
	} {
		ledger := accountdomain.Ledger{
			ID:       node.Generate(),
			TenantID: tenantID,
			Code:     string(code),
			Name:     string(code),
			GroupID:  group.ID,
		}
		require.NoError(t, conn.Create(&ledger).Error)
		f.byCode[code] = ledger.ID
	}
	f.cashID = f.byCode[accountdomain.LedgerCodeCash]
	f.bankID = f.byCode[accountdomain.LedgerCodeBank]

	party := accountdomain.Ledger{
		ID:       node.Generate(),
		TenantID: tenantID,
		Code:     "party1",
		Name:     "Acme Traders",
		GroupID:  group.ID,
		State:    "MH",
		BillWise: billWise,
	}
	require.NoError(t, conn.Create(&party).Error)
	f.partyID = party.ID
	return f
}

func entriesByLedger(entries []domain.VoucherLedgerEntry) map[snowflake.ID]domain.VoucherLedgerEntry {
	out := make(map[snowflake.ID]domain.VoucherLedgerEntry, len(entries))
	for _, e := range entries {
		out[e.LedgerID] = e
	}
	return out
}

func TestPost_SaleIntrastate(t *testing.T) {
	conn := newTestDB(t)
	svc, node := newTestService(t, defaultConfig())
	f := seedAccounts(t, conn, node, true)
	ctx := context.Background()

	date := time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC)
	voucher, err := svc.Post(ctx, conn, domain.PostRequest{
		TenantID:      f.tenantID,
		Type:          domain.TypeSale,
		Date:          date,
		PartyLedgerID: f.partyID,
		SupplierState: "MH",
		PlaceOfSupply: "MH",
		Items: []domain.ItemInput{
			{Description: "Widgets", Quantity: decimal.NewFromInt(10), Rate: decimal.NewFromInt(100)},
		},
		Actor: "tester",
	})
	require.NoError(t, err)
	require.NotNil(t, voucher.Number)
	assert.Equal(t, "SAL001", *voucher.Number)
	assert.Equal(t, domain.StatusPosted, voucher.Status)
	assert.True(t, voucher.TotalAmount.Equal(decimal.NewFromInt(1180)), "total %s", voucher.TotalAmount)

	full, err := svc.Get(ctx, conn, f.tenantID, voucher.ID)
	require.NoError(t, err)
	require.Len(t, full.Items, 1)
	item := full.Items[0]
	assert.True(t, item.TaxableAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, item.CGSTAmount.Equal(decimal.NewFromInt(90)))
	assert.True(t, item.SGSTAmount.Equal(decimal.NewFromInt(90)))
	assert.True(t, item.IGSTAmount.IsZero())

	require.Len(t, full.Entries, 4)
	require.NoError(t, domain.ValidateBalanced(full.Entries))
	byLedger := entriesByLedger(full.Entries)
	assert.True(t, byLedger[f.partyID].Debit.Equal(decimal.NewFromInt(1180)))
	assert.True(t, byLedger[f.byCode[accountdomain.LedgerCodeSales]].Credit.Equal(decimal.NewFromInt(1000)))
	assert.True(t, byLedger[f.byCode[accountdomain.LedgerCodeCGSTOutput]].Credit.Equal(decimal.NewFromInt(90)))
	assert.True(t, byLedger[f.byCode[accountdomain.LedgerCodeSGSTOutput]].Credit.Equal(decimal.NewFromInt(90)))

	// credit sale against a bill-wise party opens a bill for the gross
	var bill billdomain.BillWiseDetail
	require.NoError(t, conn.Where("tenant_id = ? AND voucher_id = ?", f.tenantID, voucher.ID).First(&bill).Error)
	assert.Equal(t, "SAL001", bill.BillNumber)
	assert.True(t, bill.PendingAmount.Equal(decimal.NewFromInt(1180)))
	assert.Equal(t, date.AddDate(0, 0, 30), bill.DueDate)
	assert.False(t, bill.IsFullyPaid)
}

func TestPost_SaleInterstate(t *testing.T) {
	conn := newTestDB(t)
	svc, node := newTestService(t, defaultConfig())
	f := seedAccounts(t, conn, node, false)
	ctx := context.Background()

	voucher, err := svc.Post(ctx, conn, domain.PostRequest{
		TenantID:      f.tenantID,
		Type:          domain.TypeSale,
		Date:          time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC),
		PartyLedgerID: f.partyID,
		SupplierState: "MH",
		PlaceOfSupply: "DL",
		Items: []domain.ItemInput{
			{Description: "Widgets", Quantity: decimal.NewFromInt(10), Rate: decimal.NewFromInt(100)},
		},
	})
	require.NoError(t, err)

	full, err := svc.Get(ctx, conn, f.tenantID, voucher.ID)
	require.NoError(t, err)
	require.Len(t, full.Items, 1)
	assert.True(t, full.Items[0].IGSTAmount.Equal(decimal.NewFromInt(180)))
	assert.True(t, full.Items[0].CGSTAmount.IsZero())

	byLedger := entriesByLedger(full.Entries)
	assert.True(t, byLedger[f.byCode[accountdomain.LedgerCodeIGSTOutput]].Credit.Equal(decimal.NewFromInt(180)))

	// no bill for a non-bill-wise party
	var count int64
	require.NoError(t, conn.Model(&billdomain.BillWiseDetail{}).Where("tenant_id = ?", f.tenantID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPost_PlaceOfSupplyDefaultsToPartyState(t *testing.T) {
	conn := newTestDB(t)
	svc, node := newTestService(t, defaultConfig())
	f := seedAccounts(t, conn, node, false)

	// party is registered in MH; leaving place of supply empty makes the
	// MH supplier intrastate
	voucher, err := svc.Post(context.Background(), conn, domain.PostRequest{
		TenantID:      f.tenantID,
		Type:          domain.TypeSale,
		Date:          time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC),
		PartyLedgerID: f.partyID,
		SupplierState: "MH",
		Items: []domain.ItemInput{
			{Description: "Widgets", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(100)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "MH", voucher.PlaceOfSupply)

	full, err := svc.Get(context.Background(), conn, f.tenantID, voucher.ID)
	require.NoError(t, err)
	assert.True(t, full.Items[0].CGSTAmount.Equal(decimal.NewFromInt(9)))
	assert.True(t, full.Items[0].IGSTAmount.IsZero())
}

func TestPost_PurchaseWithTDS(t *testing.T) {
	conn := newTestDB(t)
	svc, node := newTestService(t, defaultConfig())
	f := seedAccounts(t, conn, node, true)
	ctx := context.Background()

	date := time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC)
	voucher, err := svc.Post(ctx, conn, domain.PostRequest{
		TenantID:      f.tenantID,
		Type:          domain.TypePurchase,
		Date:          date,
		PartyLedgerID: f.partyID,
		SupplierState: "MH",
		PlaceOfSupply: "MH",
		Items: []domain.ItemInput{
			{Description: "Contract work", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(1000)},
		},
		TDS: &domain.TDSInput{Section: "194C", Rate: decimal.NewFromInt(10)},
	})
	require.NoError(t, err)

	full, err := svc.Get(ctx, conn, f.tenantID, voucher.ID)
	require.NoError(t, err)
	require.NoError(t, domain.ValidateBalanced(full.Entries))

	// gross 1180, deducted 118, payable to party 1062
	byLedger := entriesByLedger(full.Entries)
	assert.True(t, byLedger[f.byCode[accountdomain.LedgerCodePurchases]].Debit.Equal(decimal.NewFromInt(1000)))
	assert.True(t, byLedger[f.byCode[accountdomain.LedgerCodeCGSTInput]].Debit.Equal(decimal.NewFromInt(90)))
	assert.True(t, byLedger[f.byCode[accountdomain.LedgerCodeSGSTInput]].Debit.Equal(decimal.NewFromInt(90)))
	assert.True(t, byLedger[f.partyID].Credit.Equal(decimal.NewFromInt(1062)))
	assert.True(t, byLedger[f.byCode[accountdomain.LedgerCodeTDSPayable]].Credit.Equal(decimal.NewFromInt(118)))

	require.Len(t, full.TDS, 1)
	detail := full.TDS[0]
	assert.Equal(t, "194C", detail.Section)
	assert.True(t, detail.TDSAmount.Equal(decimal.NewFromInt(118)))
	assert.True(t, detail.NetAmount.Equal(decimal.NewFromInt(1062)))
	assert.Equal(t, "Q2", detail.Quarter)
	assert.Equal(t, "2025-26", detail.FinancialYear)

	// the bill tracks what is actually owed to the supplier
	var bill billdomain.BillWiseDetail
	require.NoError(t, conn.Where("tenant_id = ? AND voucher_id = ?", f.tenantID, voucher.ID).First(&bill).Error)
	assert.True(t, bill.BillAmount.Equal(decimal.NewFromInt(1062)))
}

func TestPost_TDSOnlyOnPurchaseAndPayment(t *testing.T) {
	conn := newTestDB(t)
	svc, node := newTestService(t, defaultConfig())
	f := seedAccounts(t, conn, node, false)

	_, err := svc.Post(context.Background(), conn, domain.PostRequest{
		TenantID:      f.tenantID,
		Type:          domain.TypeSale,
		Date:          time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC),
		PartyLedgerID: f.partyID,
		SupplierState: "MH",
		PlaceOfSupply: "MH",
		Items: []domain.ItemInput{
			{Description: "Widgets", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(100)},
		},
		TDS: &domain.TDSInput{Section: "194C", Rate: decimal.NewFromInt(10)},
	})
	assert.ErrorIs(t, err, domain.ErrTDSNotApplicable)
}

func TestPost_ConfiguredRateTable(t *testing.T) {
	conn := newTestDB(t)
	svc, node := newTestService(t, defaultConfig())
	f := seedAccounts(t, conn, node, false)
	ctx := context.Background()

	require.NoError(t, taxrepo.Provide().Upsert(ctx, conn, &taxdomain.TaxRate{
		ID:       node.Generate(),
		TenantID: f.tenantID,
		HSNCode:  "2106",
		GSTRate:  decimal.NewFromInt(28),
		CessRate: decimal.NewFromInt(12),
	}))

	voucher, err := svc.Post(ctx, conn, domain.PostRequest{
		TenantID:      f.tenantID,
		Type:          domain.TypeSale,
		Date:          time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC),
		PartyLedgerID: f.partyID,
		SupplierState: "MH",
		PlaceOfSupply: "DL",
		Items: []domain.ItemInput{
			{Description: "Pan masala", HSNCode: "2106", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(1000)},
		},
	})
	require.NoError(t, err)

	full, err := svc.Get(ctx, conn, f.tenantID, voucher.ID)
	require.NoError(t, err)
	item := full.Items[0]
	assert.True(t, item.IGSTAmount.Equal(decimal.NewFromInt(280)))
	assert.True(t, item.CessAmount.Equal(decimal.NewFromInt(120)))
	assert.True(t, item.TotalAmount.Equal(decimal.NewFromInt(1400)))

	byLedger := entriesByLedger(full.Entries)
	assert.True(t, byLedger[f.byCode[accountdomain.LedgerCodeCessOutput]].Credit.Equal(decimal.NewFromInt(120)))
}

func TestPost_ReceiptSettlement(t *testing.T) {
	conn := newTestDB(t)
	svc, node := newTestService(t, defaultConfig())
	f := seedAccounts(t, conn, node, true)
	ctx := context.Background()

	voucher, err := svc.Post(ctx, conn, domain.PostRequest{
		TenantID:        f.tenantID,
		Type:            domain.TypeReceipt,
		Date:            time.Date(2025, time.August, 20, 0, 0, 0, 0, time.UTC),
		PartyLedgerID:   f.partyID,
		CounterLedgerID: f.cashID,
		Amount:          decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	require.NotNil(t, voucher.Number)
	assert.Equal(t, "RCT001", *voucher.Number)

	full, err := svc.Get(ctx, conn, f.tenantID, voucher.ID)
	require.NoError(t, err)
	require.Len(t, full.Entries, 2)
	byLedger := entriesByLedger(full.Entries)
	assert.True(t, byLedger[f.cashID].Debit.Equal(decimal.NewFromInt(500)))
	assert.True(t, byLedger[f.partyID].Credit.Equal(decimal.NewFromInt(500)))

	// settlements never open bills
	var count int64
	require.NoError(t, conn.Model(&billdomain.BillWiseDetail{}).Where("tenant_id = ?", f.tenantID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPost_UnbalancedJournalRejected(t *testing.T) {
	conn := newTestDB(t)
	svc, node := newTestService(t, defaultConfig())
	f := seedAccounts(t, conn, node, false)

	_, err := svc.Post(context.Background(), conn, domain.PostRequest{
		TenantID: f.tenantID,
		Type:     domain.TypeJournal,
		Date:     time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC),
		Entries: []domain.EntryInput{
			{LedgerID: f.cashID, Debit: decimal.NewFromInt(1000)},
			{LedgerID: f.bankID, Credit: decimal.NewFromInt(950)},
		},
	})
	require.ErrorIs(t, err, domain.ErrUnbalancedVoucher)

	// nothing persisted
	var count int64
	require.NoError(t, conn.Model(&domain.Voucher{}).Where("tenant_id = ?", f.tenantID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, conn.Model(&domain.VoucherLedgerEntry{}).Where("tenant_id = ?", f.tenantID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPost_SequentialNumbersPerType(t *testing.T) {
	conn := newTestDB(t)
	svc, node := newTestService(t, defaultConfig())
	f := seedAccounts(t, conn, node, false)
	ctx := context.Background()

	post := func(typ domain.VoucherType) string {
		req := domain.PostRequest{
			TenantID:      f.tenantID,
			Type:          typ,
			Date:          time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC),
			PartyLedgerID: f.partyID,
			SupplierState: "MH",
			PlaceOfSupply: "MH",
			Items: []domain.ItemInput{
				{Description: "Widgets", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(100)},
			},
		}
		voucher, err := svc.Post(ctx, conn, req)
		require.NoError(t, err)
		require.NotNil(t, voucher.Number)
		return *voucher.Number
	}

	assert.Equal(t, "SAL001", post(domain.TypeSale))
	assert.Equal(t, "SAL002", post(domain.TypeSale))
	// each type numbers independently
	assert.Equal(t, "PUR001", post(domain.TypePurchase))
	assert.Equal(t, "SAL003", post(domain.TypeSale))
}

func TestSaveDraft_ThenPost(t *testing.T) {
	conn := newTestDB(t)
	svc, node := newTestService(t, defaultConfig())
	f := seedAccounts(t, conn, node, false)
	ctx := context.Background()

	req := domain.PostRequest{
		TenantID:      f.tenantID,
		Type:          domain.TypeSale,
		Date:          time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC),
		PartyLedgerID: f.partyID,
		SupplierState: "MH",
		PlaceOfSupply: "MH",
		Items: []domain.ItemInput{
			{Description: "Widgets", Quantity: decimal.NewFromInt(10), Rate: decimal.NewFromInt(100)},
		},
	}

	draft, err := svc.SaveDraft(ctx, conn, req)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, draft.Status)
	assert.Nil(t, draft.Number)

	req.DraftID = draft.ID
	posted, err := svc.Post(ctx, conn, req)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, posted.ID)
	require.NotNil(t, posted.Number)
	assert.Equal(t, "SAL001", *posted.Number)

	// draft items were replaced by the taxed set
	full, err := svc.Get(ctx, conn, f.tenantID, posted.ID)
	require.NoError(t, err)
	require.Len(t, full.Items, 1)
	assert.True(t, full.Items[0].CGSTAmount.Equal(decimal.NewFromInt(90)))
}

func TestPost_ConsumedDraftRejected(t *testing.T) {
	conn := newTestDB(t)
	svc, node := newTestService(t, defaultConfig())
	f := seedAccounts(t, conn, node, false)
	ctx := context.Background()

	req := domain.PostRequest{
		TenantID:      f.tenantID,
		Type:          domain.TypeSale,
		Date:          time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC),
		PartyLedgerID: f.partyID,
		SupplierState: "MH",
		PlaceOfSupply: "MH",
		Items: []domain.ItemInput{
			{Description: "Widgets", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(100)},
		},
	}
	draft, err := svc.SaveDraft(ctx, conn, req)
	require.NoError(t, err)

	req.DraftID = draft.ID
	_, err = svc.Post(ctx, conn, req)
	require.NoError(t, err)

	_, err = svc.Post(ctx, conn, req)
	assert.ErrorIs(t, err, domain.ErrNotDraft)
}

func TestCancel_Draft(t *testing.T) {
	conn := newTestDB(t)
	svc, node := newTestService(t, defaultConfig())
	f := seedAccounts(t, conn, node, false)
	ctx := context.Background()

	draft, err := svc.SaveDraft(ctx, conn, domain.PostRequest{
		TenantID:      f.tenantID,
		Type:          domain.TypeSale,
		Date:          time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC),
		PartyLedgerID: f.partyID,
		Items: []domain.ItemInput{
			{Description: "Widgets", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(100)},
		},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, conn, domain.CancelRequest{
		TenantID: f.tenantID, VoucherID: draft.ID, Actor: "tester",
	}))

	full, err := svc.Get(ctx, conn, f.tenantID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, full.Voucher.Status)

	// cancelled is terminal
	err = svc.Cancel(ctx, conn, domain.CancelRequest{TenantID: f.tenantID, VoucherID: draft.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancel_PostedDisallowedByDefault(t *testing.T) {
	conn := newTestDB(t)
	svc, node := newTestService(t, defaultConfig())
	f := seedAccounts(t, conn, node, false)
	ctx := context.Background()

	voucher, err := svc.Post(ctx, conn, domain.PostRequest{
		TenantID:      f.tenantID,
		Type:          domain.TypeSale,
		Date:          time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC),
		PartyLedgerID: f.partyID,
		SupplierState: "MH",
		PlaceOfSupply: "MH",
		Items: []domain.ItemInput{
			{Description: "Widgets", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(100)},
		},
	})
	require.NoError(t, err)

	err = svc.Cancel(ctx, conn, domain.CancelRequest{TenantID: f.tenantID, VoucherID: voucher.ID})
	assert.ErrorIs(t, err, domain.ErrCancelNotAllowed)
}

func TestCancel_PostedReversed(t *testing.T) {
	conn := newTestDB(t)
	cfg := defaultConfig()
	cfg.CancellationPolicy = config.CancelReverse
	svc, node := newTestService(t, cfg)
	f := seedAccounts(t, conn, node, true)
	ctx := context.Background()

	voucher, err := svc.Post(ctx, conn, domain.PostRequest{
		TenantID:      f.tenantID,
		Type:          domain.TypeSale,
		Date:          time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC),
		PartyLedgerID: f.partyID,
		SupplierState: "MH",
		PlaceOfSupply: "MH",
		Items: []domain.ItemInput{
			{Description: "Widgets", Quantity: decimal.NewFromInt(10), Rate: decimal.NewFromInt(100)},
		},
		Actor: "tester",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, conn, domain.CancelRequest{
		TenantID: f.tenantID, VoucherID: voucher.ID, Actor: "tester",
	}))

	full, err := svc.Get(ctx, conn, f.tenantID, voucher.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, full.Voucher.Status)

	// a mirrored journal compensates the cancelled voucher
	var reversal domain.Voucher
	require.NoError(t, conn.Where("tenant_id = ? AND reversal_of_id = ?", f.tenantID, voucher.ID).First(&reversal).Error)
	assert.Equal(t, domain.TypeJournal, reversal.Type)
	assert.Equal(t, domain.StatusPosted, reversal.Status)
	require.NotNil(t, reversal.Number)
	assert.Equal(t, "JRN001", *reversal.Number)

	original := entriesByLedger(full.Entries)
	mirrored, err := svc.Get(ctx, conn, f.tenantID, reversal.ID)
	require.NoError(t, err)
	require.Len(t, mirrored.Entries, len(full.Entries))
	for _, entry := range mirrored.Entries {
		assert.True(t, entry.Debit.Equal(original[entry.LedgerID].Credit))
		assert.True(t, entry.Credit.Equal(original[entry.LedgerID].Debit))
	}

	// the untouched bill goes with its voucher
	var count int64
	require.NoError(t, conn.Model(&billdomain.BillWiseDetail{}).Where("tenant_id = ? AND voucher_id = ?", f.tenantID, voucher.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCancel_PostedWithAllocationsRefused(t *testing.T) {
	conn := newTestDB(t)
	cfg := defaultConfig()
	cfg.CancellationPolicy = config.CancelReverse
	svc, node := newTestService(t, cfg)
	f := seedAccounts(t, conn, node, true)
	ctx := context.Background()

	voucher, err := svc.Post(ctx, conn, domain.PostRequest{
		TenantID:      f.tenantID,
		Type:          domain.TypeSale,
		Date:          time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC),
		PartyLedgerID: f.partyID,
		SupplierState: "MH",
		PlaceOfSupply: "MH",
		Items: []domain.ItemInput{
			{Description: "Widgets", Quantity: decimal.NewFromInt(10), Rate: decimal.NewFromInt(100)},
		},
	})
	require.NoError(t, err)

	var bill billdomain.BillWiseDetail
	require.NoError(t, conn.Where("tenant_id = ? AND voucher_id = ?", f.tenantID, voucher.ID).First(&bill).Error)
	require.NoError(t, conn.Create(&billdomain.BillAllocation{
		ID:               node.Generate(),
		TenantID:         f.tenantID,
		PaymentVoucherID: node.Generate(),
		BillID:           bill.ID,
		Amount:           decimal.NewFromInt(100),
	}).Error)

	err = svc.Cancel(ctx, conn, domain.CancelRequest{TenantID: f.tenantID, VoucherID: voucher.ID})
	assert.ErrorIs(t, err, billdomain.ErrBillAllocated)

	full, err := svc.Get(ctx, conn, f.tenantID, voucher.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPosted, full.Voucher.Status)
}

func TestCancel_SettlementWithAllocationsRefused(t *testing.T) {
	conn := newTestDB(t)
	cfg := defaultConfig()
	cfg.CancellationPolicy = config.CancelReverse
	svc, node := newTestService(t, cfg)
	bills := billservice.NewService(billservice.Params{
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     billrepo.Provide(),
		Vouchers: repository.Provide(),
		Metrics:  metrics.NewNop(),
	})
	f := seedAccounts(t, conn, node, true)
	ctx := context.Background()

	sale, err := svc.Post(ctx, conn, domain.PostRequest{
		TenantID:      f.tenantID,
		Type:          domain.TypeSale,
		Date:          time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC),
		PartyLedgerID: f.partyID,
		SupplierState: "MH",
		PlaceOfSupply: "MH",
		Items: []domain.ItemInput{
			{Description: "Widgets", Quantity: decimal.NewFromInt(10), Rate: decimal.NewFromInt(100)},
		},
	})
	require.NoError(t, err)

	var bill billdomain.BillWiseDetail
	require.NoError(t, conn.Where("tenant_id = ? AND voucher_id = ?", f.tenantID, sale.ID).First(&bill).Error)

	receipt, err := svc.Post(ctx, conn, domain.PostRequest{
		TenantID:        f.tenantID,
		Type:            domain.TypeReceipt,
		Date:            time.Date(2025, time.August, 20, 0, 0, 0, 0, time.UTC),
		PartyLedgerID:   f.partyID,
		CounterLedgerID: f.cashID,
		Amount:          decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	require.NoError(t, bills.Allocate(ctx, conn, billdomain.AllocateRequest{
		TenantID:         f.tenantID,
		PaymentVoucherID: receipt.ID,
		Allocations: []billdomain.AllocationInput{
			{BillID: bill.ID, Amount: decimal.NewFromInt(500)},
		},
	}))

	// the receipt now backs applied allocations, so it cannot reverse
	err = svc.Cancel(ctx, conn, domain.CancelRequest{TenantID: f.tenantID, VoucherID: receipt.ID})
	assert.ErrorIs(t, err, billdomain.ErrBillAllocated)

	full, err := svc.Get(ctx, conn, f.tenantID, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPosted, full.Voucher.Status)

	// the settlement stays applied and the bill keeps its reduced pending
	var count int64
	require.NoError(t, conn.Model(&billdomain.BillAllocation{}).
		Where("tenant_id = ? AND payment_voucher_id = ?", f.tenantID, receipt.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	require.NoError(t, conn.Where("tenant_id = ? AND id = ?", f.tenantID, bill.ID).First(&bill).Error)
	assert.True(t, bill.PendingAmount.Equal(decimal.NewFromInt(680)), "pending %s", bill.PendingAmount)
}

func TestPost_TenantIsolation(t *testing.T) {
	conn := newTestDB(t)
	svc, node := newTestService(t, defaultConfig())
	f1 := seedAccounts(t, conn, node, false)
	f2 := seedAccounts(t, conn, node, false)
	ctx := context.Background()

	post := func(f fixture) string {
		voucher, err := svc.Post(ctx, conn, domain.PostRequest{
			TenantID:      f.tenantID,
			Type:          domain.TypeSale,
			Date:          time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC),
			PartyLedgerID: f.partyID,
			SupplierState: "MH",
			PlaceOfSupply: "MH",
			Items: []domain.ItemInput{
				{Description: "Widgets", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(100)},
			},
		})
		require.NoError(t, err)
		return *voucher.Number
	}

	// sequences never bleed across tenants
	assert.Equal(t, "SAL001", post(f1))
	assert.Equal(t, "SAL001", post(f2))
	assert.Equal(t, "SAL002", post(f1))

	// a tenant cannot read another tenant's voucher
	var other domain.Voucher
	require.NoError(t, conn.Where("tenant_id = ?", f2.tenantID).First(&other).Error)
	_, err := svc.Get(ctx, conn, f1.tenantID, other.ID)
	assert.ErrorIs(t, err, domain.ErrVoucherNotFound)
}

func TestValidatePost_Requirements(t *testing.T) {
	conn := newTestDB(t)
	svc, node := newTestService(t, defaultConfig())
	f := seedAccounts(t, conn, node, false)
	ctx := context.Background()
	date := time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		req  domain.PostRequest
		want error
	}{
		{"missing tenant", domain.PostRequest{Type: domain.TypeSale, Date: date}, domain.ErrInvalidTenant},
		{"unknown type", domain.PostRequest{TenantID: f.tenantID, Type: "refund", Date: date}, domain.ErrInvalidType},
		{"zero date", domain.PostRequest{TenantID: f.tenantID, Type: domain.TypeSale}, domain.ErrInvalidDate},
		{"trade without party", domain.PostRequest{TenantID: f.tenantID, Type: domain.TypeSale, Date: date}, domain.ErrPartyRequired},
		{"trade without items", domain.PostRequest{TenantID: f.tenantID, Type: domain.TypeSale, Date: date, PartyLedgerID: f.partyID}, domain.ErrItemsRequired},
		{"settlement without counter", domain.PostRequest{TenantID: f.tenantID, Type: domain.TypeReceipt, Date: date, PartyLedgerID: f.partyID}, domain.ErrCounterRequired},
		{"settlement without amount", domain.PostRequest{TenantID: f.tenantID, Type: domain.TypeReceipt, Date: date, PartyLedgerID: f.partyID, CounterLedgerID: f.cashID}, domain.ErrInvalidAmount},
		{"journal without entries", domain.PostRequest{TenantID: f.tenantID, Type: domain.TypeJournal, Date: date}, domain.ErrEntriesRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Post(ctx, conn, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	// unknown party ledger is caught before any tax work
	_, err := svc.Post(ctx, conn, domain.PostRequest{
		TenantID:      f.tenantID,
		Type:          domain.TypeSale,
		Date:          date,
		PartyLedgerID: node.Generate(),
		SupplierState: "MH",
		PlaceOfSupply: "MH",
		Items: []domain.ItemInput{
			{Description: "Widgets", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(100)},
		},
	})
	assert.ErrorIs(t, err, domain.ErrLedgerNotFound)
}
