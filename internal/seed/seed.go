package seed

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accountdomain "github.com/lekhabooks/lekha/internal/account/domain"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Accounts accountdomain.Repository
}

// Seeder writes the default chart of accounts for a new tenant: the standard
// group forest plus every system ledger the posting engine resolves by code.
// The tax-rate table starts empty; unclassified codes fall back to the
// default GST rate.
type Seeder struct {
	log      *zap.Logger
	genID    *snowflake.Node
	accounts accountdomain.Repository
}

func New(p Params) *Seeder {
	return &Seeder{
		log:      p.Log.Named("seed"),
		genID:    p.GenID,
		accounts: p.Accounts,
	}
}

type groupSpec struct {
	name         string
	nature       accountdomain.Nature
	parent       string
	affectsPL    bool
	isTaxRelated bool
}

type ledgerSpec struct {
	code  accountdomain.LedgerCode
	name  string
	group string
}

var defaultGroups = []groupSpec{
	{name: "Assets", nature: accountdomain.NatureAsset},
	{name: "Cash-in-Hand", nature: accountdomain.NatureAsset, parent: "Assets"},
	{name: "Bank Accounts", nature: accountdomain.NatureAsset, parent: "Assets"},
	{name: "Liabilities", nature: accountdomain.NatureLiability},
	{name: "Duties & Taxes", nature: accountdomain.NatureLiability, parent: "Liabilities", isTaxRelated: true},
	{name: "Capital", nature: accountdomain.NatureEquity},
	{name: "Income", nature: accountdomain.NatureIncome, affectsPL: true},
	{name: "Sales Accounts", nature: accountdomain.NatureIncome, parent: "Income", affectsPL: true},
	{name: "Expenses", nature: accountdomain.NatureExpense, affectsPL: true},
	{name: "Purchase Accounts", nature: accountdomain.NatureExpense, parent: "Expenses", affectsPL: true},
	{name: "Indirect Expenses", nature: accountdomain.NatureExpense, parent: "Expenses", affectsPL: true},
}

var defaultLedgers = []ledgerSpec{
	{code: accountdomain.LedgerCodeCash, name: "Cash", group: "Cash-in-Hand"},
	{code: accountdomain.LedgerCodeBank, name: "Bank", group: "Bank Accounts"},
	{code: accountdomain.LedgerCodeSales, name: "Sales", group: "Sales Accounts"},
	{code: accountdomain.LedgerCodePurchases, name: "Purchases", group: "Purchase Accounts"},

	{code: accountdomain.LedgerCodeCGSTOutput, name: "CGST Output", group: "Duties & Taxes"},
	{code: accountdomain.LedgerCodeSGSTOutput, name: "SGST Output", group: "Duties & Taxes"},
	{code: accountdomain.LedgerCodeIGSTOutput, name: "IGST Output", group: "Duties & Taxes"},
	{code: accountdomain.LedgerCodeCessOutput, name: "Cess Output", group: "Duties & Taxes"},

	{code: accountdomain.LedgerCodeCGSTInput, name: "CGST Input", group: "Duties & Taxes"},
	{code: accountdomain.LedgerCodeSGSTInput, name: "SGST Input", group: "Duties & Taxes"},
	{code: accountdomain.LedgerCodeIGSTInput, name: "IGST Input", group: "Duties & Taxes"},
	{code: accountdomain.LedgerCodeCessInput, name: "Cess Input", group: "Duties & Taxes"},

	{code: accountdomain.LedgerCodeTDSPayable, name: "TDS Payable", group: "Duties & Taxes"},
	{code: accountdomain.LedgerCodeRoundOff, name: "Round Off", group: "Indirect Expenses"},
}

// Defaults seeds the chart for one tenant. Idempotent only in the sense that
// a second run fails on the unique group names; provisioning calls it once.
func (s *Seeder) Defaults(ctx context.Context, conn *gorm.DB, tenantID snowflake.ID) error {
	now := time.Now().UTC()
	groupIDs := make(map[string]snowflake.ID, len(defaultGroups))

	return conn.Transaction(func(tx *gorm.DB) error {
		for _, spec := range defaultGroups {
			group := &accountdomain.AccountGroup{
				ID:           s.genID.Generate(),
				TenantID:     tenantID,
				Name:         spec.name,
				Nature:       spec.nature,
				AffectsPL:    spec.affectsPL,
				IsTaxRelated: spec.isTaxRelated,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if spec.parent != "" {
				parentID := groupIDs[spec.parent]
				group.ParentID = &parentID
			}
			if err := s.accounts.InsertGroup(ctx, tx, group); err != nil {
				return err
			}
			groupIDs[spec.name] = group.ID
		}

		for _, spec := range defaultLedgers {
			ledger := &accountdomain.Ledger{
				ID:             s.genID.Generate(),
				TenantID:       tenantID,
				Code:           string(spec.code),
				Name:           spec.name,
				GroupID:        groupIDs[spec.group],
				OpeningBalance: decimal.Zero,
				OpeningSide:    accountdomain.SideDebit,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := s.accounts.InsertLedger(ctx, tx, ledger); err != nil {
				return err
			}
		}

		s.log.Info("default chart seeded",
			zap.Int64("tenant_id", tenantID.Int64()),
			zap.Int("groups", len(defaultGroups)),
			zap.Int("ledgers", len(defaultLedgers)),
		)
		return nil
	})
}

var Module = fx.Module("seed",
	fx.Provide(New),
)
