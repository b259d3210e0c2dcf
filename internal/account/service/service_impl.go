package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lekhabooks/lekha/internal/account/domain"
	"github.com/lekhabooks/lekha/internal/sequence"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const ledgerCodePad = 4

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Seq   *sequence.Generator
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	seq   *sequence.Generator
}

func NewService(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("account.service"),
		genID: p.GenID,
		repo:  p.Repo,
		seq:   p.Seq,
	}
}

func (s *Service) CreateGroup(ctx context.Context, db *gorm.DB, req domain.CreateGroupRequest) (*domain.AccountGroup, error) {
	now := time.Now().UTC()
	group := &domain.AccountGroup{
		ID:           s.genID.Generate(),
		TenantID:     req.TenantID,
		Name:         strings.TrimSpace(req.Name),
		Nature:       req.Nature,
		ParentID:     req.ParentID,
		AffectsPL:    req.AffectsPL,
		IsTaxRelated: req.IsTaxRelated,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := group.Validate(); err != nil {
		return nil, err
	}

	// the forest invariant is enforced before any write: the new node plus
	// the existing arena must still build
	existing, err := s.repo.ListGroups(ctx, db, req.TenantID)
	if err != nil {
		return nil, err
	}
	if _, err := domain.BuildTree(append(existing, *group)); err != nil {
		return nil, err
	}

	if err := s.repo.InsertGroup(ctx, db, group); err != nil {
		return nil, fmt.Errorf("insert account group: %w", err)
	}
	return group, nil
}

func (s *Service) Tree(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) (*domain.GroupTree, error) {
	groups, err := s.repo.ListGroups(ctx, db, tenantID)
	if err != nil {
		return nil, err
	}
	return domain.BuildTree(groups)
}

func (s *Service) CreateLedger(ctx context.Context, db *gorm.DB, req domain.CreateLedgerRequest) (*domain.Ledger, error) {
	now := time.Now().UTC()
	ledger := &domain.Ledger{
		ID:             s.genID.Generate(),
		TenantID:       req.TenantID,
		Code:           strings.TrimSpace(req.Code),
		Name:           strings.TrimSpace(req.Name),
		GroupID:        req.GroupID,
		OpeningBalance: req.OpeningBalance,
		OpeningSide:    req.OpeningSide,
		GSTIN:          strings.TrimSpace(req.GSTIN),
		State:          strings.TrimSpace(req.State),
		BillWise:       req.BillWise,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if ledger.OpeningSide == "" {
		ledger.OpeningSide = domain.SideDebit
	}
	if err := ledger.Validate(); err != nil {
		return nil, err
	}

	groups, err := s.repo.ListGroups(ctx, db, req.TenantID)
	if err != nil {
		return nil, err
	}
	tree, err := domain.BuildTree(groups)
	if err != nil {
		return nil, err
	}
	if _, ok := tree.Get(req.GroupID); !ok {
		return nil, domain.ErrGroupNotFound
	}

	if ledger.Code != "" {
		if err := s.repo.InsertLedger(ctx, db, ledger); err != nil {
			return nil, fmt.Errorf("insert ledger: %w", err)
		}
		return ledger, nil
	}

	// no code supplied: assign the next LED code under the tenant scope
	err = s.seq.RunSerialized(ctx, db, 0, func(tx *gorm.DB) error {
		code, err := s.seq.Next(ctx, tx, sequence.Request{
			TenantID: req.TenantID,
			Table:    "ledgers",
			Column:   "code",
			Prefix:   "LED",
			Pad:      ledgerCodePad,
		})
		if err != nil {
			return err
		}
		ledger.Code = code
		return s.repo.InsertLedger(ctx, tx, ledger)
	})
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

func (s *Service) Balance(ctx context.Context, db *gorm.DB, tenantID, ledgerID snowflake.ID, asOf time.Time) (*domain.Balance, error) {
	ledger, err := s.repo.FindLedgerByID(ctx, db, tenantID, ledgerID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, domain.ErrLedgerNotFound
	}

	debit, credit, err := s.repo.EntryTotals(ctx, db, tenantID, ledgerID, asOf)
	if err != nil {
		return nil, err
	}

	net := debit.Sub(credit)
	if ledger.OpeningSide == domain.SideDebit {
		net = net.Add(ledger.OpeningBalance)
	} else {
		net = net.Sub(ledger.OpeningBalance)
	}

	balance := &domain.Balance{LedgerID: ledgerID, AsOf: asOf}
	if net.IsNegative() {
		balance.Amount = net.Neg()
		balance.Side = domain.SideCredit
	} else {
		balance.Amount = net
		balance.Side = domain.SideDebit
	}
	return balance, nil
}
