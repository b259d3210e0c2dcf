package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/lekhabooks/lekha/internal/account"
	"github.com/lekhabooks/lekha/internal/audit"
	"github.com/lekhabooks/lekha/internal/billwise"
	"github.com/lekhabooks/lekha/internal/config"
	"github.com/lekhabooks/lekha/internal/einvoice"
	"github.com/lekhabooks/lekha/internal/logger"
	"github.com/lekhabooks/lekha/internal/migration"
	"github.com/lekhabooks/lekha/internal/observability/metrics"
	"github.com/lekhabooks/lekha/internal/seed"
	"github.com/lekhabooks/lekha/internal/sequence"
	"github.com/lekhabooks/lekha/internal/server"
	"github.com/lekhabooks/lekha/internal/tax"
	"github.com/lekhabooks/lekha/internal/tenant"
	"github.com/lekhabooks/lekha/internal/voucher"
	"github.com/lekhabooks/lekha/pkg/db"
)

type testEnv struct {
	app     *fx.App
	db      *gorm.DB
	baseURL string
	httpSrv *httptest.Server
}

var env *testEnv

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	setDefaultEnv()

	var err error
	env, err = startEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start test environment:", err)
		os.Exit(1)
	}

	code := m.Run()
	env.shutdown()
	os.Exit(code)
}

func startEnv() (*testEnv, error) {
	var (
		engine *gin.Engine
		srv    *server.Server
		dbConn *gorm.DB
	)

	app := fx.New(
		fx.NopLogger,
		config.Module,
		logger.Module,
		fx.Provide(func() (*snowflake.Node, error) {
			return snowflake.NewNode(1)
		}),
		db.Module,
		metrics.Module,
		migration.Module,

		sequence.Module,
		tax.Module,
		account.Module,
		seed.Module,
		tenant.Module,
		voucher.Module,
		billwise.Module,
		einvoice.Module,
		audit.Module,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Populate(&engine, &srv, &dbConn),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return nil, err
	}

	// sqlite has no row locks; locking reads pass through unchanged.
	// Raw(...).Scan(...) goes through the row processor, so both hooks are
	// needed.
	stripForUpdate := func(tx *gorm.DB) {
		if tx.Statement != nil && tx.Statement.SQL.Len() > 0 {
			sql := tx.Statement.SQL.String()
			if stripped := strings.ReplaceAll(sql, " FOR UPDATE", ""); stripped != sql {
				tx.Statement.SQL.Reset()
				tx.Statement.SQL.WriteString(stripped)
			}
		}
	}
	err := dbConn.Callback().Query().Before("gorm:query").Register("sqlite_strip_for_update", stripForUpdate)
	if err != nil {
		_ = app.Stop(context.Background())
		return nil, err
	}
	err = dbConn.Callback().Row().Before("gorm:row").Register("sqlite_strip_for_update_row", stripForUpdate)
	if err != nil {
		_ = app.Stop(context.Background())
		return nil, err
	}

	httpSrv := httptest.NewServer(engine)
	return &testEnv{
		app:     app,
		db:      dbConn,
		baseURL: httpSrv.URL,
		httpSrv: httpSrv,
	}, nil
}

func (e *testEnv) shutdown() {
	if e == nil {
		return
	}
	if e.httpSrv != nil {
		e.httpSrv.Close()
	}
	if e.app != nil {
		_ = e.app.Stop(context.Background())
	}
}

func setDefaultEnv() {
	setEnvIfEmpty("ENVIRONMENT", "test")
	setEnvIfEmpty("LOG_LEVEL", "error")
	setEnvIfEmpty("DATABASE_TYPE", "sqlite")
	setEnvIfEmpty("DATABASE_NAME", ":memory:")
	setEnvIfEmpty("DATABASE_MAX_IDLE_CONN", "1")
	setEnvIfEmpty("DATABASE_MAX_OPEN_CONN", "1")
	setEnvIfEmpty("TENANT_ISOLATION", "shared")
}

func setEnvIfEmpty(key, value string) {
	if strings.TrimSpace(os.Getenv(key)) != "" {
		return
	}
	_ = os.Setenv(key, value)
}

func doJSON(t *testing.T, method, path, tenant string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, env.baseURL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if tenant != "" {
		req.Header.Set("X-Tenant-ID", tenant)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	var decoded map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode response %q: %v", raw, err)
		}
	}
	return resp.StatusCode, decoded
}

func dataField(t *testing.T, body map[string]any, key string) any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no data object: %v", body)
	}
	return data[key]
}

func TestE2E_HealthCheck(t *testing.T) {
	resp, err := http.Get(env.baseURL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestE2E_ProvisionPostAllocate(t *testing.T) {
	status, body := doJSON(t, http.MethodPost, "/v1/tenants", "", map[string]any{
		"slug": "acme-books",
		"name": "Acme Books",
	})
	if status != http.StatusCreated {
		t.Fatalf("provision tenant: expected 201, got %d (%v)", status, body)
	}
	rawTenantID, _ := dataField(t, body, "ID").(string)
	if rawTenantID == "" {
		t.Fatalf("provision tenant: missing ID in %v", body)
	}
	tenantID, err := snowflake.ParseString(rawTenantID)
	if err != nil {
		t.Fatalf("parse tenant ID %q: %v", rawTenantID, err)
	}

	var groupID snowflake.ID
	err = env.db.Raw(
		"SELECT id FROM account_groups WHERE tenant_id = ? AND name = ?",
		tenantID, "Assets",
	).Scan(&groupID).Error
	if err != nil || groupID == 0 {
		t.Fatalf("seeded Assets group not found: %v", err)
	}

	status, body = doJSON(t, http.MethodPost, "/v1/ledgers", "acme-books", map[string]any{
		"code":      "party1",
		"name":      "Sharma Traders",
		"group_id":  groupID.String(),
		"state":     "MH",
		"gstin":     "27AAPFU0939F1ZV",
		"bill_wise": true,
	})
	if status != http.StatusCreated {
		t.Fatalf("create ledger: expected 201, got %d (%v)", status, body)
	}
	partyID, _ := dataField(t, body, "ID").(string)

	status, body = doJSON(t, http.MethodPost, "/v1/vouchers", "acme-books", map[string]any{
		"type":            "sale",
		"date":            "2025-07-10",
		"party_ledger_id": partyID,
		"supplier_state":  "MH",
		"place_of_supply": "MH",
		"actor":           "accountant",
		"items": []map[string]any{
			{"description": "widgets", "hsn_code": "8471", "quantity": "10", "rate": "100"},
		},
	})
	if status != http.StatusCreated {
		t.Fatalf("post sale: expected 201, got %d (%v)", status, body)
	}
	if number, _ := dataField(t, body, "Number").(string); number != "SAL001" {
		t.Fatalf("expected voucher number SAL001, got %q", dataField(t, body, "Number"))
	}
	rawSaleID, _ := dataField(t, body, "ID").(string)
	saleID, err := snowflake.ParseString(rawSaleID)
	if err != nil {
		t.Fatalf("parse voucher ID %q: %v", rawSaleID, err)
	}

	status, body = doJSON(t, http.MethodGet, "/v1/vouchers/"+rawSaleID, "acme-books", nil)
	if status != http.StatusOK {
		t.Fatalf("get voucher: expected 200, got %d (%v)", status, body)
	}

	var billID snowflake.ID
	err = env.db.Raw(
		"SELECT id FROM bill_wise_details WHERE tenant_id = ? AND voucher_id = ?",
		tenantID, saleID,
	).Scan(&billID).Error
	if err != nil || billID == 0 {
		t.Fatalf("bill for posted sale not found: %v", err)
	}

	status, body = doJSON(t, http.MethodPost, "/v1/vouchers", "acme-books", map[string]any{
		"type":              "receipt",
		"date":              "2025-07-20",
		"party_ledger_id":   partyID,
		"counter_ledger_id": ledgerIDByCode(t, tenantID, "cash").String(),
		"amount":            "500",
	})
	if status != http.StatusCreated {
		t.Fatalf("post receipt: expected 201, got %d (%v)", status, body)
	}
	receiptID, _ := dataField(t, body, "ID").(string)

	status, body = doJSON(t, http.MethodPost, "/v1/allocations", "acme-books", map[string]any{
		"payment_voucher_id": receiptID,
		"allocations": []map[string]any{
			{"bill_id": billID.String(), "amount": "500"},
		},
	})
	if status != http.StatusOK {
		t.Fatalf("allocate: expected 200, got %d (%v)", status, body)
	}

	status, body = doJSON(t, http.MethodGet, "/v1/ledgers/"+partyID+"/outstanding?as_of=2025-08-31", "acme-books", nil)
	if status != http.StatusOK {
		t.Fatalf("outstanding: expected 200, got %d (%v)", status, body)
	}
	bills, ok := body["data"].([]any)
	if !ok || len(bills) != 1 {
		t.Fatalf("expected one outstanding bill, got %v", body["data"])
	}
	outstanding := bills[0].(map[string]any)
	bill, ok := outstanding["Bill"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested bill in %v", outstanding)
	}
	if pending := fmt.Sprintf("%v", bill["PendingAmount"]); pending != "680" {
		t.Fatalf("expected pending 680 after allocation, got %v", pending)
	}

	status, body = doJSON(t, http.MethodGet, "/v1/audit-logs?action=voucher.posted", "acme-books", nil)
	if status != http.StatusOK {
		t.Fatalf("audit logs: expected 200, got %d (%v)", status, body)
	}
	logs, ok := body["data"].([]any)
	if !ok || len(logs) != 2 {
		t.Fatalf("expected two voucher.posted audit entries, got %v", body["data"])
	}
}

func TestE2E_ErrorMapping(t *testing.T) {
	status, _ := doJSON(t, http.MethodGet, "/v1/vouchers/1", "no-such-tenant", nil)
	if status != http.StatusNotFound {
		t.Fatalf("unknown tenant: expected 404, got %d", status)
	}

	status, body := doJSON(t, http.MethodPost, "/v1/tenants", "", map[string]any{
		"slug": "err-books",
		"name": "Err Books",
	})
	if status != http.StatusCreated {
		t.Fatalf("provision tenant: expected 201, got %d (%v)", status, body)
	}

	status, body = doJSON(t, http.MethodPost, "/v1/vouchers", "err-books", map[string]any{
		"type": "journal",
		"date": "2025-07-10",
		"entries": []map[string]any{
			{"ledger_id": "1", "debit": "100"},
			{"ledger_id": "2", "credit": "90"},
		},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("unbalanced journal: expected 400, got %d (%v)", status, body)
	}

	status, body = doJSON(t, http.MethodPost, "/v1/tax/gst", "err-books", map[string]any{
		"taxable_amount": "1000",
		"gst_rate":       "18",
		"supplier_state": "MH",
		"place_of_supply": "MH",
	})
	if status != http.StatusOK {
		t.Fatalf("gst preview: expected 200, got %d (%v)", status, body)
	}
	if cgst := fmt.Sprintf("%v", dataField(t, body, "cgst")); cgst != "90" {
		t.Fatalf("expected cgst 90, got %v", cgst)
	}
}

func ledgerIDByCode(t *testing.T, tenantID snowflake.ID, code string) snowflake.ID {
	t.Helper()
	var id snowflake.ID
	err := env.db.Raw(
		"SELECT id FROM ledgers WHERE tenant_id = ? AND code = ?",
		tenantID, code,
	).Scan(&id).Error
	if err != nil || id == 0 {
		t.Fatalf("ledger %q not found: %v", code, err)
	}
	return id
}
