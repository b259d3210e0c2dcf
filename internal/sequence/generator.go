package sequence

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrConcurrencyConflict = errors.New("concurrency_conflict")
	ErrInvalidRequest      = errors.New("invalid_sequence_request")
)

// identifiers are interpolated into SQL, so they are restricted to plain
// snake_case names.
var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Request describes a code scope: the next value for (tenant, table, column,
// prefix) is one past the highest numeric suffix already stored there.
type Request struct {
	TenantID snowflake.ID
	Table    string
	Column   string
	Prefix   string
	Pad      int
}

func (r Request) validate() error {
	if r.TenantID == 0 {
		return fmt.Errorf("%w: tenant required", ErrInvalidRequest)
	}
	if !identRe.MatchString(r.Table) || !identRe.MatchString(r.Column) {
		return fmt.Errorf("%w: table %q column %q", ErrInvalidRequest, r.Table, r.Column)
	}
	if r.Pad <= 0 {
		return fmt.Errorf("%w: pad must be positive", ErrInvalidRequest)
	}
	return nil
}

// Generator produces collision-free sequential codes. Next alone is a plain
// scan; callers make it safe by inserting under a unique index on the target
// column and retrying the whole transaction on conflict (see RunSerialized).
type Generator struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Generator {
	return &Generator{log: log.Named("sequence")}
}

// Next returns prefix + zero-padded(max numeric suffix + 1) for the scope,
// scanning inside the caller's transaction.
func (g *Generator) Next(ctx context.Context, tx *gorm.DB, req Request) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}

	var codes []string
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE tenant_id = ? AND %s LIKE ?`,
		req.Column, req.Table, req.Column)
	if err := tx.WithContext(ctx).Raw(query, req.TenantID, req.Prefix+"%").Scan(&codes).Error; err != nil {
		return "", fmt.Errorf("scan %s.%s: %w", req.Table, req.Column, err)
	}

	max := 0
	for _, code := range codes {
		suffix := strings.TrimPrefix(code, req.Prefix)
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%0*d", req.Prefix, req.Pad, max+1), nil
}
