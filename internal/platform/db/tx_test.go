package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTx struct {
	pgx.Tx
	execs      []string
	execErr    error
	committed  bool
	rolledBack bool
}

func (t *stubTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	return pgconn.CommandTag{}, t.execErr
}

func (t *stubTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *stubTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type stubBeginner struct {
	tx   *stubTx
	opts pgx.TxOptions
	err  error
}

func (b *stubBeginner) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.opts = opts
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestEnsureAuditSchemaCommits(t *testing.T) {
	b := &stubBeginner{tx: &stubTx{}}
	require.NoError(t, EnsureAuditSchema(context.Background(), b))
	assert.True(t, b.tx.committed)
	assert.Len(t, b.tx.execs, len(auditSchema))
	assert.Equal(t, pgx.RepeatableRead, b.opts.IsoLevel)
}

func TestEnsureAuditSchemaRollsBackOnError(t *testing.T) {
	b := &stubBeginner{tx: &stubTx{execErr: errors.New("permission denied")}}
	err := EnsureAuditSchema(context.Background(), b)
	require.Error(t, err)
	assert.False(t, b.tx.committed)
	assert.True(t, b.tx.rolledBack)
}

func TestWithTxBeginError(t *testing.T) {
	b := &stubBeginner{err: errors.New("down")}
	err := WithTx(context.Background(), b, func(pgx.Tx) error { return nil })
	require.ErrorContains(t, err, "begin tx")
}
