package dsformat_test

import (
	"testing"

	"github.com/paveg/dsformat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_Run(t *testing.T) {
	f := newFormatter(t, "document", []any{"  Keep Me ", "drop", nil})

	p := dsformat.NewPipeline().
		FillMissing("document", "").
		NormalizeText("document", "").
		FilterRows(func(r dsformat.Row) bool { return r["document"] != "drop" }).
		AddConstantColumn("source", "court").
		Apply("", "").
		RenameColumn("hash", "digest").
		DropColumn("source")

	assert.Equal(t, 7, p.Len())
	assert.Equal(t, []string{
		"FillMissing", "NormalizeText", "FilterRows", "AddConstantColumn",
		"Apply", "RenameColumn", "DropColumn",
	}, p.Steps())

	require.NoError(t, p.Run(f))
	assert.Equal(t, []string{"document", "digest", "uuid"}, f.Dataset().Columns())
	assert.Equal(t, []any{"keep me", ""}, values(t, f, "document"))
}

func TestPipeline_StopsAtFirstFailure(t *testing.T) {
	f := newFormatter(t, "score", []any{"1", "x"})

	p := dsformat.NewPipeline().
		AddConstantColumn("flag", true).
		ConvertColumnType("score", dsformat.KindInt64).
		UUID("")

	err := p.Run(f)
	require.ErrorIs(t, err, dsformat.ErrTypeConversion)
	assert.Contains(t, err.Error(), "pipeline step 2 (ConvertColumnType)")

	// the first step stays applied, the third never ran
	assert.Equal(t, []string{"score", "flag"}, f.Dataset().Columns())
}

func TestPipeline_Empty(t *testing.T) {
	f := newFormatter(t, "document", []any{"a"})
	require.NoError(t, dsformat.NewPipeline().Run(f))
	assert.Equal(t, []string{"document"}, f.Dataset().Columns())
}
