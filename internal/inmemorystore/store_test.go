package inmemorystore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/regger-zz/sas-translator/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetPhase(t *testing.T) {
	s := New()
	ctx := context.Background()

	phase, err := s.GetPhase(ctx, "a.sas")
	require.NoError(t, err)
	assert.Equal(t, Pending, phase)

	require.NoError(t, s.SetPhase(ctx, "a.sas", Running))
	phase, err = s.GetPhase(ctx, "a.sas")
	require.NoError(t, err)
	assert.Equal(t, Running, phase)
}

func TestSetAndGetReport(t *testing.T) {
	s := New()
	ctx := context.Background()

	r, err := s.GetReport(ctx, "a.sas")
	require.NoError(t, err)
	assert.Nil(t, r)

	want := report.Failed(report.FileInfo{Path: "a.sas"})
	require.NoError(t, s.SetReport(ctx, "a.sas", want))

	r, err = s.GetReport(ctx, "a.sas")
	require.NoError(t, err)
	assert.Same(t, want, r)

	phase, err := s.GetPhase(ctx, "a.sas")
	require.NoError(t, err)
	assert.Equal(t, Done, phase)

	assert.Error(t, s.SetReport(ctx, "b.sas", nil))
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	const numGoroutines = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			path := fmt.Sprintf("f%d.sas", i)
			_ = s.SetPhase(ctx, path, Running)
			_ = s.SetReport(ctx, path, report.Failed(report.FileInfo{Path: path}))
		}(i)
	}
	wg.Wait()

	for i := 0; i < numGoroutines; i++ {
		path := fmt.Sprintf("f%d.sas", i)
		r, err := s.GetReport(ctx, path)
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, path, r.File.Path)
	}
}
