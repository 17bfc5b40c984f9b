package planner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/libreria-pagine/turni/backend/internal/domain"
	"github.com/libreria-pagine/turni/backend/internal/repository"
	"github.com/libreria-pagine/turni/backend/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memoryStore 在内存中模拟 repository 的行为，包括事务里的月份检查
type memoryStore struct {
	mu      sync.Mutex
	months  map[domain.Month][]*domain.Shift
	writes  int
	failFor map[domain.Month]error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		months:  make(map[domain.Month][]*domain.Shift),
		failFor: make(map[domain.Month]error),
	}
}

func (s *memoryStore) ListShiftsByMonth(ctx context.Context, month domain.Month) ([]*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.Shift(nil), s.months[month]...), nil
}

func (s *memoryStore) InsertMonthShifts(ctx context.Context, month domain.Month, shifts []*domain.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failFor[month]; err != nil {
		return err
	}
	if len(s.months[month]) > 0 {
		return repository.ErrMonthAlreadyGenerated
	}
	s.months[month] = shifts
	s.writes += len(shifts)
	return nil
}

func (s *memoryStore) DeleteShiftsByMonth(ctx context.Context, month domain.Month) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.months[month])
	delete(s.months, month)
	return int64(n), nil
}

func newTestPlanner(t *testing.T, store ShiftStore) *Planner {
	t.Helper()
	s, err := scheduler.New(domain.DefaultRoster())
	require.NoError(t, err)
	return New(s, store, 3)
}

func month(y int, m time.Month) domain.Month {
	return domain.Month{Year: y, Month: m}
}

func totals(stats []domain.WorkerStats) []int {
	out := make([]int, len(stats))
	for i, st := range stats {
		out[i] = st.Total
	}
	return out
}

func TestGenerate_SecondCallIsSkipped(t *testing.T) {
	store := newMemoryStore()
	p := newTestPlanner(t, store)
	ctx := context.Background()

	res, err := p.Generate(ctx, month(2025, time.March))
	require.NoError(t, err)
	assert.Equal(t, StatusGenerated, res.Status)
	assert.Equal(t, "2025-03", res.Month)
	assert.Len(t, res.Shifts, 31)
	require.NotNil(t, res.Quotas)
	assert.Equal(t, 47, res.Quotas.Available)
	assert.Equal(t, 31, store.writes)

	before, err := store.ListShiftsByMonth(ctx, month(2025, time.March))
	require.NoError(t, err)

	res, err = p.Generate(ctx, month(2025, time.March))
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Empty(t, res.Shifts)
	assert.Nil(t, res.Quotas)
	assert.Equal(t, 31, store.writes)

	after, err := store.ListShiftsByMonth(ctx, month(2025, time.March))
	require.NoError(t, err)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("i turni salvati sono cambiati (-prima +dopo):\n%s", diff)
	}
}

func TestGenerate_StoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.failFor[month(2025, time.April)] = repository.ErrConflict
	p := newTestPlanner(t, store)

	_, err := p.Generate(context.Background(), month(2025, time.April))
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Zero(t, store.writes)
}

func TestGenerateRange(t *testing.T) {
	store := newMemoryStore()
	p := newTestPlanner(t, store)
	ctx := context.Background()

	_, err := p.Generate(ctx, month(2025, time.March))
	require.NoError(t, err)

	results, err := p.GenerateRange(ctx, month(2025, time.January), month(2025, time.June))
	require.NoError(t, err)
	require.Len(t, results, 6)

	statuses := make([]Status, len(results))
	for i, res := range results {
		statuses[i] = res.Status
	}
	assert.Equal(t, []Status{
		StatusGenerated, StatusGenerated, StatusSkipped,
		StatusGenerated, StatusGenerated, StatusGenerated,
	}, statuses)
	assert.Equal(t, "2025-01", results[0].Month)
	assert.Equal(t, "2025-06", results[5].Month)

	assert.Equal(t, 31+28+31+30+31+30, store.writes)
}

func TestGenerateRange_Failure(t *testing.T) {
	store := newMemoryStore()
	boom := errors.New("disco pieno")
	store.failFor[month(2025, time.March)] = boom

	s, err := scheduler.New(domain.DefaultRoster())
	require.NoError(t, err)
	// 串行执行，保证失败之前的月份已经写入
	p := New(s, store, 1)

	results, err := p.GenerateRange(context.Background(), month(2025, time.January), month(2025, time.March))
	require.ErrorIs(t, err, boom)
	require.Len(t, results, 3)

	require.NotNil(t, results[0])
	require.NotNil(t, results[1])
	assert.Equal(t, StatusGenerated, results[0].Status)
	assert.Equal(t, StatusGenerated, results[1].Status)
	assert.Nil(t, results[2])
	assert.Equal(t, []string{"2025-01", "2025-02"}, MonthsWithStatus(results, StatusGenerated))

	// 已提交的月份保留在存储中
	assert.Len(t, store.months[month(2025, time.January)], 31)
	assert.Len(t, store.months[month(2025, time.February)], 28)
	assert.Empty(t, store.months[month(2025, time.March)])
	assert.Equal(t, 59, store.writes)
}

func TestMonthsWithStatus(t *testing.T) {
	results := []*Result{
		{Month: "2025-01", Status: StatusGenerated},
		nil,
		{Month: "2025-03", Status: StatusSkipped},
		{Month: "2025-04", Status: StatusGenerated},
	}

	assert.Equal(t, []string{"2025-01", "2025-04"}, MonthsWithStatus(results, StatusGenerated))
	assert.Equal(t, []string{"2025-03"}, MonthsWithStatus(results, StatusSkipped))
	assert.Empty(t, MonthsWithStatus(nil, StatusGenerated))
}

func TestMonthRange(t *testing.T) {
	months, err := MonthRange(month(2025, time.November), month(2026, time.February))
	require.NoError(t, err)
	assert.Equal(t, []domain.Month{
		month(2025, time.November), month(2025, time.December),
		month(2026, time.January), month(2026, time.February),
	}, months)

	months, err = MonthRange(month(2025, time.May), month(2025, time.May))
	require.NoError(t, err)
	assert.Len(t, months, 1)

	_, err = MonthRange(month(2025, time.May), month(2025, time.April))
	assert.Error(t, err)

	_, err = MonthRange(month(2025, time.January), month(2027, time.January))
	assert.Error(t, err)
}

func TestPreview_DoesNotWrite(t *testing.T) {
	store := newMemoryStore()
	p := newTestPlanner(t, store)

	preview, err := p.Preview(month(2025, time.March))
	require.NoError(t, err)
	assert.Zero(t, store.writes)
	assert.Len(t, preview.Shifts, 31)
	assert.Equal(t, 8, preview.RotationAssignments)
	assert.Equal(t, []int{15, 15, 17}, totals(preview.Stats))
}

func TestStatsAndDelete(t *testing.T) {
	store := newMemoryStore()
	p := newTestPlanner(t, store)
	ctx := context.Background()

	stats, err := p.Stats(ctx, month(2025, time.March))
	require.NoError(t, err)
	require.Len(t, stats, 3)
	for _, st := range stats {
		assert.Equal(t, domain.WorkerStats{Worker: st.Worker}, st)
	}

	_, err = p.Generate(ctx, month(2025, time.March))
	require.NoError(t, err)

	stats, err = p.Stats(ctx, month(2025, time.March))
	require.NoError(t, err)
	assert.Equal(t, []int{15, 15, 17}, totals(stats))

	n, err := p.Delete(ctx, month(2025, time.March))
	require.NoError(t, err)
	assert.Equal(t, int64(31), n)

	// 删除后可以重新生成
	res, err := p.Generate(ctx, month(2025, time.March))
	require.NoError(t, err)
	assert.Equal(t, StatusGenerated, res.Status)
}
