package query

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"homehub-data/internal/domain"
	"homehub-data/internal/repository"
	"homehub-data/internal/timefilter"
)

type fakeLedSearcher struct {
	lastFilter repository.LedEventFilter
	lastOffset int
	lastLimit  int
	items      []domain.LedEvent
	total      int
	calls      int
}

func (f *fakeLedSearcher) Search(_ context.Context, filter repository.LedEventFilter, offset, limit int) ([]domain.LedEvent, int, error) {
	f.calls++
	f.lastFilter = filter
	f.lastOffset = offset
	f.lastLimit = limit
	return f.items, f.total, nil
}

type fakeSensorSearcher struct {
	lastFilter repository.SensorReadingFilter
	items      []domain.SensorReading
	total      int
	calls      int
}

func (f *fakeSensorSearcher) Search(_ context.Context, filter repository.SensorReadingFilter, _, _ int) ([]domain.SensorReading, int, error) {
	f.calls++
	f.lastFilter = filter
	return f.items, f.total, nil
}

func newTestEngine() (*Engine, *fakeLedSearcher, *fakeSensorSearcher) {
	leds := &fakeLedSearcher{}
	sensors := &fakeSensorSearcher{}
	return NewEngine(leds, sensors, zap.NewNop()), leds, sensors
}

func TestEngine_DefaultsAndOffset(t *testing.T) {
	engine, leds, _ := newTestEngine()

	_, err := engine.SearchLedEvents(context.Background(), Params{Page: 3, Size: 25})
	require.NoError(t, err)
	assert.Equal(t, 75, leds.lastOffset)
	assert.Equal(t, 25, leds.lastLimit)

	_, err = engine.SearchLedEvents(context.Background(), Params{Page: -5, Size: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, leds.lastOffset)
	assert.Equal(t, DefaultPageSize, leds.lastLimit)

	_, err = engine.SearchLedEvents(context.Background(), Params{Size: 10000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, leds.lastLimit)
}

func TestEngine_DeviceFilter(t *testing.T) {
	engine, leds, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.SearchLedEvents(ctx, Params{DeviceFilter: "all"})
	require.NoError(t, err)
	assert.Nil(t, leds.lastFilter.Channel)

	_, err = engine.SearchLedEvents(ctx, Params{DeviceFilter: "ALL"})
	require.NoError(t, err)
	assert.Nil(t, leds.lastFilter.Channel)

	_, err = engine.SearchLedEvents(ctx, Params{DeviceFilter: "2"})
	require.NoError(t, err)
	require.NotNil(t, leds.lastFilter.Channel)
	assert.Equal(t, 2, *leds.lastFilter.Channel)
}

func TestEngine_NonNumericDeviceFilterEmptyPage(t *testing.T) {
	engine, leds, _ := newTestEngine()
	leds.total = 42

	page, err := engine.SearchLedEvents(context.Background(), Params{Page: 1, Size: 10, DeviceFilter: "kitchen"})
	require.NoError(t, err)

	// 不触达存储，直接空页
	assert.Equal(t, 0, leds.calls)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.TotalItems)
	assert.Equal(t, 1, page.PageIndex)
}

func TestEngine_UnusableTimeFilterEmptyPage(t *testing.T) {
	engine, leds, sensors := newTestEngine()
	ctx := context.Background()

	for _, raw := range []string{"hello", "25:00", "12:3", "13:28:99"} {
		page, err := engine.SearchLedEvents(ctx, Params{TimeFilter: raw})
		require.NoError(t, err, raw)
		assert.Empty(t, page.Items, raw)

		sensorPage, err := engine.SearchSensorReadings(ctx, Params{TimeFilter: raw})
		require.NoError(t, err, raw)
		assert.Empty(t, sensorPage.Items, raw)
	}
	assert.Equal(t, 0, leds.calls)
	assert.Equal(t, 0, sensors.calls)
}

func TestEngine_TimeFilterOverridesTextSearch(t *testing.T) {
	engine, leds, _ := newTestEngine()

	_, err := engine.SearchLedEvents(context.Background(), Params{Search: "2", TimeFilter: "13:28"})
	require.NoError(t, err)

	require.NotNil(t, leds.lastFilter.Time)
	assert.Equal(t, timefilter.KindMinuteOfHour, leds.lastFilter.Time.Kind)
	assert.Empty(t, leds.lastFilter.Search)
}

func TestEngine_TextSearchWithoutTimeFilter(t *testing.T) {
	engine, leds, sensors := newTestEngine()
	ctx := context.Background()

	_, err := engine.SearchLedEvents(ctx, Params{Search: "  42  "})
	require.NoError(t, err)
	assert.Nil(t, leds.lastFilter.Time)
	assert.Equal(t, "42", leds.lastFilter.Search)

	_, err = engine.SearchSensorReadings(ctx, Params{Search: "27.5", SearchType: "temperature"})
	require.NoError(t, err)
	assert.Equal(t, "27.5", sensors.lastFilter.Search)
	assert.Equal(t, repository.SensorFieldTemperature, sensors.lastFilter.SearchField)

	_, err = engine.SearchSensorReadings(ctx, Params{Search: "5", SearchType: "bogus"})
	require.NoError(t, err)
	assert.Equal(t, repository.SensorFieldAuto, sensors.lastFilter.SearchField)
}

// memoryLedStore 内存实现，带真实的排序与切片语义
type memoryLedStore struct {
	items []domain.LedEvent
}

func (m *memoryLedStore) Search(_ context.Context, filter repository.LedEventFilter, offset, limit int) ([]domain.LedEvent, int, error) {
	matched := make([]domain.LedEvent, 0, len(m.items))
	for _, item := range m.items {
		if filter.Channel != nil && item.Channel != *filter.Channel {
			continue
		}
		matched = append(matched, item)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if offset >= total {
		return []domain.LedEvent{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func TestEngine_PageUnionReproducesFilteredSet(t *testing.T) {
	base := time.Date(2025, 9, 6, 12, 0, 0, 0, time.UTC)
	store := &memoryLedStore{}
	// 23 条，故意乱序插入，并让部分 created_at 相同以考验 id 次级排序
	for i := 1; i <= 23; i++ {
		store.items = append(store.items, domain.LedEvent{
			ID:        int64(i),
			Channel:   1 + i%3,
			StateOn:   i%2 == 0,
			CreatedAt: base.Add(time.Duration(i/4) * time.Minute),
		})
	}
	sort.Slice(store.items, func(i, j int) bool { return store.items[i].ID%7 < store.items[j].ID%7 })

	engine := NewEngine(store, &fakeSensorSearcher{}, zap.NewNop())
	ctx := context.Background()

	full, _, err := store.Search(ctx, repository.LedEventFilter{}, 0, 23)
	require.NoError(t, err)
	require.Len(t, full, 23)

	const size = 5
	var union []domain.LedEvent
	page, err := engine.SearchLedEvents(ctx, Params{Page: 0, Size: size})
	require.NoError(t, err)
	require.Equal(t, 23, page.TotalItems)
	require.Equal(t, 5, page.TotalPages)

	for p := 0; p < page.TotalPages; p++ {
		page, err = engine.SearchLedEvents(ctx, Params{Page: p, Size: size})
		require.NoError(t, err)
		assert.Equal(t, p == 0, page.First)
		assert.Equal(t, p == page.TotalPages-1, page.Last)
		union = append(union, page.Items...)
	}

	// 各页并集 == 完整过滤结果集：无重复、无缺漏、顺序稳定
	require.Equal(t, full, union)

	// 越过末页为空
	page, err = engine.SearchLedEvents(ctx, Params{Page: page.TotalPages, Size: size})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 23, page.TotalItems)
}

func TestEngine_PageUnionWithDeviceFilter(t *testing.T) {
	base := time.Date(2025, 9, 6, 12, 0, 0, 0, time.UTC)
	store := &memoryLedStore{}
	for i := 1; i <= 10; i++ {
		store.items = append(store.items, domain.LedEvent{
			ID:        int64(i),
			Channel:   1 + i%2,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}

	engine := NewEngine(store, &fakeSensorSearcher{}, zap.NewNop())
	ctx := context.Background()

	channel := 2
	full, _, err := store.Search(ctx, repository.LedEventFilter{Channel: &channel}, 0, 10)
	require.NoError(t, err)

	var union []domain.LedEvent
	for p := 0; ; p++ {
		page, err := engine.SearchLedEvents(ctx, Params{Page: p, Size: 2, DeviceFilter: "2"})
		require.NoError(t, err)
		assert.Equal(t, len(full), page.TotalItems)
		union = append(union, page.Items...)
		if page.Last {
			break
		}
	}
	require.Equal(t, full, union)
	for _, event := range union {
		assert.Equal(t, 2, event.Channel)
	}
}

func TestEngine_LedEventHistory(t *testing.T) {
	engine, leds, _ := newTestEngine()
	leds.items = []domain.LedEvent{{ID: 2}, {ID: 1}}
	leds.total = 2
	ctx := context.Background()

	items, err := engine.LedEventHistory(ctx, Params{DeviceFilter: "2"})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 0, leds.lastOffset)
	assert.Equal(t, ExportMaxRows, leds.lastLimit)

	items, err = engine.LedEventHistory(ctx, Params{TimeFilter: "garbage"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestEngine_PaginationMetadata(t *testing.T) {
	engine, leds, _ := newTestEngine()
	leds.items = []domain.LedEvent{{ID: 9, Channel: 1, StateOn: true}}
	leds.total = 41

	page, err := engine.SearchLedEvents(context.Background(), Params{Page: 4, Size: 10})
	require.NoError(t, err)

	assert.Equal(t, 41, page.TotalItems)
	assert.Equal(t, 5, page.TotalPages)
	assert.Equal(t, 4, page.PageIndex)
	assert.False(t, page.First)
	assert.True(t, page.Last)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(9), page.Items[0].ID)
}
