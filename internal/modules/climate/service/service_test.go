package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/types"
)

type fakeRepo struct {
	stations []types.Station
	rows     []types.Measurement
	err      error
}

func (f *fakeRepo) AllStations(ctx context.Context) ([]types.Station, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.stations) == 0 {
		return nil, types.ErrNotFound
	}
	return f.stations, nil
}

func (f *fakeRepo) MeasurementsInRange(ctx context.Context, start time.Time, end *time.Time) ([]types.Measurement, error) {
	if f.err != nil {
		return nil, f.err
	}
	if end != nil && start.After(*end) {
		return nil, types.NewRangeError(start, *end)
	}
	var out []types.Measurement
	for _, m := range f.rows {
		if m.Date.Before(start) || (end != nil && m.Date.After(*end)) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeRepo) MaxDate(ctx context.Context) (time.Time, error) {
	b, err := f.DateBounds(ctx)
	return b.Last, err
}

func (f *fakeRepo) DateBounds(ctx context.Context) (repository.DateBounds, error) {
	if f.err != nil {
		return repository.DateBounds{}, f.err
	}
	if len(f.rows) == 0 {
		return repository.DateBounds{}, types.ErrNotFound
	}
	b := repository.DateBounds{First: f.rows[0].Date, Last: f.rows[0].Date, Rows: len(f.rows)}
	for _, m := range f.rows {
		if m.Date.Before(b.First) {
			b.First = m.Date
		}
		if m.Date.After(b.Last) {
			b.Last = m.Date
		}
	}
	return b, nil
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := types.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func floatPtr(v float64) *float64 { return &v }

// generatedRows builds a deterministic dataset ending on 2017-08-23 with
// uneven station activity, null readings and duplicate (station, date) rows.
func generatedRows() []types.Measurement {
	stations := []string{"USC00511918", "USC00513117", "USC00514830", "USC00519281", "USC00519397"}
	first := time.Date(2015, 8, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2017, 8, 23, 0, 0, 0, 0, time.UTC)
	var rows []types.Measurement
	var id int64
	i := 0
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		for si, st := range stations {
			i++
			// station si skips every (si+2)th day, so activity differs
			if si > 0 && i%(si+2) == 0 {
				continue
			}
			id++
			m := types.Measurement{ID: id, Station: st, Date: d}
			if i%7 != 0 {
				m.Precipitation = floatPtr(float64(i%13) * 0.07)
			}
			if i%11 != 0 {
				m.Temperature = floatPtr(55 + float64((i*17)%30))
			}
			rows = append(rows, m)
		}
	}
	// duplicate row for an existing (station, date)
	id++
	rows = append(rows, types.Measurement{ID: id, Station: stations[1], Date: last, Precipitation: floatPtr(0.3), Temperature: floatPtr(79)})
	return rows
}

func generatedStations() []types.Station {
	return []types.Station{
		{ID: 1, Station: "USC00519397", Name: "WAIKIKI 717.2, HI US"},
		{ID: 2, Station: "USC00513117", Name: "KANEOHE 838.1, HI US"},
		{ID: 3, Station: "USC00514830", Name: "KUALOA RANCH HEADQUARTERS 886.9, HI US"},
		{ID: 4, Station: "USC00511918", Name: "HONOLULU OBSERVATORY 702.2, HI US"},
		{ID: 5, Station: "USC00519281", Name: "WAIHEE 837.5, HI US"},
	}
}

func newGeneratedService() (*Service, *fakeRepo) {
	repo := &fakeRepo{stations: generatedStations(), rows: generatedRows()}
	return NewService(repo), repo
}

func TestPrecipitation_WindowBounds(t *testing.T) {
	svc, _ := newGeneratedService()
	got, err := svc.Precipitation(context.Background())
	if err != nil {
		t.Fatalf("Precipitation: %v", err)
	}
	lower := day(t, "2016-08-23")
	upper := day(t, "2017-08-23")
	if len(got) != 365 {
		t.Errorf("len = %d; want 365 distinct dates", len(got))
	}
	for i, p := range got {
		if !p.Date.After(lower) || p.Date.After(upper) {
			t.Errorf("date %s outside (2016-08-23, 2017-08-23]", types.FormatDate(p.Date))
		}
		if i > 0 && !p.Date.After(got[i-1].Date) {
			t.Errorf("dates not strictly ascending at %d", i)
		}
	}
}

func TestPrecipitation_SumsMatchRawRows(t *testing.T) {
	svc, repo := newGeneratedService()
	got, err := svc.Precipitation(context.Background())
	if err != nil {
		t.Fatalf("Precipitation: %v", err)
	}
	for _, p := range got {
		var sum float64
		var seen bool
		for _, m := range repo.rows {
			if m.Date.Equal(p.Date) && m.Precipitation != nil {
				sum += *m.Precipitation
				seen = true
			}
		}
		if !seen {
			if p.Value != nil {
				t.Errorf("%s: value = %v; want nil", types.FormatDate(p.Date), *p.Value)
			}
			continue
		}
		if p.Value == nil || math.Abs(*p.Value-sum) > 1e-9 {
			t.Errorf("%s: value = %v; want %v", types.FormatDate(p.Date), p.Value, sum)
		}
	}
}

func TestPrecipitationSeries_Policy(t *testing.T) {
	last := day(t, "2017-08-23")
	rows := []types.Measurement{
		{ID: 1, Station: "A", Date: day(t, "2016-08-23"), Precipitation: floatPtr(9)},
		{ID: 2, Station: "A", Date: day(t, "2017-08-22"), Precipitation: floatPtr(0.5)},
		{ID: 3, Station: "B", Date: day(t, "2017-08-22"), Precipitation: floatPtr(0.25)},
		{ID: 4, Station: "C", Date: day(t, "2017-08-22")},
		{ID: 5, Station: "A", Date: day(t, "2017-08-23")},
		{ID: 6, Station: "B", Date: day(t, "2016-08-24"), Precipitation: floatPtr(0)},
	}
	got := PrecipitationSeries(rows, last)
	want := []types.PrecipitationPoint{
		{Date: day(t, "2016-08-24"), Value: floatPtr(0)},
		{Date: day(t, "2017-08-22"), Value: floatPtr(0.75)},
		{Date: day(t, "2017-08-23")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PrecipitationSeries mismatch (-want +got):\n%s", diff)
	}
}

func TestStations_EachOnce(t *testing.T) {
	svc, repo := newGeneratedService()
	got, err := svc.Stations(context.Background())
	if err != nil {
		t.Fatalf("Stations: %v", err)
	}
	if len(got) != len(repo.stations) {
		t.Fatalf("len = %d; want %d", len(got), len(repo.stations))
	}
	seen := make(map[string]bool)
	for _, s := range got {
		if seen[s.Station] {
			t.Errorf("station %s returned twice", s.Station)
		}
		seen[s.Station] = true
	}
}

func TestMostActiveTemperatures(t *testing.T) {
	svc, repo := newGeneratedService()
	got, err := svc.MostActiveTemperatures(context.Background())
	if err != nil {
		t.Fatalf("MostActiveTemperatures: %v", err)
	}

	counts := make(map[string]int)
	for _, m := range repo.rows {
		counts[m.Station]++
	}
	for st, n := range counts {
		if n > counts[got.Station.Station] {
			t.Errorf("station %s has %d rows > most active %s with %d", st, n, got.Station.Station, counts[got.Station.Station])
		}
	}
	if got.Station.Count != counts[got.Station.Station] {
		t.Errorf("Count = %d; want %d", got.Station.Count, counts[got.Station.Station])
	}

	last := day(t, "2017-08-23")
	if len(got.Points) == 0 {
		t.Fatal("no temperature points")
	}
	for i, p := range got.Points {
		if !types.InWindow(p.Date, last) {
			t.Errorf("point %s outside trailing window", types.FormatDate(p.Date))
		}
		if i > 0 && p.Date.Before(got.Points[i-1].Date) {
			t.Errorf("points not ordered at %d", i)
		}
	}
}

func TestMostActiveStation_TieBreak(t *testing.T) {
	d := day(t, "2017-01-01")
	rows := []types.Measurement{
		{Station: "USC00519397", Date: d},
		{Station: "USC00513117", Date: d},
		{Station: "USC00519397", Date: d},
		{Station: "USC00513117", Date: d},
		{Station: "USC00519281", Date: d},
	}
	got, ok := MostActiveStation(rows)
	if !ok {
		t.Fatal("MostActiveStation: ok = false")
	}
	want := types.StationCount{Station: "USC00513117", Count: 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MostActiveStation mismatch (-want +got):\n%s", diff)
	}

	if _, ok := MostActiveStation(nil); ok {
		t.Error("MostActiveStation(nil): ok = true; want false")
	}
}

func TestTemperatureSeries_SkipsNullsAndOtherStations(t *testing.T) {
	last := day(t, "2017-08-23")
	rows := []types.Measurement{
		{ID: 3, Station: "A", Date: day(t, "2017-08-23"), Temperature: floatPtr(80)},
		{ID: 1, Station: "A", Date: day(t, "2017-08-21"), Temperature: floatPtr(78)},
		{ID: 2, Station: "A", Date: day(t, "2017-08-22")},
		{ID: 4, Station: "B", Date: day(t, "2017-08-22"), Temperature: floatPtr(60)},
		{ID: 5, Station: "A", Date: day(t, "2016-08-23"), Temperature: floatPtr(70)},
	}
	got := TemperatureSeries(rows, "A", last)
	want := []types.TemperaturePoint{
		{Date: day(t, "2017-08-21"), Temperature: 78},
		{Date: day(t, "2017-08-23"), Temperature: 80},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TemperatureSeries mismatch (-want +got):\n%s", diff)
	}
}

func TestTemperatureSummaryBetween_Ordering(t *testing.T) {
	svc, repo := newGeneratedService()
	bounds, err := repo.DateBounds(context.Background())
	if err != nil {
		t.Fatalf("DateBounds: %v", err)
	}
	for start := bounds.First; !start.After(bounds.Last); start = start.AddDate(0, 0, 37) {
		for _, span := range []int{0, 1, 9, 120, 400} {
			end := start.AddDate(0, 0, span)
			s, err := svc.TemperatureSummaryBetween(context.Background(), start, end)
			if errors.Is(err, types.ErrNoData) {
				continue
			}
			if err != nil {
				t.Fatalf("TemperatureSummaryBetween(%s, %s): %v", types.FormatDate(start), types.FormatDate(end), err)
			}
			if s.Min > s.Avg || s.Avg > s.Max {
				t.Errorf("[%s, %s]: min=%v avg=%v max=%v not ordered", types.FormatDate(start), types.FormatDate(end), s.Min, s.Avg, s.Max)
			}
		}
	}
}

func TestTemperatureSummaryFrom_MinDateEqualsWholeDataset(t *testing.T) {
	svc, repo := newGeneratedService()
	bounds, err := repo.DateBounds(context.Background())
	if err != nil {
		t.Fatalf("DateBounds: %v", err)
	}
	got, err := svc.TemperatureSummaryFrom(context.Background(), bounds.First)
	if err != nil {
		t.Fatalf("TemperatureSummaryFrom: %v", err)
	}
	want, err := SummarizeTemperatures(repo.rows)
	if err != nil {
		t.Fatalf("SummarizeTemperatures: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestTemperatureSummaryBetween_SingleReading(t *testing.T) {
	d := day(t, "2017-01-01")
	repo := &fakeRepo{rows: []types.Measurement{
		{ID: 1, Station: "A", Date: day(t, "2016-12-31"), Temperature: floatPtr(60)},
		{ID: 2, Station: "A", Date: d, Temperature: floatPtr(66.5)},
		{ID: 3, Station: "B", Date: d},
		{ID: 4, Station: "A", Date: day(t, "2017-01-02"), Temperature: floatPtr(70)},
	}}
	got, err := NewService(repo).TemperatureSummaryBetween(context.Background(), d, d)
	if err != nil {
		t.Fatalf("TemperatureSummaryBetween: %v", err)
	}
	want := types.TemperatureSummary{Min: 66.5, Avg: 66.5, Max: 66.5, Count: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestTemperatureSummary_AverageIgnoresNulls(t *testing.T) {
	rows := []types.Measurement{
		{Temperature: floatPtr(60)},
		{},
		{Temperature: floatPtr(70)},
		{},
	}
	got, err := SummarizeTemperatures(rows)
	if err != nil {
		t.Fatalf("SummarizeTemperatures: %v", err)
	}
	if got.Avg != 65 || got.Count != 2 {
		t.Errorf("Avg = %v Count = %d; want 65 and 2", got.Avg, got.Count)
	}
}

func TestTemperatureSummary_NoData(t *testing.T) {
	svc, _ := newGeneratedService()

	_, err := svc.TemperatureSummaryFrom(context.Background(), day(t, "2030-01-01"))
	if !errors.Is(err, types.ErrNoData) {
		t.Errorf("TemperatureSummaryFrom after last date: error = %v; want ErrNoData", err)
	}

	_, err = SummarizeTemperatures([]types.Measurement{{Station: "A"}})
	if !errors.Is(err, types.ErrNoData) {
		t.Errorf("SummarizeTemperatures(all null): error = %v; want ErrNoData", err)
	}
}

func TestTemperatureSummaryBetween_Inverted(t *testing.T) {
	svc, _ := newGeneratedService()
	_, err := svc.TemperatureSummaryBetween(context.Background(), day(t, "2020-01-01"), day(t, "2019-01-01"))
	if !errors.Is(err, types.ErrInvalidRange) {
		t.Fatalf("error = %v; want ErrInvalidRange", err)
	}
}

func TestService_PropagatesRepositoryErrors(t *testing.T) {
	boom := errors.New("disk I/O error")
	svc := NewService(&fakeRepo{err: boom})
	ctx := context.Background()

	if _, err := svc.Precipitation(ctx); !errors.Is(err, boom) {
		t.Errorf("Precipitation error = %v; want %v", err, boom)
	}
	if _, err := svc.Stations(ctx); !errors.Is(err, boom) {
		t.Errorf("Stations error = %v; want %v", err, boom)
	}
	if _, err := svc.MostActiveTemperatures(ctx); !errors.Is(err, boom) {
		t.Errorf("MostActiveTemperatures error = %v; want %v", err, boom)
	}
	if _, err := svc.Summary(ctx); !errors.Is(err, boom) {
		t.Errorf("Summary error = %v; want %v", err, boom)
	}
}

func TestService_EmptyDataset(t *testing.T) {
	svc := NewService(&fakeRepo{})
	if _, err := svc.Precipitation(context.Background()); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Precipitation error = %v; want ErrNotFound", err)
	}
	if _, err := svc.MostActiveTemperatures(context.Background()); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("MostActiveTemperatures error = %v; want ErrNotFound", err)
	}
}

func TestSummary(t *testing.T) {
	svc, repo := newGeneratedService()
	got, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if got.Stations != 5 {
		t.Errorf("Stations = %d; want 5", got.Stations)
	}
	if got.Measurements != len(repo.rows) {
		t.Errorf("Measurements = %d; want %d", got.Measurements, len(repo.rows))
	}
	if !got.LastDate.Equal(day(t, "2017-08-23")) || !got.FirstDate.Equal(day(t, "2015-08-01")) {
		t.Errorf("dates = %s..%s", types.FormatDate(got.FirstDate), types.FormatDate(got.LastDate))
	}
	top, _ := MostActiveStation(repo.rows)
	if got.MostActiveStation != top {
		t.Errorf("MostActiveStation = %+v; want %+v", got.MostActiveStation, top)
	}
}

func TestService_ConcurrentReads(t *testing.T) {
	svc, _ := newGeneratedService()
	want, err := svc.MostActiveTemperatures(context.Background())
	if err != nil {
		t.Fatalf("MostActiveTemperatures: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.MostActiveTemperatures(context.Background())
			if err != nil {
				errs <- err
				return
			}
			if got.Station != want.Station || len(got.Points) != len(want.Points) {
				errs <- errors.New("concurrent result differs")
			}
			if _, err := svc.Precipitation(context.Background()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
