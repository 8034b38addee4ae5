package monitor

import (
	"context"
	"errors"
	"testing"
)

// mockProvider is a test implementation of Provider.
type mockProvider struct {
	channel   Channel
	records   []Record
	enumErr   error
	enumCalls int

	values  map[int]int  // brightness per channel index
	missing map[int]bool // indexes that answer but have no value
	getErr  error
	setErr  error

	setCalls []setCall
}

type setCall struct {
	index int
	value int
}

func (m *mockProvider) Channel() Channel { return m.channel }

func (m *mockProvider) Enumerate(_ context.Context) ([]Record, error) {
	m.enumCalls++
	if m.enumErr != nil {
		return nil, m.enumErr
	}
	return m.records, nil
}

func (m *mockProvider) GetBrightness(_ context.Context, index int) (int, bool, error) {
	if m.getErr != nil {
		return 0, false, m.getErr
	}
	if m.missing[index] {
		return 0, false, nil
	}
	v, ok := m.values[index]
	if !ok {
		return 0, false, nil
	}
	return v, true, nil
}

func (m *mockProvider) SetBrightness(_ context.Context, index, value int) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.setCalls = append(m.setCalls, setCall{index: index, value: value})
	if m.values == nil {
		m.values = make(map[int]int)
	}
	m.values[index] = value
	return nil
}

func rec(ch Channel, index int, serial, name, model string, edid []byte) Record {
	return Record{
		Name:         name,
		Model:        model,
		Serial:       serial,
		EDID:         edid,
		ChannelIndex: index,
		Channel:      ch,
	}
}

func TestMergeDeduplicatesByIdentityBlock(t *testing.T) {
	edid := []byte{0x00, 0xff, 0x12, 0x34}
	wmi := &mockProvider{channel: ChannelWMI, records: []Record{
		rec(ChannelWMI, 0, "SER123", "BenQ GL2450H", "GL2450H", edid),
	}}
	ddc := &mockProvider{channel: ChannelDDC, records: []Record{
		rec(ChannelDDC, 0, "GL2450H-OTHER", "Benq GL2450H", "GL2450H", edid),
	}}

	r := NewResolver(NewCache(), wmi, ddc)
	merged := r.Merge(context.Background())

	if len(merged) != 1 {
		t.Fatalf("merged %d records, want 1", len(merged))
	}
	// First record seen wins and keeps its dispatch coordinates.
	if merged[0].Channel != ChannelWMI || merged[0].ChannelIndex != 0 {
		t.Errorf("winner = %s/%d, want wmi/0", merged[0].Channel, merged[0].ChannelIndex)
	}
}

func TestMergeCaseDifferingManufacturers(t *testing.T) {
	// Same physical monitor, identical identity block, but the two
	// channels format the manufacturer differently. Identity wins.
	edid := []byte{0xaa, 0xbb}
	wmi := &mockProvider{channel: ChannelWMI, records: []Record{
		rec(ChannelWMI, 0, "S1", "Benq GL2450H", "GL2450H", edid),
	}}
	ddc := &mockProvider{channel: ChannelDDC, records: []Record{
		rec(ChannelDDC, 0, "S2", "BENQ GL2450H", "GL2450H", edid),
	}}

	merged := NewResolver(NewCache(), wmi, ddc).Merge(context.Background())
	if len(merged) != 1 {
		t.Fatalf("merged %d records, want 1", len(merged))
	}
}

func TestMergeKeepsRecordsWithoutIdentityBlock(t *testing.T) {
	wmi := &mockProvider{channel: ChannelWMI, records: []Record{
		rec(ChannelWMI, 0, "S1", "Dell U2211H", "U2211H", nil),
	}}
	ddc := &mockProvider{channel: ChannelDDC, records: []Record{
		rec(ChannelDDC, 0, "S1", "Dell U2211H", "U2211H", nil),
		rec(ChannelDDC, 1, "S2", "Dell U2211H", "U2211H", nil),
	}}

	merged := NewResolver(NewCache(), wmi, ddc).Merge(context.Background())
	if len(merged) != 3 {
		t.Fatalf("merged %d records, want 3 (nil identity never deduplicates)", len(merged))
	}
}

func TestMergeAbsorbsEnumerationFailure(t *testing.T) {
	wmi := &mockProvider{channel: ChannelWMI, enumErr: errors.New("wmi service unavailable")}
	ddc := &mockProvider{channel: ChannelDDC, records: []Record{
		rec(ChannelDDC, 0, "S1", "Dell U2211H", "U2211H", []byte{1}),
		rec(ChannelDDC, 1, "S2", "BenQ GL2450H", "GL2450H", []byte{2}),
	}}

	merged := NewResolver(NewCache(), wmi, ddc).Merge(context.Background())
	if len(merged) != 2 {
		t.Fatalf("merged %d records, want 2 from the surviving channel", len(merged))
	}
	for _, m := range merged {
		if m.Channel != ChannelDDC {
			t.Errorf("unexpected channel %s in merged output", m.Channel)
		}
	}
}

func TestMergeCachesEnumerations(t *testing.T) {
	wmi := &mockProvider{channel: ChannelWMI, records: []Record{
		rec(ChannelWMI, 0, "S1", "Dell U2211H", "U2211H", []byte{1}),
	}}

	r := NewResolver(NewCache(), wmi)
	ctx := context.Background()
	r.Merge(ctx)
	r.Merge(ctx)
	r.Merge(ctx)

	if wmi.enumCalls != 1 {
		t.Errorf("provider enumerated %d times, want 1 (cached)", wmi.enumCalls)
	}
}

func TestMergeDoesNotCacheFailedEnumeration(t *testing.T) {
	wmi := &mockProvider{channel: ChannelWMI, enumErr: errors.New("transient")}

	r := NewResolver(NewCache(), wmi)
	ctx := context.Background()
	r.Merge(ctx)

	// Channel recovers; next merge must see it.
	wmi.enumErr = nil
	wmi.records = []Record{rec(ChannelWMI, 0, "S1", "Dell U2211H", "U2211H", nil)}
	if merged := r.Merge(ctx); len(merged) != 1 {
		t.Fatalf("merged %d records after recovery, want 1", len(merged))
	}
}

func TestFilterAll(t *testing.T) {
	haystack := []Record{
		rec(ChannelWMI, 0, "S1", "A", "M1", nil),
		rec(ChannelDDC, 0, "S2", "B", "M2", nil),
	}

	got, err := Filter(All(), haystack, ChannelAny)
	if err != nil {
		t.Fatalf("Filter(All) error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Filter(All) returned %d records, want 2", len(got))
	}

	got, err = Filter(All(), haystack, ChannelDDC)
	if err != nil {
		t.Fatalf("Filter(All, ddc) error: %v", err)
	}
	if len(got) != 1 || got[0].Serial != "S2" {
		t.Fatalf("Filter(All, ddc) = %+v, want only S2", got)
	}
}

func TestFilterByIndex(t *testing.T) {
	for n := range 4 {
		haystack := make([]Record, 0, n)
		for i := range n {
			haystack = append(haystack, rec(ChannelWMI, i, "S", "N", "M", nil))
		}

		for i := range n {
			got, err := Filter(ByIndex(i), haystack, ChannelAny)
			if err != nil {
				t.Fatalf("n=%d: Filter(ByIndex(%d)) error: %v", n, i, err)
			}
			if len(got) != 1 || got[0].ChannelIndex != i {
				t.Fatalf("n=%d: Filter(ByIndex(%d)) = %+v", n, i, got)
			}
		}

		for _, i := range []int{-1, n, n + 1} {
			if _, err := Filter(ByIndex(i), haystack, ChannelAny); !errors.Is(err, ErrQueryIndex) {
				t.Errorf("n=%d: Filter(ByIndex(%d)) error = %v, want ErrQueryIndex", n, i, err)
			}
		}
	}
}

func TestFilterIndexAppliesChannelConstraintFirst(t *testing.T) {
	haystack := []Record{
		rec(ChannelWMI, 0, "S1", "A", "M", nil),
		rec(ChannelDDC, 0, "S2", "B", "M", nil),
		rec(ChannelDDC, 1, "S3", "C", "M", nil),
	}

	got, err := Filter(ByIndex(1), haystack, ChannelDDC)
	if err != nil {
		t.Fatalf("Filter error: %v", err)
	}
	if got[0].Serial != "S3" {
		t.Errorf("index 1 within ddc = %q, want S3", got[0].Serial)
	}
}

func TestFilterStringPrecedence(t *testing.T) {
	// One record matches "GL2450H" on model, another on serial.
	// The serial match must win.
	byModel := rec(ChannelWMI, 0, "OTHER", "BenQ GL2450H", "GL2450H", nil)
	bySerial := rec(ChannelDDC, 0, "GL2450H", "Dell U2211H", "U2211H", nil)
	haystack := []Record{byModel, bySerial}

	got, err := Filter(ByString("GL2450H"), haystack, ChannelAny)
	if err != nil {
		t.Fatalf("Filter error: %v", err)
	}
	if len(got) != 1 || got[0].Serial != "GL2450H" {
		t.Fatalf("Filter = %+v, want the serial match only", got)
	}
}

func TestFilterStringPriorityOrder(t *testing.T) {
	// Verify the full serial > name > model > identity order by
	// knocking out higher-priority fields one at a time.
	edid := []byte{0xde, 0xad}

	tests := []struct {
		desc     string
		target   string
		haystack []Record
		wantIdx  int
	}{
		{
			desc:   "name beats model",
			target: "match-me",
			haystack: []Record{
				{Model: "match-me", Channel: ChannelWMI},
				{Name: "match-me", Channel: ChannelDDC},
			},
			wantIdx: 1,
		},
		{
			desc:   "model beats identity",
			target: "dead",
			haystack: []Record{
				{EDID: edid, Channel: ChannelWMI},
				{Model: "dead", Channel: ChannelDDC},
			},
			wantIdx: 1,
		},
	}

	for _, tt := range tests {
		got, err := Filter(ByString(tt.target), tt.haystack, ChannelAny)
		if err != nil {
			t.Fatalf("%s: Filter error: %v", tt.desc, err)
		}
		if len(got) != 1 || got[0].Channel != tt.haystack[tt.wantIdx].Channel {
			t.Errorf("%s: Filter = %+v, want record %d", tt.desc, got, tt.wantIdx)
		}
	}

	// Identity block matches on its hex form.
	haystack := []Record{{EDID: edid, Channel: ChannelWMI}}
	got, err := Filter(ByString("DEAD"), haystack, ChannelAny)
	if err != nil {
		t.Fatalf("identity hex match error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("identity hex match = %+v, want 1 record", got)
	}
}

func TestFilterStringReturnsAllMatchesOnWinningField(t *testing.T) {
	haystack := []Record{
		rec(ChannelWMI, 0, "S1", "Dell U2211H", "U2211H", nil),
		rec(ChannelDDC, 0, "S2", "Dell U2211H", "U2211H", nil),
		rec(ChannelDDC, 1, "S3", "BenQ GL2450H", "GL2450H", nil),
	}

	got, err := Filter(ByString("dell u2211h"), haystack, ChannelAny)
	if err != nil {
		t.Fatalf("Filter error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Filter returned %d records, want both name matches", len(got))
	}
}

func TestFilterStringNoMatch(t *testing.T) {
	haystack := []Record{rec(ChannelWMI, 0, "S1", "Dell U2211H", "U2211H", nil)}
	if _, err := Filter(ByString("nonexistent-serial-XYZ"), haystack, ChannelAny); !errors.Is(err, ErrQueryLookup) {
		t.Errorf("Filter error = %v, want ErrQueryLookup", err)
	}
}

func TestFilterRejectsMalformedQuery(t *testing.T) {
	if _, err := Filter(Query{kind: 97}, nil, ChannelAny); !errors.Is(err, ErrQueryType) {
		t.Errorf("Filter error = %v, want ErrQueryType", err)
	}
}
