package utils

import (
	"testing"
	"time"

	"github.com/jack-barr3tt/journey-tracker/src/common/types"
)

func TestUnmarshalStationList(t *testing.T) {
	stations, err := UnmarshalStationList([]byte(`{"stations":[{"code":"PAD","name":"Paddington"},{"code":"RDG","name":"Reading"}]}`))
	if err != nil {
		t.Fatalf("UnmarshalStationList() = %v; want nil", err)
	}
	if len(stations) != 2 {
		t.Fatalf("len=%d want=2", len(stations))
	}
	if stations[1] != (types.Station{Code: "RDG", Name: "Reading"}) {
		t.Fatalf("stations[1]=%+v", stations[1])
	}
}

func TestUnmarshalDepartureBoard(t *testing.T) {
	deps, err := UnmarshalDepartureBoard([]byte(`{"journeys":[{"departureTime":"2024-01-01T10:00:00Z","arrivalTime":"2024-01-01T10:25:00Z","status":"On time","platform":"4"}]}`))
	if err != nil {
		t.Fatalf("UnmarshalDepartureBoard() = %v; want nil", err)
	}
	if len(deps) != 1 {
		t.Fatalf("len=%d want=1", len(deps))
	}
	if deps[0].Status != "On time" || deps[0].Platform == nil || *deps[0].Platform != "4" {
		t.Fatalf("deps[0]=%+v", deps[0])
	}
	if deps[0].Operator != nil {
		t.Fatalf("Operator=%v want=nil", *deps[0].Operator)
	}
}

func TestUnmarshalJourneys(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    int
		wantErr bool
	}{
		{name: "empty blob", data: "", want: 0},
		{name: "null", data: "null", want: 0},
		{name: "empty list", data: "[]", want: 0},
		{name: "one journey", data: `[{"id":"1","from":"Paddington","to":"Reading","status":"On time"}]`, want: 1},
		{name: "garbage", data: "{not json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalJourneys([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatal("err=nil want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("err=%v want nil", err)
			}
			if got == nil {
				t.Fatal("got nil slice want non-nil")
			}
			if len(got) != tt.want {
				t.Fatalf("len=%d want=%d", len(got), tt.want)
			}
		})
	}
}

func TestMarshalJourneys_nil(t *testing.T) {
	data, err := MarshalJourneys(nil)
	if err != nil {
		t.Fatalf("MarshalJourneys(nil) = %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("MarshalJourneys(nil)=%s want=[]", data)
	}
}

func TestFormatTimeOfDay(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skipf("no tzdata: %v", err)
	}

	tests := []struct {
		raw  string
		loc  *time.Location
		want string
	}{
		{raw: "2024-01-01T10:00:00Z", loc: time.UTC, want: "10:00"},
		// BST is UTC+1
		{raw: "2024-07-01T10:00:00Z", loc: london, want: "11:00"},
		{raw: "2024-07-01T10:00:00Z", loc: nil, want: "10:00"},
		{raw: "09:45", loc: london, want: "09:45"},
		{raw: "09:45:30", loc: london, want: "09:45"},
		{raw: "soon", loc: london, want: "soon"},
		{raw: "", loc: london, want: ""},
	}

	for _, tt := range tests {
		if got := FormatTimeOfDay(tt.raw, tt.loc); got != tt.want {
			t.Errorf("FormatTimeOfDay(%q)=%q want=%q", tt.raw, got, tt.want)
		}
	}
}
