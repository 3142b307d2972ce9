package cmr

import "testing"

func TestTemporalParam(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"empty", "", "", false},
		{"dates", "2019-06-01/2019-09-30", "2019-06-01T00:00:00Z,2019-09-30T23:59:59Z", false},
		{"single date", "2019-08-28", "2019-08-28T00:00:00Z,2019-08-28T23:59:59Z", false},
		{"instant", "2019-08-28T09:29:04Z", "2019-08-28T09:29:04Z,2019-08-28T09:29:04Z", false},
		{"open end", "2019-06-01T00:00:00Z/..", "2019-06-01T00:00:00Z,", false},
		{"open start", "/2019-09-30", ",2019-09-30T23:59:59Z", false},
		{"offset normalized", "2019-06-01T02:00:00+02:00/..", "2019-06-01T00:00:00Z,", false},
		{"both open", "../..", "", true},
		{"reversed", "2019-09-30/2019-06-01", "", true},
		{"too many parts", "2019-06-01/2019-07-01/2019-08-01", "", true},
		{"garbage", "june/july", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TemporalParam(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("TemporalParam(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("TemporalParam(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
