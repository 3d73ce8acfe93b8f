package provider

import (
	"encoding/json"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }
func i64Ptr(i int64) *int64   { return &i }
func intPtr(i int) *int       { return &i }

func TestNormalizePhoto(t *testing.T) {
	tests := []struct {
		name     string
		raw      itemPayload
		space    int
		wantName string
		wantTime time.Time
	}{
		{
			name: "Filename preferred over name",
			raw: itemPayload{
				ID:       42,
				FileName: strPtr("IMG_0042.jpg"),
				Name:     strPtr("ignored"),
				Time:     i64Ptr(1700000000),
			},
			space:    0,
			wantName: "IMG_0042.jpg",
			wantTime: time.Unix(1700000000, 0).UTC(),
		},
		{
			name: "Name fallback when filename absent",
			raw: itemPayload{
				ID:   7,
				Name: strPtr("vacation.png"),
			},
			space:    1,
			wantName: "vacation.png",
		},
		{
			name: "Create time fallback when capture time absent",
			raw: itemPayload{
				ID:         9,
				FileName:   strPtr("x.jpg"),
				CreateTime: i64Ptr(1600000000),
			},
			wantName: "x.jpg",
			wantTime: time.Unix(1600000000, 0).UTC(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := normalizePhoto(tt.raw, tt.space, nil)

			if p.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", p.Name, tt.wantName)
			}
			if p.Space != tt.space {
				t.Errorf("Space = %d, want %d", p.Space, tt.space)
			}
			if !tt.wantTime.IsZero() && !p.Created.Equal(tt.wantTime) {
				t.Errorf("Created = %v, want %v", p.Created, tt.wantTime)
			}
			if int64(p.ID) != tt.raw.ID {
				t.Errorf("ID = %d, want %d", p.ID, tt.raw.ID)
			}
		})
	}
}

func TestNormalizePhotoModifiedFallsBackToCreated(t *testing.T) {
	p := normalizePhoto(itemPayload{
		ID:       1,
		FileName: strPtr("a.jpg"),
		Time:     i64Ptr(1700000000),
	}, 0, nil)

	if !p.Modified.Equal(p.Created) {
		t.Errorf("Modified = %v, want Created %v", p.Modified, p.Created)
	}
}

func TestPhotoIdentity(t *testing.T) {
	p := Photo{ID: 42, Space: 3}
	if got := p.Identity(); got != "42_3" {
		t.Errorf("Identity() = %q, want %q", got, "42_3")
	}
}

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		wantValue float64
		wantValid bool
	}{
		{"Bare number", `{"latitude": 59.3293}`, 59.3293, true},
		{"Quoted number", `{"latitude": "59.3293"}`, 59.3293, true},
		{"Null", `{"latitude": null}`, 0, false},
		{"Empty string", `{"latitude": ""}`, 0, false},
		{"Garbage string", `{"latitude": "north"}`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload gpsPayload
			if err := json.Unmarshal([]byte(tt.json), &payload); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if payload.Latitude.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", payload.Latitude.Valid, tt.wantValid)
			}
			if payload.Latitude.Value != tt.wantValue {
				t.Errorf("Value = %v, want %v", payload.Latitude.Value, tt.wantValue)
			}
		})
	}
}

func TestNormalizeExif(t *testing.T) {
	t.Run("No useful fields returns nil", func(t *testing.T) {
		if got := normalizeExif(itemPayload{ID: 1, FileName: strPtr("a.jpg")}); got != nil {
			t.Errorf("normalizeExif() = %+v, want nil", got)
		}
	})

	t.Run("GPS only", func(t *testing.T) {
		raw := itemPayload{
			ID: 2,
			Additional: &additionalPayload{
				GPS: &gpsPayload{
					Latitude:  flexFloat{Value: 59.33, Valid: true},
					Longitude: flexFloat{Value: 18.06, Valid: true},
				},
			},
		}
		got := normalizeExif(raw)
		if got == nil {
			t.Fatal("normalizeExif() = nil, want GPS fields")
		}
		if !got.HasGPS || got.HasTaken {
			t.Errorf("HasGPS = %v, HasTaken = %v, want true/false", got.HasGPS, got.HasTaken)
		}
		if got.Latitude != 59.33 || got.Longitude != 18.06 {
			t.Errorf("coordinates = %v,%v", got.Latitude, got.Longitude)
		}
	})

	t.Run("Capture time only", func(t *testing.T) {
		got := normalizeExif(itemPayload{ID: 3, Time: i64Ptr(1700000000)})
		if got == nil || !got.HasTaken || got.HasGPS {
			t.Fatalf("normalizeExif() = %+v, want capture time only", got)
		}
		if want := time.Unix(1700000000, 0).UTC(); !got.TakenAt.Equal(want) {
			t.Errorf("TakenAt = %v, want %v", got.TakenAt, want)
		}
	})

	t.Run("Half a coordinate pair is not GPS", func(t *testing.T) {
		raw := itemPayload{
			ID: 4,
			Additional: &additionalPayload{
				GPS: &gpsPayload{Latitude: flexFloat{Value: 1, Valid: true}},
			},
		}
		if got := normalizeExif(raw); got != nil {
			t.Errorf("normalizeExif() = %+v, want nil", got)
		}
	})
}
