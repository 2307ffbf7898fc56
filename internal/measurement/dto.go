package measurement

import "time"

// Record is the wire representation of one measurement, as delivered by
// the ingestion queue and the REST surface.
type Record struct {
	MeasuredAt   string  `json:"misuration_date"`
	Denomination string  `json:"denomination"`
	Municipality string  `json:"municipality"`
	Province     string  `json:"province"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`

	Pollutants *RecordPollutants `json:"pollutants"`
}

// RecordPollutants mirrors Pollutants on the wire; nil values mean the
// station does not report that species.
type RecordPollutants struct {
	PM10Value *float64 `json:"pm10_value"`
	PM10Unit  string   `json:"pm10_unit"`
	PM25Value *float64 `json:"pm2dot5_value"`
	PM25Unit  string   `json:"pm2dot5_unit"`
	NO2Value  *float64 `json:"no2_value"`
	NO2Unit   string   `json:"no2_unit"`
	O3Value   *float64 `json:"o3_value"`
	O3Unit    string   `json:"o3_unit"`
	SO2Value  *float64 `json:"so2_value"`
	SO2Unit   string   `json:"so2_unit"`
	COValue   *float64 `json:"co_value"`
	COUnit    string   `json:"co_unit"`
	C6H6Value *float64 `json:"c6h6_value"`
	C6H6Unit  string   `json:"c6h6_unit"`
	IPAValue  *float64 `json:"ipa_value"`
	IPAUnit   string   `json:"ipa_unit"`
	H2SValue  *float64 `json:"h2s_value"`
	H2SUnit   string   `json:"h2s_unit"`
}

// ToDomain converts the wire record into a domain Measurement. A missing
// or malformed timestamp is left zero; ingestion restamps it anyway.
func (r Record) ToDomain() *Measurement {
	var measuredAt time.Time
	if r.MeasuredAt != "" {
		if t, err := time.Parse(time.RFC3339, r.MeasuredAt); err == nil {
			measuredAt = t
		}
	}

	m := &Measurement{
		MeasuredAt:   measuredAt,
		Denomination: r.Denomination,
		Municipality: r.Municipality,
		Province:     r.Province,
		Lon:          r.Longitude,
		Lat:          r.Latitude,
	}

	if r.Pollutants != nil {
		m.Pollutants = &Pollutants{
			PM10: concentration(r.Pollutants.PM10Value, r.Pollutants.PM10Unit),
			PM25: concentration(r.Pollutants.PM25Value, r.Pollutants.PM25Unit),
			NO2:  concentration(r.Pollutants.NO2Value, r.Pollutants.NO2Unit),
			O3:   concentration(r.Pollutants.O3Value, r.Pollutants.O3Unit),
			SO2:  concentration(r.Pollutants.SO2Value, r.Pollutants.SO2Unit),
			CO:   concentration(r.Pollutants.COValue, r.Pollutants.COUnit),
			C6H6: concentration(r.Pollutants.C6H6Value, r.Pollutants.C6H6Unit),
			IPA:  concentration(r.Pollutants.IPAValue, r.Pollutants.IPAUnit),
			H2S:  concentration(r.Pollutants.H2SValue, r.Pollutants.H2SUnit),
		}
	}

	return m
}

func concentration(value *float64, unit string) *Concentration {
	if value == nil {
		return nil
	}
	if unit == "" {
		unit = "µg/m³"
	}
	return &Concentration{Value: *value, Unit: unit}
}
