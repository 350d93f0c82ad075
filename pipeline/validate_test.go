package pipeline

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPayload() Payload {
	return Payload{
		"Age":              45.0,
		"BMI":              28.0,
		"BloodPressure":    130.0,
		"GlucoseLevel":     140.0,
		"InsulinLevel":     80.0,
		"FamilyHistory":    1.0,
		"PhysicalActivity": 0.0,
	}
}

func TestMissingFields(t *testing.T) {
	p := validPayload()
	delete(p, "InsulinLevel")
	delete(p, "BMI")
	assert.Equal(t, []string{"BMI", "InsulinLevel"}, MissingFields(p))

	assert.Empty(t, MissingFields(validPayload()))
	assert.Equal(t, FieldNames(), MissingFields(Payload{"unrelated": 1}))
}

func TestMissingFieldsNullIsPresent(t *testing.T) {
	p := validPayload()
	p["Age"] = nil
	assert.Empty(t, MissingFields(p))

	outcome := ValidateRanges(p)
	require.Len(t, outcome.Violations, 1)
	assert.Contains(t, outcome.Violations[0], "Age must be a number")
}

func TestValidateRangesBoundaries(t *testing.T) {
	for _, f := range RequiredFields {
		if f.Kind != Numeric {
			continue
		}
		t.Run(f.Name, func(t *testing.T) {
			for _, v := range []float64{f.Min, f.Max, (f.Min + f.Max) / 2} {
				p := validPayload()
				p[f.Name] = v
				assert.True(t, ValidateRanges(p).Valid(), "%s=%v should be accepted", f.Name, v)
			}
			for _, v := range []float64{f.Min - 1, f.Max + 1, math.Inf(1), math.Inf(-1), math.NaN()} {
				p := validPayload()
				p[f.Name] = v
				outcome := ValidateRanges(p)
				require.Len(t, outcome.Violations, 1, "%s=%v should be rejected", f.Name, v)
				assert.Contains(t, outcome.Violations[0], f.Name)
			}
		})
	}
}

func TestValidateRangesAgeExamples(t *testing.T) {
	cases := map[any]bool{
		0:                     true,
		120:                   true,
		-1:                    false,
		121:                   false,
		"45":                  false,
		true:                  false,
		nil:                   false,
		119.5:                 true,
		json.Number("45"):     true,
		json.Number("1e400"):  false,
		json.Number("-1e400"): false,
	}
	for v, ok := range cases {
		p := validPayload()
		p["Age"] = v
		assert.Equal(t, ok, ValidateRanges(p).Valid(), "Age=%#v", v)
	}
}

func TestValidateRangesOverflowingLiteral(t *testing.T) {
	p := validPayload()
	p["GlucoseLevel"] = json.Number("1e400")
	assert.Equal(t, []string{"GlucoseLevel must be between 50 and 300, got 1e400"}, ValidateRanges(p).Violations)
}

func TestValidateRangesBinaryFields(t *testing.T) {
	for _, name := range []string{"FamilyHistory", "PhysicalActivity"} {
		for _, v := range []any{0, 1, 0.0, 1.0, int64(1), json.Number("0")} {
			p := validPayload()
			p[name] = v
			assert.True(t, ValidateRanges(p).Valid(), "%s=%#v should be accepted", name, v)
		}
		for _, v := range []any{true, false, "1", "0", 2, -1, 0.5, nil, []any{1}, map[string]any{}} {
			p := validPayload()
			p[name] = v
			outcome := ValidateRanges(p)
			require.Len(t, outcome.Violations, 1, "%s=%#v should be rejected", name, v)
			assert.Contains(t, outcome.Violations[0], name+" must be 0 or 1")
		}
	}
}

func TestValidateRangesIsExhaustive(t *testing.T) {
	p := Payload{
		"Age":              -5.0,
		"BMI":              "heavy",
		"BloodPressure":    130.0,
		"GlucoseLevel":     400.0,
		"InsulinLevel":     80.0,
		"FamilyHistory":    true,
		"PhysicalActivity": 3.0,
	}
	outcome := ValidateRanges(p)
	require.False(t, outcome.Valid())
	require.Len(t, outcome.Violations, 5)
	assert.Equal(t, `Age must be between 0 and 120, got -5`, outcome.Violations[0])
	assert.Equal(t, `BMI must be a number, got "heavy"`, outcome.Violations[1])
	assert.Equal(t, `GlucoseLevel must be between 50 and 300, got 400`, outcome.Violations[2])
	assert.Equal(t, `FamilyHistory must be 0 or 1, got true`, outcome.Violations[3])
	assert.Equal(t, `PhysicalActivity must be 0 or 1, got 3`, outcome.Violations[4])
}

func TestBuildFeatureVectorOrder(t *testing.T) {
	// Insertion order of a Go map literal is irrelevant; the vector must
	// follow column order.
	p := Payload{
		"PhysicalActivity": 0,
		"InsulinLevel":     80,
		"FamilyHistory":    1,
		"GlucoseLevel":     140.5,
		"BMI":              28,
		"BloodPressure":    json.Number("130"),
		"Age":              45,
	}
	vec := BuildFeatureVector(p)
	require.Len(t, vec, 7)
	assert.Equal(t, []float64{45, 28, 130, 140.5, 80, 1, 0}, []float64(vec))
	assert.Equal(t, vec, BuildFeatureVector(p))
}
