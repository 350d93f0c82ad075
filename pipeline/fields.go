package pipeline

// Payload is a decoded request body: field name to untyped value.
type Payload map[string]any

// FieldKind says how a required field is checked.
type FieldKind int

const (
	Numeric FieldKind = iota
	// Binary fields accept exactly 0 or 1.
	Binary
)

// FieldSpec describes one required input.
type FieldSpec struct {
	Name string
	Kind FieldKind
	Min  float64
	Max  float64
}

// RequiredFields is the input schema. Its order is the column order the
// trained model was fitted on and must only change together with the model.
var RequiredFields = []FieldSpec{
	{Name: "Age", Kind: Numeric, Min: 0, Max: 120},
	{Name: "BMI", Kind: Numeric, Min: 10, Max: 60},
	{Name: "BloodPressure", Kind: Numeric, Min: 80, Max: 200},
	{Name: "GlucoseLevel", Kind: Numeric, Min: 50, Max: 300},
	{Name: "InsulinLevel", Kind: Numeric, Min: 0, Max: 500},
	{Name: "FamilyHistory", Kind: Binary, Min: 0, Max: 1},
	{Name: "PhysicalActivity", Kind: Binary, Min: 0, Max: 1},
}

// FieldNames returns the required field names in column order.
func FieldNames() []string {
	names := make([]string, len(RequiredFields))
	for i, f := range RequiredFields {
		names[i] = f.Name
	}
	return names
}
