package models

// ExtractKind selects the extraction model and prompt for one document image.
type ExtractKind string

const (
	ExtractIDFront ExtractKind = "id_front"
	ExtractIDBack  ExtractKind = "id_back"
	ExtractTaxCard ExtractKind = "tax_card"
)

// ExtractedRecord is the ephemeral, typed result of one extraction call.
//
// A transient gateway failure is reported as an error instead, so a record
// always means the vision service answered. Valid=false is the negative
// classification ("not a valid document of this kind"). A record is never
// partially trusted: MissingCritical decides whether the whole extraction
// must be rejected back to the awaiting-upload state.
type ExtractedRecord struct {
	Kind   ExtractKind
	Valid  bool
	Fields map[string]string
}

// criticalFields lists what must all be present for an extraction to be
// accepted. The identity back side has none: unparsed address sub-fields get
// placeholders so the flow never stalls on partial address extraction.
var criticalFields = map[ExtractKind][]string{
	ExtractIDFront: {FieldName, FieldDOB, FieldNationalID},
	ExtractTaxCard: {FieldTaxNumber, FieldFatherName},
}

// MissingCritical returns the critical fields absent from this record.
func (r *ExtractedRecord) MissingCritical() []string {
	var missing []string
	for _, key := range criticalFields[r.Kind] {
		if r.Fields[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
