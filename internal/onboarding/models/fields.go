package models

import "strings"

// Patch keys shared by the extraction gateway and the correction interpreter.
// Each confirmation stage works against one namespace's subset.
const (
	FieldName       = "name"
	FieldDOB        = "dob"
	FieldGender     = "gender"
	FieldNationalID = "national_id"

	FieldAddress    = "address"
	FieldCity       = "city"
	FieldDistrict   = "district"
	FieldRegion     = "state"
	FieldPostalCode = "pincode"

	FieldTaxNumber  = "tax_no"
	FieldFatherName = "father_name"
)

// SplitName divides a full name into first name and the remainder.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// IdentitySubset is the front-document view handed to the correction
// interpreter and echoed back for re-confirmation.
func (f *Fields) IdentitySubset() map[string]string {
	return map[string]string{
		FieldName:       f.Identity.FullName(),
		FieldDOB:        f.Identity.DOB,
		FieldGender:     f.Identity.Gender,
		FieldNationalID: f.Identity.NationalID,
	}
}

// ApplyIdentityPatch merges a correction patch into the identity namespace.
// Only named keys change; everything else is preserved.
func (f *Fields) ApplyIdentityPatch(patch map[string]string) {
	if v, ok := patch[FieldName]; ok {
		f.Identity.FirstName, f.Identity.LastName = SplitName(v)
	}
	if v, ok := patch[FieldDOB]; ok {
		f.Identity.DOB = v
	}
	if v, ok := patch[FieldGender]; ok {
		f.Identity.Gender = v
	}
	if v, ok := patch[FieldNationalID]; ok {
		f.Identity.NationalID = v
	}
}

// AddressSubset is the back-document view for correction and echo.
func (f *Fields) AddressSubset() map[string]string {
	return map[string]string{
		FieldAddress:    f.Address.Line,
		FieldCity:       f.Address.City,
		FieldDistrict:   f.Address.District,
		FieldRegion:     f.Address.Region,
		FieldPostalCode: f.Address.PostalCode,
	}
}

// ApplyAddressPatch merges a correction patch into the address namespace.
func (f *Fields) ApplyAddressPatch(patch map[string]string) {
	if v, ok := patch[FieldAddress]; ok {
		f.Address.Line = v
	}
	if v, ok := patch[FieldCity]; ok {
		f.Address.City = v
	}
	if v, ok := patch[FieldDistrict]; ok {
		f.Address.District = v
	}
	if v, ok := patch[FieldRegion]; ok {
		f.Address.Region = v
	}
	if v, ok := patch[FieldPostalCode]; ok {
		f.Address.PostalCode = v
	}
}

// TaxSubset is the tax-document view for correction and echo.
func (f *Fields) TaxSubset() map[string]string {
	return map[string]string{
		FieldTaxNumber:  f.Tax.Number,
		FieldName:       f.Tax.HolderName,
		FieldFatherName: f.Tax.FatherName,
		FieldDOB:        f.Tax.DOB,
	}
}

// ApplyTaxPatch merges a correction patch into the tax namespace.
func (f *Fields) ApplyTaxPatch(patch map[string]string) {
	if v, ok := patch[FieldTaxNumber]; ok {
		f.Tax.Number = v
	}
	if v, ok := patch[FieldName]; ok {
		f.Tax.HolderName = v
	}
	if v, ok := patch[FieldFatherName]; ok {
		f.Tax.FatherName = v
	}
	if v, ok := patch[FieldDOB]; ok {
		f.Tax.DOB = v
	}
}
