package converter

import "strings"

// Family is the conversion strategy chosen for an input
type Family int

const (
	FamilyMarkupFallback Family = iota
	FamilyImage
	FamilyPassthrough
	FamilyOffice
	FamilyNotebook
	FamilyTabular
	FamilyBinaryData
)

func (f Family) String() string {
	switch f {
	case FamilyImage:
		return "image"
	case FamilyPassthrough:
		return "passthrough"
	case FamilyOffice:
		return "office"
	case FamilyNotebook:
		return "notebook"
	case FamilyTabular:
		return "tabular"
	case FamilyBinaryData:
		return "binary-data"
	default:
		return "markup"
	}
}

// Classify maps a file extension to its conversion family. The first matching
// rule wins and anything unrecognised, including "", falls back to markup.
func Classify(ext string) Family {
	switch strings.ToLower(ext) {
	case ".png", ".jpg", ".jpeg":
		return FamilyImage
	case ".pdf":
		return FamilyPassthrough
	case ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".odt", ".ods", ".odp":
		return FamilyOffice
	case ".ipynb":
		return FamilyNotebook
	case ".csv", ".tsv":
		return FamilyTabular
	case ".parquet", ".feather", ".h5", ".hdf5", ".pickle", ".pkl", ".sav", ".dta", ".mat", ".db", ".sqlite":
		return FamilyBinaryData
	default:
		return FamilyMarkupFallback
	}
}
