package sheet

// Output naming for exported files. File names get the format extension.
const (
	SheetName        = "Bulk Upload Template"
	ExportFilename   = "Facebook_Marketplace_Bulk_Upload"
	TemplateFilename = "Facebook_Marketplace_Bulk_Upload_Template"
)

// Banner and instruction text of the default pre-header block.
const (
	DefaultBanner       = "Facebook Marketplace Bulk Upload Template"
	DefaultInstructions = "You can create up to 50 listings at once. When you are finished, be sure to save or export this as an XLS/XLSX file."
)

// DefaultColumnWidths are applied when the header has exactly six columns.
var DefaultColumnWidths = []float64{50, 10, 15, 80, 40, 15}

// DefaultHeaderRow returns the header used before any import.
func DefaultHeaderRow() []string {
	return []string{"TITLE", "PRICE", "CONDITION", "DESCRIPTION", "CATEGORY", "OFFER SHIPPING"}
}

// DefaultPreHeaderRows returns the banner, instructions and the blank
// separator row the marketplace template requires.
func DefaultPreHeaderRows() []Row {
	return []Row{
		{DefaultBanner},
		{DefaultInstructions},
		{},
	}
}
