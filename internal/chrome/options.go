package chrome

// Paper and margin sizes are in inches, as the DevTools protocol expects
const (
	A4WidthInches  = 8.27
	A4HeightInches = 11.69

	// 20 CSS pixels at 96 pixels per inch
	DefaultMarginInches = 20.0 / 96.0
)

// PrintOpts controls page layout of the printed document
type PrintOpts struct {
	PaperWidth      float64
	PaperHeight     float64
	MarginTop       float64
	MarginBottom    float64
	MarginLeft      float64
	MarginRight     float64
	PrintBackground bool
}

// DefaultPrintOpts is A4 with background graphics and 20px margins on every side
func DefaultPrintOpts() PrintOpts {
	return PrintOpts{
		PaperWidth:      A4WidthInches,
		PaperHeight:     A4HeightInches,
		MarginTop:       DefaultMarginInches,
		MarginBottom:    DefaultMarginInches,
		MarginLeft:      DefaultMarginInches,
		MarginRight:     DefaultMarginInches,
		PrintBackground: true,
	}
}
