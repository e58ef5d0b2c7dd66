package certificate

// Align controls how a text run is positioned relative to its anchor X.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Color is an 8-bit RGB colour.
type Color struct {
	R, G, B int
}

var (
	black = Color{}

	// certificateNumberColor is #8e855f, the gold of the template artwork.
	certificateNumberColor = Color{R: 142, G: 133, B: 95}
)

// TextStyle describes how one field is drawn. All fields use Times-Roman.
type TextStyle struct {
	Size  float64
	Align Align
	Color Color
}

// Placement draws the value of one field at one anchor point.
type Placement struct {
	Value func(Fields) string
	At    Point
	Style TextStyle
}

func studentName(f Fields) string       { return f.StudentName }
func birthDate(f Fields) string         { return f.BirthDate }
func certificateNumber(f Fields) string { return f.CertificateNumber }
func courseDate(f Fields) string        { return f.CourseDate }

// Batch layout styles.
var (
	batchNameStyle       = TextStyle{Size: 10, Align: AlignLeft, Color: black}
	batchBirthDateStyle  = TextStyle{Size: 9, Align: AlignLeft, Color: black}
	batchCertNumberStyle = TextStyle{Size: 12, Align: AlignLeft, Color: certificateNumberColor}
	batchCourseDateStyle = TextStyle{Size: 9, Align: AlignLeft, Color: black}
)

// SlotPlacements returns the placements for the student in the given
// 1-based slot of a batch page.
func SlotPlacements(slot int) []Placement {
	at := PositionCoordinates(slot)
	return []Placement{
		{Value: studentName, At: at.StudentName, Style: batchNameStyle},
		{Value: birthDate, At: at.BirthDate, Style: batchBirthDateStyle},
		{Value: certificateNumber, At: at.CertificateNumber, Style: batchCertNumberStyle},
		{Value: courseDate, At: at.CourseDate, Style: batchCourseDateStyle},
	}
}

// SinglePlacements is the layout for a certificate issued to one student:
// name and birth date repeat on all three stubs of the page, the
// certificate number and course date are printed once.
func SinglePlacements() []Placement {
	centered14 := TextStyle{Size: 14, Align: AlignCenter, Color: black}
	centered12 := TextStyle{Size: 12, Align: AlignCenter, Color: black}

	return []Placement{
		{Value: studentName, At: Point{X: 263, Y: 125}, Style: centered14},
		{Value: studentName, At: Point{X: 263, Y: 405}, Style: centered14},
		{Value: studentName, At: Point{X: 263, Y: 680}, Style: centered14},
		{Value: birthDate, At: Point{X: 263, Y: 135}, Style: centered14},
		{Value: birthDate, At: Point{X: 263, Y: 415}, Style: centered14},
		{Value: birthDate, At: Point{X: 263, Y: 780}, Style: centered14},
		{
			Value: certificateNumber,
			At:    Point{X: 163, Y: 394},
			Style: TextStyle{Size: 12, Align: AlignCenter, Color: certificateNumberColor},
		},
		{Value: courseDate, At: Point{X: 390, Y: 500}, Style: centered12},
	}
}
