package certificate

// SlotsPerPage is how many students share one DATE certificate page.
const SlotsPerPage = 3

// Point is a position on the template in PDF points, measured from the
// LEFT and TOP edges of the page.
type Point struct {
	X float64
	Y float64
}

// FieldCoordinates holds where each text field of one student goes.
type FieldCoordinates struct {
	StudentName       Point
	BirthDate         Point
	CertificateNumber Point
	CourseDate        Point
}

// Column positions are shared by every slot; only the rows move.
const (
	studentNameX       = 266
	birthDateX         = 297
	certificateNumberX = 98
	courseDateX        = 266
)

// slotRows maps a slot to the Y of name, birth date, certificate number and
// course date, in that order.
var slotRows = map[int][4]float64{
	1: {119, 134, 149, 210}, // top
	2: {399, 415, 427, 490}, // middle
	3: {714, 687, 704, 765}, // bottom
}

// fallbackRow is used for slots outside 1..SlotsPerPage. It matches the top
// slot except for the birth date, which sits slightly higher.
var fallbackRow = [4]float64{119, 110, 149, 210}

// PositionCoordinates returns the field coordinates for a 1-based slot.
func PositionCoordinates(slot int) FieldCoordinates {
	row, ok := slotRows[slot]
	if !ok {
		row = fallbackRow
	}

	return FieldCoordinates{
		StudentName:       Point{X: studentNameX, Y: row[0]},
		BirthDate:         Point{X: birthDateX, Y: row[1]},
		CertificateNumber: Point{X: certificateNumberX, Y: row[2]},
		CourseDate:        Point{X: courseDateX, Y: row[3]},
	}
}
