package transit

// Static line tables for each agency, loaded once and never mutated. Lines in
// the north/south set run North and South; every other line is assumed to run
// East and West, including line numbers absent from both sets.

var stmNorthSouthLines = []int{
	// Local lines:
	10, 12, 13, 14, 17, 21, 25, 28, 30, 31, 32, 33, 37, 44, 45, 53, 55, 63, 64,
	66, 67, 71, 74, 75, 80, 94, 107, 109, 116, 117, 119, 123, 124, 128, 129,
	131, 135, 136, 139, 165, 166, 168, 170, 178, 179, 196, 207, 209,
	// Night lines:
	355, 357, 359, 361, 363, 365, 369, 371,
	// Express lines:
	401, 409, 428, 432, 439, 449, 467,
	// Shuttle lines:
	769,
}

var stmEastWestLines = []int{
	// Local lines:
	11, 15, 16, 18, 19, 22, 24, 26, 27, 29, 34, 36, 39, 40, 41, 43, 46, 47, 48,
	49, 51, 52, 54, 57, 58, 61, 68, 69, 70, 72, 73, 76, 77, 78, 85, 86, 90, 92,
	93, 95, 97, 99, 100, 101, 102, 103, 104, 105, 106, 108, 110, 112, 113, 115,
	121, 125, 138, 140, 141, 144, 146, 150, 160, 161, 162, 164, 171, 174, 175,
	177, 180, 183, 185, 186, 187, 188, 189, 191, 192, 193, 195, 197, 200, 202,
	203, 204, 205, 206, 208, 211, 212, 213, 215, 216, 217, 218, 219, 220, 225,
	// Night lines:
	350, 353, 354, 356, 358, 360, 362, 364, 368, 370, 372, 376, 378, 380, 382,
	// Express lines:
	405, 406, 407, 410, 411, 419, 420, 425, 427, 430, 435, 440, 448, 460, 468,
	469, 470, 475, 485, 486, 487, 491, 495, 496,
	// Shuttle lines:
	711, 715, 747, 767, 777, 968,
}

var stlNorthSouthLines = []int{17, 27, 31, 33, 37, 39, 41, 43, 45,
	46, 55, 61, 63, 65, 73, 151, 360, 901, 902, 903, 925}

var stlEastWestLines = []int{2, 12, 20, 22, 24, 26, 36, 40, 42, 48,
	50, 52, 56, 58, 60, 66, 70, 74, 76, 144, 222, 252, 402, 404}

// NorthSouthLines returns the line numbers running North/South for the agency.
func NorthSouthLines(agency Agency) []int {
	switch agency {
	case AgencySTM:
		return stmNorthSouthLines
	case AgencySTL:
		return stlNorthSouthLines
	}
	return nil
}

// EastWestLines returns the line numbers running East/West for the agency.
func EastWestLines(agency Agency) []int {
	switch agency {
	case AgencySTM:
		return stmEastWestLines
	case AgencySTL:
		return stlEastWestLines
	}
	return nil
}

// AllLines returns every line number the agency serves, north/south lines
// first.
func AllLines(agency Agency) []int {
	northSouth := NorthSouthLines(agency)
	eastWest := EastWestLines(agency)
	all := make([]int, 0, len(northSouth)+len(eastWest))
	all = append(all, northSouth...)
	all = append(all, eastWest...)
	return all
}

// DirectionsForLine returns the directions the given line runs. Lines absent
// from the agency's north/south set default to East/West without validation.
func DirectionsForLine(agency Agency, lineNumber int) []Direction {
	for _, line := range NorthSouthLines(agency) {
		if line == lineNumber {
			return []Direction{North, South}
		}
	}
	return []Direction{East, West}
}
