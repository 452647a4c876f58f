package tracker

// kilojoulesPerKilocalorie is the thermochemical calorie.
const kilojoulesPerKilocalorie = 4.184

// KJToKcal converts kilojoules to kilocalories.
func KJToKcal(kj float64) float64 {
	return kj / kilojoulesPerKilocalorie
}

const (
	metersPerInch = 0.0254
	poundsPerKilo = 2.20462262185
)

// MetersToInches converts a height in meters to inches.
func MetersToInches(m float64) float64 {
	return m / metersPerInch
}

// KilogramsToPounds converts a weight in kilograms to pounds.
func KilogramsToPounds(kg float64) float64 {
	return kg * poundsPerKilo
}
