package schedule

import (
	"math"
	"time"
)

// civilSunAngle is the sun's depression angle below the horizon used for
// civil sunrise/sunset (degrees).
const civilSunAngle = 0.833

// sunTimes computes sunrise and sunset for the given local calendar date
// at (lat, lon), using the standard solar-geometry approximation (solar
// declination + hour angle from the day-of-year). Returned times are in
// loc's wall-clock for that date.
func sunTimes(date time.Time, lat, lon float64, loc *time.Location) (sunrise, sunset time.Time, ok bool) {
	dayOfYear := float64(date.YearDay())

	// Fractional year, radians.
	gamma := 2 * math.Pi / 365 * (dayOfYear - 1)

	// Equation of time (minutes) and solar declination (radians), NOAA's
	// Fourier-series approximation.
	eqTime := 229.18 * (0.000075 +
		0.001868*math.Cos(gamma) - 0.032077*math.Sin(gamma) -
		0.014615*math.Cos(2*gamma) - 0.040849*math.Sin(2*gamma))
	decl := 0.006918 - 0.399912*math.Cos(gamma) + 0.070257*math.Sin(gamma) -
		0.006758*math.Cos(2*gamma) + 0.000907*math.Sin(2*gamma) -
		0.002697*math.Cos(3*gamma) + 0.00148*math.Sin(3*gamma)

	latRad := lat * math.Pi / 180
	zenith := (90 + civilSunAngle) * math.Pi / 180

	cosHourAngle := (math.Cos(zenith) - math.Sin(latRad)*math.Sin(decl)) /
		(math.Cos(latRad) * math.Cos(decl))
	if cosHourAngle > 1 || cosHourAngle < -1 {
		// Sun never reaches (polar day) or never leaves (polar night)
		// the civil horizon on this date/latitude.
		return time.Time{}, time.Time{}, false
	}
	haDeg := math.Acos(cosHourAngle) * 180 / math.Pi

	// Minutes from UTC midnight.
	sunriseUTCMinutes := 720 - 4*(lon+haDeg) - eqTime
	sunsetUTCMinutes := 720 - 4*(lon-haDeg) - eqTime

	midnightUTC := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	sunrise = midnightUTC.Add(time.Duration(sunriseUTCMinutes * float64(time.Minute))).In(loc)
	sunset = midnightUTC.Add(time.Duration(sunsetUTCMinutes * float64(time.Minute))).In(loc)
	return sunrise, sunset, true
}
