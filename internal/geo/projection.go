package geo

import "math"

// Central belt transverse Mercator on GRS80.
const (
	semiMajorAxis   = 6378137.0
	flattening      = 1 / 298.257222101
	originLatitude  = 38.0
	centralMeridian = 127.0
	scaleFactor     = 1.0
	falseEasting    = 200000.0
	falseNorthing   = 500000.0
)

var (
	e2  = flattening * (2 - flattening)
	ep2 = e2 / (1 - e2)
	m0  = meridianArc(originLatitude * math.Pi / 180)
)

// meridianArc is the distance along the meridian from the equator to phi.
func meridianArc(phi float64) float64 {
	e4 := e2 * e2
	e6 := e4 * e2
	return semiMajorAxis * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// inverseProjection maps grid meters to degrees without any correction.
func inverseProjection(p PlanarCoordinate) GeoCoordinate {
	e4 := e2 * e2
	e6 := e4 * e2

	m := m0 + (p.Y-falseNorthing)/scaleFactor
	mu := m / (semiMajorAxis * (1 - e2/4 - 3*e4/64 - 5*e6/256))

	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)

	c1 := ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	w := 1 - e2*sinPhi1*sinPhi1
	n1 := semiMajorAxis / math.Sqrt(w)
	r1 := semiMajorAxis * (1 - e2) / math.Pow(w, 1.5)
	d := (p.X - falseEasting) / (n1 * scaleFactor)

	lat := phi1 - (n1*tanPhi1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*math.Pow(d, 4)/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*math.Pow(d, 6)/720)

	lng := (d -
		(1+2*t1+c1)*math.Pow(d, 3)/6 +
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*math.Pow(d, 5)/120) / cosPhi1

	return GeoCoordinate{
		Lat: lat * 180 / math.Pi,
		Lng: centralMeridian + lng*180/math.Pi,
	}
}
